package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

// Parse decodes a suite file and checks that its names and references are
// consistent. Conflicting parameter declarations are left for the engine to
// report as the failure of that test.
func Parse(input, filename string) (*File, error) {
	file := &File{}
	if err := yaml.NewDecoder(strings.NewReader(input)).Decode(file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{File: filename, Message: "empty suite file"}
		}
		return nil, &ParseError{File: filename, Message: err.Error()}
	}
	file.Path = filename

	if err := validate(file); err != nil {
		return nil, err
	}
	return file, nil
}

func validate(f *File) error {
	fail := func(line int, format string, args ...any) error {
		return &ParseError{File: f.Path, Line: line, Message: fmt.Sprintf(format, args...)}
	}

	if len(f.Classes) == 0 {
		return fail(0, "no classes declared")
	}

	classes := make(map[string]*Class, len(f.Classes))
	for _, c := range f.Classes {
		if c.Name == "" {
			return fail(c.Line, "class without a name")
		}
		if _, dup := classes[c.Name]; dup {
			return fail(c.Line, "duplicate class %q", c.Name)
		}
		classes[c.Name] = c
	}

	for _, c := range f.Classes {
		if err := checkHierarchy(c, classes); err != nil {
			return fail(c.Line, "%v", err)
		}

		providers := make(map[string]bool)
		for _, p := range c.Providers {
			if p.Name == "" {
				return fail(p.Line, "provider without a name in class %q", c.Name)
			}
			if providers[p.Name] {
				return fail(p.Line, "duplicate provider %q in class %q", p.Name, c.Name)
			}
			providers[p.Name] = true
		}

		tests := make(map[string]bool)
		for _, t := range c.Tests {
			if t.Name == "" {
				return fail(t.Line, "test without a name in class %q", c.Name)
			}
			if tests[t.Name] {
				return fail(t.Line, "duplicate test %q in class %q", t.Name, c.Name)
			}
			tests[t.Name] = true

			if strings.TrimSpace(t.Command) == "" {
				return fail(t.Line, "test %q has no command", t.Name)
			}
			if t.Arity < 0 {
				return fail(t.Line, "test %q has a negative arity", t.Name)
			}
			if t.Timeout != "" {
				if _, err := time.ParseDuration(t.Timeout); err != nil {
					return fail(t.Line, "test %q: invalid timeout %q", t.Name, t.Timeout)
				}
			}
		}
	}
	return nil
}

// checkHierarchy rejects extends cycles within one file. A superclass missing
// from the file may come from another file and is checked when building.
func checkHierarchy(c *Class, classes map[string]*Class) error {
	seen := map[string]bool{c.Name: true}
	for cur := c; cur.Extends != ""; {
		if seen[cur.Extends] {
			return fmt.Errorf("class %q: cyclic extends through %q", c.Name, cur.Extends)
		}
		seen[cur.Extends] = true
		next, ok := classes[cur.Extends]
		if !ok {
			return nil
		}
		cur = next
	}
	return nil
}
