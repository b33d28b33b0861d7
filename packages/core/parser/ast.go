package parser

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type File struct {
	Path         string                    `yaml:"-"`
	Name         string                    `yaml:"name"`
	Variables    map[string]any            `yaml:"variables"`
	Environments map[string]map[string]any `yaml:"environments"`
	Classes      []*Class                  `yaml:"classes"`
}

type Class struct {
	Name      string      `yaml:"name"`
	Extends   string      `yaml:"extends"`
	Providers []*Provider `yaml:"providers"`
	Setup     []string    `yaml:"setup"`
	Teardown  []string    `yaml:"teardown"`
	Tests     []*Test     `yaml:"tests"`
	Line      int         `yaml:"-"`
}

func (c *Class) UnmarshalYAML(node *yaml.Node) error {
	type plain Class
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Line = node.Line
	return nil
}

// Provider is a named row source. Providers are static unless Static is set
// to false, in which case they are called on a fresh instance of the class.
type Provider struct {
	Name   string `yaml:"name"`
	Rows   []any  `yaml:"rows"`
	Static *bool  `yaml:"static"`
	Line   int    `yaml:"-"`
}

func (p *Provider) UnmarshalYAML(node *yaml.Node) error {
	type plain Provider
	if err := node.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Line = node.Line
	return nil
}

// IsStatic reports whether the provider needs no instance
func (p *Provider) IsStatic() bool {
	return p.Static == nil || *p.Static
}

type Test struct {
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	Command        string          `yaml:"command"`
	Arity          int             `yaml:"arity"`
	Ignore         bool            `yaml:"ignore"`
	Timeout        string          `yaml:"timeout"`
	AssumeExitCode int             `yaml:"assumeExitCode"`
	Parameters     *Parameters     `yaml:"parameters"`
	FileParameters *FileParameters `yaml:"fileParameters"`
	Line           int             `yaml:"-"`
}

func (t *Test) UnmarshalYAML(node *yaml.Node) error {
	type plain Test
	if err := node.Decode((*plain)(t)); err != nil {
		return err
	}
	t.Line = node.Line
	return nil
}

// Parameters declares literal rows, or providers by class and method list. A
// bare sequence is shorthand for literal rows.
type Parameters struct {
	Value  []any  `yaml:"value"`
	Source string `yaml:"source"`
	Method string `yaml:"method"`
}

func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&p.Value)
	case yaml.MappingNode:
		type plain Parameters
		return node.Decode((*plain)(p))
	}
	return fmt.Errorf("line %d: parameters must be a list of rows or a mapping", node.Line)
}

type FileParameters struct {
	Path   string `yaml:"path"`
	Mapper string `yaml:"mapper"`
}

// ParseError is an invalid suite file
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
