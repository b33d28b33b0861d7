package parser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/rowspec/packages/core/env"
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
	"github.com/abdul-hamid-achik/rowspec/packages/core/runner"
)

// BuildOptions controls how parsed files become suites
type BuildOptions struct {
	Shell runner.ShellOptions
	// Registry is shared between files so that extends and source can name
	// classes declared elsewhere. A nil Registry is private to the call.
	Registry *params.Registry
	// Environment selects one of the file's environments.
	Environment string
	// Lookup reads {{$NAME}} references.
	Lookup env.LookupFunc
	Logger *slog.Logger
}

// Build registers the classes of f and returns one suite per class, in file
// order.
func Build(f *File, opts BuildOptions) ([]*runner.Suite, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := opts.Registry
	if registry == nil {
		registry = params.NewRegistry()
	}

	environment, err := env.LoadEnvironment(opts.Environment, f.Environments)
	if err != nil {
		return nil, &ParseError{File: f.Path, Message: err.Error()}
	}
	vars := env.NewResolver(opts.Lookup)
	vars.SetVariables(env.MergeVariables(f.Variables, environment.Variables))
	vars.SetWarnFunc(func(format string, args ...any) {
		logger.Warn(fmt.Sprintf(format, args...), "file", f.Path)
	})

	classes := make([]*params.Class, len(f.Classes))
	for i, c := range f.Classes {
		classes[i] = newClass(c)
		registry.Add(classes[i])
	}

	for i, c := range f.Classes {
		if c.Extends == "" {
			continue
		}
		super, ok := registry.Get(c.Extends)
		if !ok {
			return nil, &ParseError{File: f.Path, Line: c.Line, Message: fmt.Sprintf("class %q extends unknown class %q", c.Name, c.Extends)}
		}
		classes[i].Extends(super)
	}

	suites := make([]*runner.Suite, 0, len(f.Classes))
	for i, c := range f.Classes {
		suite := runner.NewSuite(classes[i])
		for _, cmd := range c.Setup {
			suite.Before = append(suite.Before, runner.ShellHook(vars.Resolve(cmd), opts.Shell))
		}
		for _, cmd := range c.Teardown {
			suite.After = append(suite.After, runner.ShellHook(vars.Resolve(cmd), opts.Shell))
		}

		for _, t := range c.Tests {
			methodOpts, err := methodOptions(f, t, registry)
			if err != nil {
				return nil, err
			}
			suite.Add(t.Name, testBody(t, vars.Resolve(t.Command), opts.Shell), methodOpts...)
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

func newClass(c *Class) *params.Class {
	class := params.NewClass(c.Name).WithConstructor(func() (any, error) {
		return &instance{class: c.Name}, nil
	})
	for _, p := range c.Providers {
		rows := p.Rows
		if p.IsStatic() {
			class.Static(p.Name, func() (any, error) { return rows, nil })
			continue
		}
		class.Instance(p.Name, func(any) (any, error) { return rows, nil })
	}
	return class
}

// instance is the receiver handed to non-static providers.
type instance struct {
	class string
}

func methodOptions(f *File, t *Test, registry *params.Registry) ([]params.MethodOption, error) {
	arity := t.Arity
	if arity == 0 {
		arity = runner.Placeholders(t.Command)
	}
	opts := []params.MethodOption{params.WithArity(arity)}

	var p *params.Parameters
	if t.Parameters != nil {
		p = &params.Parameters{Value: t.Parameters.Value, Method: t.Parameters.Method}
		if t.Parameters.Source != "" {
			source, ok := registry.Get(t.Parameters.Source)
			if !ok {
				return nil, &ParseError{File: f.Path, Line: t.Line, Message: fmt.Sprintf("test %q: unknown source class %q", t.Name, t.Parameters.Source)}
			}
			p.Source = source
		}
	}
	var fp *params.FileParameters
	if t.FileParameters != nil {
		fp = &params.FileParameters{Path: suiteRelative(f.Path, t.FileParameters.Path), Mapper: t.FileParameters.Mapper}
	}
	if p != nil || fp != nil {
		opts = append(opts, params.WithAnnotations(p, fp))
	}

	if t.Ignore {
		opts = append(opts, params.Ignore())
	}
	return opts, nil
}

// suiteRelative anchors a relative filesystem reference at the directory of
// the suite file. classpath: and unknown schemes are returned unchanged.
func suiteRelative(suitePath, ref string) string {
	scheme, path, err := params.ParseFileRef(ref)
	if err != nil || scheme == params.SchemeClasspath || suitePath == "" || filepath.IsAbs(path) {
		return ref
	}
	joined := filepath.Join(filepath.Dir(suitePath), path)
	if scheme == params.SchemeFile {
		return scheme + ":" + joined
	}
	return joined
}

func testBody(t *Test, command string, shell runner.ShellOptions) runner.Body {
	if t.AssumeExitCode != 0 {
		shell.AssumeExitCode = t.AssumeExitCode
	}
	body := runner.ShellBody(command, shell)

	if t.Timeout == "" {
		return body
	}
	timeout, _ := time.ParseDuration(t.Timeout)
	return func(ctx context.Context, row params.Row) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return body(ctx, row)
	}
}
