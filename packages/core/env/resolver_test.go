package env

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		variables map[string]any
		env       map[string]string
		expected  string
	}{
		{
			name:     "no variables",
			input:    "echo hello",
			expected: "echo hello",
		},
		{
			name:      "suite variable",
			input:     "curl {{host}}/health",
			variables: map[string]any{"host": "localhost:8080"},
			expected:  "curl localhost:8080/health",
		},
		{
			name:      "non-string variable",
			input:     "sleep {{delay}}",
			variables: map[string]any{"delay": 2},
			expected:  "sleep 2",
		},
		{
			name:     "process environment",
			input:    "echo {{$HOME}}",
			env:      map[string]string{"HOME": "/home/test"},
			expected: "echo /home/test",
		},
		{
			name:     "unresolved kept",
			input:    "echo {{missing}} {{$NOPE}}",
			expected: "echo {{missing}} {{$NOPE}}",
		},
		{
			name:      "row placeholders untouched",
			input:     "test {{0}} -eq {{ 1 }} # {{bin}}",
			variables: map[string]any{"bin": "expr", "0": "zero"},
			expected:  "test {{0}} -eq {{ 1 }} # expr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(lookupFrom(tt.env))
			r.SetVariables(tt.variables)
			assert.Equal(t, tt.expected, r.Resolve(tt.input))
		})
	}
}

func TestResolveWarns(t *testing.T) {
	var warnings []string
	r := NewResolver(nil)
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	r.Resolve("{{a}} {{$B}} {{2}}")
	assert.Equal(t, []string{"unresolved variable: a", "unresolved environment variable: $B"}, warnings)
}

func TestUnresolved(t *testing.T) {
	r := NewResolver(nil)
	r.SetVariable("known", "x")
	assert.Equal(t, []string{"unknown", "$HOME"}, r.Unresolved("{{known}} {{unknown}} {{0}} {{$HOME}}"))
	assert.Empty(t, r.Unresolved("{{known}} {{1}}"))
}

func TestClone(t *testing.T) {
	r := NewResolver(nil)
	r.SetVariable("a", 1)

	clone := r.Clone()
	clone.SetVariable("a", 2)
	clone.SetVariable("b", 3)

	v, _ := r.GetVariable("a")
	assert.Equal(t, 1, v)
	_, ok := r.GetVariable("b")
	assert.False(t, ok)
}

func TestLoadEnvironment(t *testing.T) {
	envs := map[string]map[string]any{
		"ci": {"host": "ci.local"},
	}

	e, err := LoadEnvironment("ci", envs)
	require.NoError(t, err)
	assert.Equal(t, "ci.local", e.Variables["host"])

	e, err = LoadEnvironment("", envs)
	require.NoError(t, err)
	assert.Empty(t, e.Variables)

	_, err = LoadEnvironment("prod", envs)
	assert.Error(t, err)
}

func TestMergeVariables(t *testing.T) {
	merged := MergeVariables(
		map[string]any{"a": 1, "b": 1},
		map[string]any{"b": 2},
		nil,
	)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, merged)
}
