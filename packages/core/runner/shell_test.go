package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		row      params.Row
		expected string
	}{
		{"single", "echo {{0}}", params.Row{"hi"}, "echo hi"},
		{"several with spaces", "test {{ 0 }} -lt {{1}}", params.Row{1, 2}, "test 1 -lt 2"},
		{"repeated", "{{0}}{{0}}", params.Row{"a"}, "aa"},
		{"out of range kept", "echo {{3}}", params.Row{"x"}, "echo {{3}}"},
		{"nil value", "echo [{{0}}]", params.Row{nil}, "echo []"},
		{"no placeholders", "true", nil, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.template, tt.row))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, 0, Placeholders("true"))
	assert.Equal(t, 1, Placeholders("echo {{0}} {{0}}"))
	assert.Equal(t, 3, Placeholders("test $(expr {{0}} + {{ 1 }}) -eq {{2}}"))
	assert.Equal(t, 5, Placeholders("echo {{4}}"))
}

func TestShellBody(t *testing.T) {
	ctx := context.Background()

	t.Run("zero exit passes", func(t *testing.T) {
		var out bytes.Buffer
		body := ShellBody("echo {{0}}", ShellOptions{Output: &out})
		require.NoError(t, body(ctx, params.Row{"hello"}))
		assert.Equal(t, "hello\n", out.String())
	})

	t.Run("non-zero exit fails", func(t *testing.T) {
		err := ShellBody("test {{0}} -eq {{1}}", ShellOptions{})(ctx, params.Row{1, 2})
		require.Error(t, err)
		assert.False(t, IsAssumption(err))
		assert.Contains(t, err.Error(), "test 1 -eq 2")
	})

	t.Run("assume exit code is an assumption failure", func(t *testing.T) {
		err := ShellBody("exit 75", ShellOptions{AssumeExitCode: 75})(ctx, nil)
		require.Error(t, err)
		assert.True(t, IsAssumption(err))
	})

	t.Run("assume exit code disabled", func(t *testing.T) {
		err := ShellBody("exit 75", ShellOptions{})(ctx, nil)
		require.Error(t, err)
		assert.False(t, IsAssumption(err))
	})

	t.Run("empty command is a no-op", func(t *testing.T) {
		assert.NoError(t, ShellBody("   ", ShellOptions{})(ctx, nil))
	})

	t.Run("environment and directory", func(t *testing.T) {
		dir := t.TempDir()
		var out bytes.Buffer
		body := ShellBody(`echo "$ROWSPEC_VALUE" && pwd`, ShellOptions{Dir: dir, Env: []string{"ROWSPEC_VALUE=42"}, Output: &out})
		require.NoError(t, body(ctx, nil))
		assert.Contains(t, out.String(), "42")
	})
}
