package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", DefaultLevel},
		{"verbose", DefaultLevel},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LevelFromString(tc.input))
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: slog.LevelInfo})
	require.NotNil(t, logger)

	logger.Debug("hidden")
	logger.Warn("method gets empty list of parameters", "method", "testIt")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "method gets empty list of parameters")
	assert.Contains(t, out, "method=testIt")
	assert.NotContains(t, out, "\x1b[", "non-terminal writers get no color")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("dropped")
	assert.False(t, logger.Enabled(t.Context(), slog.LevelError))
}
