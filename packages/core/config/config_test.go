package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestResolveRetryPolicy(t *testing.T) {
	tests := []struct {
		name     string
		retry    string
		retryEnv string
		expected int
		warns    bool
	}{
		{"default", "", "", DefaultRetryCount, false},
		{"explicit override", "5", "", 5, false},
		{"environment", "", "3", 3, false},
		{"explicit beats environment", "1", "4", 1, false},
		{"zero retries", "0", "", 0, false},
		{"non-numeric override keeps default", "many", "4", DefaultRetryCount, true},
		{"non-numeric environment keeps default", "", "x", DefaultRetryCount, true},
		{"negative keeps default", "-3", "", DefaultRetryCount, true},
		{"surrounding spaces", " 7 ", "", 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			policy := ResolveRetryPolicy(&Config{Retry: tt.retry, RetryEnv: tt.retryEnv}, logger)

			assert.Equal(t, tt.expected, policy.Count)
			assert.Equal(t, tt.expected+1, policy.Attempts())
			if tt.warns {
				assert.Contains(t, buf.String(), "level=WARN")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		assert.Equal(t, DefaultRetryCount, ResolveRetryPolicy(nil, nil).Count)
	})

	t.Run("delay", func(t *testing.T) {
		policy := ResolveRetryPolicy(&Config{RetryDelay: 250}, nil)
		assert.Equal(t, 250*time.Millisecond, policy.Delay)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment fills unset values", func(t *testing.T) {
		cfg := DefaultConfig().ApplyEnv(mapLookup(map[string]string{
			EnvParameters:  "1;2",
			EnvRetryCount:  "4",
			EnvFlat:        "true",
			EnvResourceDir: "testdata",
		}))

		assert.Equal(t, "1;2", cfg.Parameters)
		assert.Equal(t, "4", cfg.RetryEnv)
		assert.Empty(t, cfg.Retry)
		assert.True(t, cfg.GetFlat())
		assert.Equal(t, "testdata", cfg.ResourceDir)
	})

	t.Run("explicit values win", func(t *testing.T) {
		base := DefaultConfig()
		base.Parameters = "a"
		base.ResourceDir = "res"

		cfg := base.ApplyEnv(mapLookup(map[string]string{EnvParameters: "b", EnvResourceDir: "other"}))

		assert.Equal(t, "a", cfg.Parameters)
		assert.Equal(t, "res", cfg.ResourceDir)
	})

	t.Run("does not modify receiver", func(t *testing.T) {
		base := DefaultConfig()
		_ = base.ApplyEnv(mapLookup(map[string]string{EnvParameters: "x"}))
		assert.Empty(t, base.Parameters)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROWSPEC_TEST_ONLY_KEY=from-file\n# comment\nQUOTED=\"a b\"\n"), 0644))

	lookup, err := LoadDotEnv(path)
	require.NoError(t, err)

	v, ok := lookup("ROWSPEC_TEST_ONLY_KEY")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	v, ok = lookup("QUOTED")
	assert.True(t, ok)
	assert.Equal(t, "a b", v)

	_, ok = lookup("ROWSPEC_MISSING_KEY")
	assert.False(t, ok)

	t.Run("process environment wins", func(t *testing.T) {
		t.Setenv("ROWSPEC_TEST_ONLY_KEY", "from-env")
		v, _ := lookup("ROWSPEC_TEST_ONLY_KEY")
		assert.Equal(t, "from-env", v)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDotEnv(filepath.Join(dir, "nope.env"))
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		dir := t.TempDir()
		content := "parameters: \"1;2\"\nretry: \"3\"\nflat: true\nreporters: [junit]\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".rowspec.yaml"), []byte(content), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "1;2", cfg.Parameters)
		assert.Equal(t, "3", cfg.Retry)
		assert.True(t, cfg.GetFlat())
		assert.Equal(t, []string{"junit"}, cfg.Reporters)
		assert.Equal(t, DefaultAssumeExitCode, cfg.AssumeExitCode)
	})

	t.Run("json file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rowspec.config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"retry": "0", "history": "runs.db"}`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "0", cfg.Retry)
		assert.Equal(t, "runs.db", cfg.History)
	})

	t.Run("json numeric retry", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rowspec.config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"retry": 3, "flat": true}`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "3", cfg.Retry)
		assert.True(t, cfg.GetFlat())
		assert.Equal(t, []string{"console"}, cfg.Reporters)
		assert.Equal(t, 3, ResolveRetryPolicy(cfg, nil).Count)
	})

	t.Run("json non-numeric retry falls back", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rowspec.config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"retry": true}`), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "true", cfg.Retry)
		assert.Equal(t, DefaultRetryCount, ResolveRetryPolicy(cfg, nil).Count)
	})

	t.Run("json object retry is rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rowspec.config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"retry": {"count": 3}}`), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("yaml unquoted retry", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".rowspec.yaml"), []byte("retry: 4\n"), 0644))

		cfg, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "4", cfg.Retry)
		assert.Equal(t, 4, ResolveRetryPolicy(cfg, nil).Count)
	})

	t.Run("no file returns defaults", func(t *testing.T) {
		cfg, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, cfg.IsDefault())
	})

	t.Run("invalid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("save and reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "saved.yaml")
		cfg := DefaultConfig()
		cfg.Retry = "4"
		require.NoError(t, cfg.SaveConfig(path))

		loaded, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "4", loaded.Retry)
	})
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	merged := base.Merge(&Config{Retry: "1", Flat: BoolPtr(true), Reporters: []string{"tap"}})

	assert.Equal(t, "1", merged.Retry)
	assert.True(t, merged.GetFlat())
	assert.Equal(t, []string{"tap"}, merged.Reporters)
	assert.Equal(t, DefaultShell, merged.Shell)
	assert.Empty(t, base.Retry)
	assert.Same(t, base, base.Merge(nil))
}
