package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the rowspec configuration
type Config struct {
	Parameters     string   `json:"parameters,omitempty" yaml:"parameters,omitempty"`   // Run-wide ';' separated row override
	Retry          string   `json:"retry,omitempty" yaml:"retry,omitempty"`             // Explicit retry count override
	RetryDelay     int      `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"`   // milliseconds
	Flat           *bool    `json:"flat,omitempty" yaml:"flat,omitempty"`               // Report rows against the method node
	ResourceDir    string   `json:"resourceDir,omitempty" yaml:"resourceDir,omitempty"` // Root of classpath: references
	Reporters      []string `json:"reporters,omitempty" yaml:"reporters,omitempty"`
	OutputFile     string   `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
	History        string   `json:"history,omitempty" yaml:"history,omitempty"` // sqlite file recording invocations
	AssumeExitCode int      `json:"assumeExitCode,omitempty" yaml:"assumeExitCode,omitempty"`
	Shell          string   `json:"shell,omitempty" yaml:"shell,omitempty"`
	Verbose        *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor        *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`

	// RetryEnv holds the RETRY_COUNT environment value. It ranks below Retry.
	RetryEnv string `json:"-" yaml:"-"`
}

// UnmarshalJSON accepts retry as either a JSON number or a string. Any other
// scalar is kept as text so ResolveRetryPolicy can warn and fall back.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		Retry json.RawMessage `json:"retry,omitempty"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.Retry)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &c.Retry); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
	case raw[0] == '{' || raw[0] == '[':
		return fmt.Errorf("retry: expected a number or string, got %s", raw)
	default:
		c.Retry = string(raw)
	}
	return nil
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFlat returns the flat reporting setting, defaulting to false
func (c *Config) GetFlat() bool {
	return getBool(c.Flat, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".rowspec.yaml",
	".rowspec.yml",
	"rowspec.config.json",
	".rowspecrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. The format
// follows the extension: .json is JSON, anything else is YAML.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Parameters != "" {
		result.Parameters = other.Parameters
	}
	if other.Retry != "" {
		result.Retry = other.Retry
	}
	if other.RetryEnv != "" {
		result.RetryEnv = other.RetryEnv
	}
	if other.RetryDelay > 0 {
		result.RetryDelay = other.RetryDelay
	}
	if other.ResourceDir != "" {
		result.ResourceDir = other.ResourceDir
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.History != "" {
		result.History = other.History
	}
	if other.AssumeExitCode > 0 {
		result.AssumeExitCode = other.AssumeExitCode
	}
	if other.Shell != "" {
		result.Shell = other.Shell
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Flat != nil {
		result.Flat = other.Flat
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}

	return &result
}

// SaveConfig saves the configuration to a file, as JSON for .json paths and
// YAML otherwise
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
