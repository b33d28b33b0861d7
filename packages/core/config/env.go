package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv
const (
	EnvParameters  = "parameters"
	EnvRetryCount  = "RETRY_COUNT"
	EnvFlat        = "ROWSPEC_FLAT"
	EnvResourceDir = "ROWSPEC_RESOURCE_DIR"
)

// LookupFunc looks up one environment value
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// LoadDotEnv reads a .env file without exporting it to the process
// environment. The returned lookup consults the process environment first.
func LoadDotEnv(path string) (LookupFunc, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// ApplyEnv returns a copy of c with environment overrides applied. Values
// already set in c win over the environment, except RETRY_COUNT which is kept
// apart in RetryEnv so the retry policy can rank it.
func (c *Config) ApplyEnv(lookup LookupFunc) *Config {
	if lookup == nil {
		lookup = OSLookup
	}
	result := *c

	if v, ok := lookup(EnvParameters); ok && result.Parameters == "" {
		result.Parameters = v
	}
	if v, ok := lookup(EnvRetryCount); ok {
		result.RetryEnv = v
	}
	if v, ok := lookup(EnvFlat); ok && v != "" && (c.Flat == nil || !*c.Flat) {
		result.Flat = BoolPtr(parseBool(v))
	}
	if v, ok := lookup(EnvResourceDir); ok && result.ResourceDir == "" {
		result.ResourceDir = v
	}

	return &result
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}
