// Package config handles configuration loading and management for rowspec.
//
// It provides functionality for:
//   - Loading configuration from .rowspec.yaml or rowspec.config.json files
//   - Default configuration values
//   - Environment and .env overrides (parameters, RETRY_COUNT)
//   - Resolving the retry policy of a run
package config
