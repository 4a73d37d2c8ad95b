// Package config handles configuration loading and management for fetchagent.
//
// It provides functionality for:
//   - Loading configuration from .fetchagent.json or .fetchagent.yaml files
//   - Default configuration values
//   - Merging file settings with command-line overrides
//   - Translating settings into relay options
package config
