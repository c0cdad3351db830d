// Package config defines the engine configuration, loaded from YAML
// with defaults applied, MIZAN_* environment variable overrides, and
// validation before anything starts.
package config
