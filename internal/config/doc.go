// Package config loads and validates service configuration from defaults,
// an optional YAML file and CADENCE_* environment variables.
package config
