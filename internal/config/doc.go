// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, and SCRY_* environment variables.
// It provides type-safe access to server, database, and selection settings
// while keeping configuration details separate from business logic.
package config
