// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. It provides type-safe
// access to the settings needed by the server, stores, session handling,
// avatar storage, mail delivery and the background job pool.
package config
