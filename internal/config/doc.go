// Package config loads and validates the TOML configuration for the
// MediaCraft client: server connection settings, upload limits, polling
// intervals, notification topics, and local state/log directories.
package config
