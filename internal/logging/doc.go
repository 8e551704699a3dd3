// Package logging builds the slog loggers used across the client: a compact
// console handler for interactive use, a JSON handler for log files, and
// attribute helpers that keep field names consistent between components.
package logging
