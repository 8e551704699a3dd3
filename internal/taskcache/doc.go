// Package taskcache keeps a local SQLite mirror of task snapshots fetched
// from the service. It lets the CLI show recent tasks without a network
// round trip and remembers tasks the server has since expired.
package taskcache
