// Package notifications delivers task outcome alerts via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled, so callers never guard their notification calls.
//
// Extend this package if you need alternative transports; all callers
// depend only on the simple Service interface.
package notifications
