// Package notifications publishes rip milestones to ntfy. Without a topic in
// config.toml the service is a no-op, so callers never need to check.
package notifications
