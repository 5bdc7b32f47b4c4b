// Package metadata defines the album and track descriptions the ripper
// consumes, plus a TOML manifest format for supplying them by hand.
package metadata
