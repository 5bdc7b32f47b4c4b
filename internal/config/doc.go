// Package config loads, normalizes, and validates cdrip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CDRIP_DEVICE. The Config type centralizes every knob the CLI and the graph
// builders need: output and state directories, the element classes used for
// ripping and playback, playback buffering bounds, and history/notification
// toggles.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
