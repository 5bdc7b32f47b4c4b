// Package history records transcode batches and per-track outcomes in a local
// SQLite database so `cdrip history` can show what was ripped, when, and which
// tracks failed.
package history
