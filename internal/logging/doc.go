// Package logging assembles the slog loggers used by cdrip.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the batch, track, stage and
// pipeline job a message belongs to. NewNop gives tests and optional wiring a
// logger that discards everything.
package logging
