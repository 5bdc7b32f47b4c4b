// Package services defines shared utilities consumed by the pipeline builders
// and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, track numbers, stage names, and
//     pipeline job identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag every graph
//     failure with its category (unsupported format, engine construction,
//     link, runtime fault, precondition).
//
// Use these helpers when wiring new graph code so failures stay classifiable
// with errors.Is all the way up to the batch report.
package services
