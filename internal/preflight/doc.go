// Package preflight provides readiness checks for the filesystem paths,
// external binaries and media-engine elements cdrip depends on.
//
// These checks run in two contexts:
//   - The rip command calls Ready before touching the drive. If anything
//     fails the rip is refused rather than producing a batch of failures.
//   - The "cdrip doctor" command renders every individual check.
package preflight
