// Package logs reads the cdrip log file for the `cdrip logs` command.
//
// Last returns the trailing lines with bounded memory, and Follow polls for
// appended lines until its context ends. A file that shrinks (rotation or
// truncation) is read again from the start.
package logs
