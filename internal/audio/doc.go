// Package audio holds the output format registry and the runtime capability
// validator that asks the engine which formats it can actually encode.
package audio
