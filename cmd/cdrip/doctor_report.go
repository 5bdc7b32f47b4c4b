package main

import (
	"fmt"
	"io"
	"strings"
)

type verdict int

const (
	verdictPass verdict = iota
	// verdictNote flags something missing that cdrip can run without.
	verdictNote
	verdictFail
)

const sgrReset = "\x1b[0m"

var verdictStyles = [...]struct{ tag, sgr string }{
	verdictPass: {"ok", "\x1b[32m"},
	verdictNote: {"warn", "\x1b[33m"},
	verdictFail: {"FAIL", "\x1b[1;31m"},
}

// checkReport writes doctor results grouped under headings and counts the
// required checks that failed.
type checkReport struct {
	out      io.Writer
	color    bool
	nameCol  int
	failures int
}

func newCheckReport(out io.Writer) *checkReport {
	return &checkReport{out: out, color: isTerminal(out), nameCol: 20}
}

func (r *checkReport) heading(title string) {
	fmt.Fprintf(r.out, "\n%s\n", r.paint("\x1b[1m", strings.TrimSpace(title)))
}

func (r *checkReport) line(v verdict, name, detail string) {
	if v == verdictFail {
		r.failures++
	}
	style := verdictStyles[v]
	row := fmt.Sprintf("  %s  %-*s %s", r.paint(style.sgr, fmt.Sprintf("%-4s", style.tag)), r.nameCol, name, detail)
	fmt.Fprintln(r.out, strings.TrimRight(row, " "))
}

func (r *checkReport) paint(sgr, s string) string {
	if !r.color {
		return s
	}
	return sgr + s + sgrReset
}

// result turns the failure tally into the command's exit error.
func (r *checkReport) result() error {
	if r.failures > 0 {
		return fmt.Errorf("%d required check(s) failed", r.failures)
	}
	fmt.Fprintln(r.out, "\nAll required checks passed")
	return nil
}
