package textutil

import "github.com/dustin/go-humanize"

// Count renders n with thousands separators followed by the noun form that
// agrees with it, e.g. "1 file" or "1,204 files".
func Count(n int, singular, plural string) string {
	noun := plural
	if n == 1 {
		noun = singular
	}
	return humanize.Comma(int64(n)) + " " + noun
}
