package textutil

import "strings"

// PathHostileChars lists the characters SanitizeFileName replaces.
const PathHostileChars = `/\:*?"<>|`

// fileNameReplacer maps every path-hostile character to an underscore.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeFileName replaces each path-hostile character with an underscore.
// Everything else, including surrounding whitespace, is left untouched so
// names without hostile characters pass through unchanged.
func SanitizeFileName(name string) string {
	return fileNameReplacer.Replace(name)
}
