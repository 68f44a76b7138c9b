package logger

import (
	"fmt"
	"strings"
	"unicode"
)

var controlEscapes = map[rune]string{
	'\n':   `\n`,
	'\r':   `\r`,
	'\t':   `\t`,
	'\x00': `\x00`,
}

// SanitizeForLog escapes control characters in job names, paths and error
// text coming from callers so one log call stays one log line. Printable
// Unicode is kept as is.
func SanitizeForLog(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch {
		case controlEscapes[r] != "":
			b.WriteString(controlEscapes[r])
		case isControl(r):
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x80 && unicode.IsControl(r)
}
