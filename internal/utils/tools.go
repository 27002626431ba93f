package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases the value and collapses it into a dash-separated slug.
// Unicode letters and digits are kept, everything else becomes a separator.
func Slugify(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	pendingDash := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingDash = false
			builder.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}
	}
	return builder.String()
}
