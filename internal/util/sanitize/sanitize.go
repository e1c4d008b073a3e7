// Package sanitize turns user-supplied identifiers into names that are safe
// to use as a single filesystem path element on every supported platform.
//
// It removes problematic characters:
//   - Invisible Unicode characters (zero-width spaces, BOM, etc.)
//   - Path separators, reserved Windows characters and control characters
//   - Leading dots (hidden files, "." and "..")
package sanitize

import (
	"strings"
	"unicode"
)

// invisibleChars are stripped before any other processing.
var invisibleChars = []string{
	"\u200B", // Zero-width space
	"\u200C", // Zero-width non-joiner
	"\u200D", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"\u00AD", // Soft hyphen
	"\u2060", // Word joiner
	"\u180E", // Mongolian vowel separator
}

// RemoveInvisibleChars removes zero-width and other invisible Unicode characters
func RemoveInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}

// FileName maps s onto [A-Za-z0-9._-], replacing every other rune with '_'.
// Leading dots and surrounding whitespace are dropped. The result may be
// empty when s has no usable characters.
func FileName(s string) string {
	s = strings.TrimSpace(RemoveInvisibleChars(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return strings.TrimLeft(b.String(), ".")
}
