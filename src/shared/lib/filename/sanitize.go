package filename

import (
	"path/filepath"
	"strings"
)

const replacement = '_'

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}

	return strings.ContainsRune(" -_.()%", r)
}

// Sanitize maps an arbitrary display string onto a single safe path segment.
// Every rune outside ASCII letters, digits, space and -_.()% becomes an
// underscore, then surrounding spaces are trimmed. Distinct inputs can map
// to the same output.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		if isSafe(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(replacement)
		}
	}

	return strings.Trim(b.String(), " ")
}

// Stem returns the base name of a path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
