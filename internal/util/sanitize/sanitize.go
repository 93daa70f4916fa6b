// Package sanitize cleans user-supplied names before they are sent to the DMS.
//
// It removes problematic characters from folder and file names:
//   - Invisible Unicode characters (zero-width spaces, etc.)
//   - Line breaks and runs of whitespace
//   - Characters that are reserved in DMS node names
package sanitize

import (
	"regexp"
	"strings"
)

// ReservedChars are rejected by both DMS variants in node names.
const ReservedChars = `<>:"|?*/\`

var whitespaceRun = regexp.MustCompile(`\s+`)

// Name trims a folder or file name, drops invisible characters and collapses
// whitespace (including line breaks) into single spaces.
func Name(name string) string {
	if name == "" {
		return name
	}
	name = removeInvisibleChars(name)
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// FileName cleans name like Name and replaces every reserved character with
// an underscore, so the result is safe as an upload file name.
func FileName(name string) string {
	name = Name(name)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(ReservedChars, r) || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}

// HasReserved reports whether name contains a reserved character.
func HasReserved(name string) bool {
	return strings.ContainsAny(name, ReservedChars)
}

// removeInvisibleChars removes zero-width and other invisible Unicode characters
func removeInvisibleChars(s string) string {
	invisibleChars := []string{
		"\u200B", // Zero-width space
		"\u200C", // Zero-width non-joiner
		"\u200D", // Zero-width joiner
		"\uFEFF", // Zero-width no-break space (BOM)
		"\u00AD", // Soft hyphen
		"\u2060", // Word joiner
		"\u180E", // Mongolian vowel separator
	}

	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}

	return s
}
