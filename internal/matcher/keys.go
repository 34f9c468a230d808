package matcher

import (
	"regexp"
	"strings"
)

var nonLetters = regexp.MustCompile(`[^a-z]+`)

// NormalizeKey reduces an identifier or statement reference to its matching
// key: lowercased with everything outside a-z stripped. Matching is therefore
// case-insensitive and ignores spacing, digits and punctuation, which is what
// makes bank-mangled references ("FP JOHN SMITH GIVING 01JAN") still contain
// the declaration's identifier ("FP John Smith Giving").
func NormalizeKey(s string) string {
	return nonLetters.ReplaceAllString(strings.ToLower(s), "")
}
