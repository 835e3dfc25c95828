// Package sanitize cleans user-supplied text before it is stored with a run
// or echoed back to a terminal. It strips control characters and markup
// while preserving the readable content.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLabelLength is the maximum allowed length for a run label.
const MaxLabelLength = 80

// MaxRefLength bounds a run reference; a full run ID is 36 characters.
const MaxRefLength = 36

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reWhitespace matches runs of whitespace, including newlines and tabs.
	reWhitespace = regexp.MustCompile(`\s+`)

	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// Label sanitizes a run label for storage and single-line display.
//
// The pipeline runs in this order:
//  1. Strip ASCII control characters and DEL
//  2. Strip XML/HTML tags
//  3. Collapse whitespace runs to a single space
//  4. Trim leading/trailing whitespace
//  5. Truncate to MaxLabelLength runes
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > MaxLabelLength {
		s = strings.TrimSpace(string(r[:MaxLabelLength]))
	}
	return s
}

// Ref sanitizes a run reference (a full run ID or a prefix of one), keeping
// only lowercase hex digits and single hyphens.
func Ref(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || r == '-' {
			b.WriteRune(r)
		}
	}
	s := reRepeatedHyphens.ReplaceAllString(b.String(), "-")

	if len(s) > MaxRefLength {
		s = s[:MaxRefLength]
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F) and DEL.
// Newlines and tabs are kept for the whitespace pass to collapse.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
