// Package sanitize cleans free text typed by anonymous users before it is
// stored and shown to operators.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Text strips markup and control characters and trims surrounding space.
// Entities are decoded once and the result stripped again, so encoded tags
// do not survive.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = html.UnescapeString(out)
	out = tagPattern.ReplaceAllString(out, "")
	out = strings.Map(dropControl, out)
	return strings.TrimSpace(out)
}

func dropControl(r rune) rune {
	if r == '\n' || r == '\t' {
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
