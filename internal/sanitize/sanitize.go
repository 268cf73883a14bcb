// Package sanitize cleans user-supplied text before it reaches the file
// system or the terminal. Input spec names become stats file names and
// stored labels are echoed by the display and the ltm commands.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameLength bounds the stem returned by FileName.
const MaxFileNameLength = 120

// MaxLabelLength bounds the text returned by Label, in runes.
const MaxLabelLength = 200

var (
	// reRepeatedUnderscores matches 2 or more consecutive underscores.
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)

	// reWhitespace matches any run of whitespace.
	reWhitespace = regexp.MustCompile(`\s+`)
)

// FileName turns name into a single path element. Letters, digits, '-',
// '_' and '.' are kept, everything else becomes '_'. Runs of underscores
// collapse to one and leading dots are dropped so the result is never
// hidden or a parent reference. An empty result becomes "unnamed".
func FileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	s := reRepeatedUnderscores.ReplaceAllString(b.String(), "_")
	s = strings.TrimLeft(s, ".")
	if len(s) > MaxFileNameLength {
		s = s[:MaxFileNameLength]
	}
	if s == "" || s == "_" {
		return "unnamed"
	}
	return s
}

// Label makes text safe to print on one terminal line. Control characters
// (including escape sequences' ESC) are removed, whitespace runs collapse
// to a single space, and the result is truncated to MaxLabelLength runes
// with a trailing "...".
func Label(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case unicode.IsControl(r), r == utf8.RuneError:
			continue
		default:
			b.WriteRune(r)
		}
	}

	s := strings.TrimSpace(reWhitespace.ReplaceAllString(b.String(), " "))
	if utf8.RuneCountInString(s) > MaxLabelLength {
		runes := []rune(s)
		s = string(runes[:MaxLabelLength]) + "..."
	}
	return s
}
