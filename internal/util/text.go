package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`\s+`)

// FoldAccents decomposes s and drops combining marks (JOSÉ -> JOSE).
// A fresh chain is built per call because transform chains carry state.
func FoldAccents(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldUpper is the comparison key used for vocabulary lookups.
func FoldUpper(s string) string {
	return strings.ToUpper(FoldAccents(strings.TrimSpace(s)))
}

func CollapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func LetterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// TitleWord upper-cases the first letter and lower-cases the rest.
func TitleWord(w string) string {
	rs := []rune(strings.ToLower(w))
	for i, r := range rs {
		if unicode.IsLetter(r) {
			rs[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(rs)
}

func TitleCase(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		parts[i] = TitleWord(p)
	}
	return strings.Join(parts, " ")
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func DerefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
