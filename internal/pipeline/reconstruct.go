package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"attendance/internal"
	"attendance/internal/lexicon"
	"attendance/internal/util"
)

const (
	maxNameTokens   = 4
	minSuffixLetter = 3
	maxSuffixLetter = 12
	minRunLetters   = 3
)

// NameReconstructor splits names that OCR glued together when a column gap
// collapsed. It prefers leaving a name unsplit over inventing a boundary.
type NameReconstructor struct {
	// Upper-cased, accent-folded, longest first.
	givenNames []string
}

func NewNameReconstructor(lex lexicon.Lexicon) *NameReconstructor {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(lex.GivenNames))
	for _, n := range lex.GivenNames {
		key := util.FoldUpper(n)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, key)
	}
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return &NameReconstructor{givenNames: names}
}

// Reconstruct returns at most four title-cased tokens, or "Unknown" for an
// empty span.
func (r *NameReconstructor) Reconstruct(span string) string {
	tokens := strings.Fields(span)
	if len(tokens) == 0 {
		return internal.UnknownName
	}
	if len(tokens) == 1 {
		if parts := r.split(tokens[0]); len(parts) > 1 {
			tokens = parts
		}
	}
	if len(tokens) > maxNameTokens {
		tokens = tokens[:maxNameTokens]
	}
	for i, t := range tokens {
		tokens[i] = util.TitleWord(t)
	}
	return strings.Join(tokens, " ")
}

func (r *NameReconstructor) split(token string) []string {
	upper := util.FoldUpper(token)
	first := r.longestPrefix(upper, true)
	if first == "" {
		return splitAtCaseTransition(token)
	}

	rest := upper[len(first):]
	if second := r.longestPrefix(rest, false); second != "" {
		leftover := rest[len(second):]
		switch {
		case leftover == "":
			return []string{first, second}
		case inSuffixRange(leftover):
			return []string{first, second, leftover}
		default:
			return []string{first, rest}
		}
	}
	if inSuffixRange(rest) {
		return []string{first, rest}
	}
	return []string{token}
}

// longestPrefix finds the longest dictionary name that starts s. With
// needRest the match must leave at least one letter behind.
func (r *NameReconstructor) longestPrefix(s string, needRest bool) string {
	for _, name := range r.givenNames {
		if !strings.HasPrefix(s, name) {
			continue
		}
		if needRest && len(name) == len(s) {
			continue
		}
		return name
	}
	return ""
}

func inSuffixRange(s string) bool {
	n := util.LetterCount(s)
	return n >= minSuffixLetter && n <= maxSuffixLetter && n == len([]rune(s))
}

// splitAtCaseTransition splits "JoseSilva" style tokens at the first
// lower-to-upper transition that leaves three letters on each side.
func splitAtCaseTransition(token string) []string {
	rs := []rune(token)
	for i := minRunLetters; i <= len(rs)-minRunLetters; i++ {
		if !unicode.IsLower(rs[i-1]) || !unicode.IsUpper(rs[i]) {
			continue
		}
		left, right := rs[:i], rs[i:]
		if allLetters(left) && allLetters(right) {
			return []string{string(left), string(right)}
		}
	}
	return []string{token}
}

func allLetters(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
