package pipeline

import (
	"strings"
	"unicode"

	"attendance/internal/lexicon"
	"attendance/internal/util"
)

// MarkTally counts isolated presence and absence marks over a whole sheet.
// It serves sheets filled with ticks instead of clock punches.
type MarkTally struct {
	Present   int            `json:"present"`
	Absent    int            `json:"absent"`
	RawCounts map[string]int `json:"rawCounts"`
}

// CountMarks only counts whole tokens, so the X in "ALEX" is not a mark.
func CountMarks(text string, lex lexicon.Lexicon) MarkTally {
	out := MarkTally{RawCounts: map[string]int{}}
	if strings.TrimSpace(text) == "" {
		return out
	}

	presence := foldSet(lex.PresenceMarks)
	absence := foldSet(append([]string{lex.AbsenceSentinel}, lex.AbsenceWords...))

	for _, tok := range markTokens(util.FoldUpper(text)) {
		_, isPresent := presence[tok]
		_, isAbsent := absence[tok]
		switch {
		case isPresent:
			out.Present++
		case isAbsent:
			out.Absent++
		default:
			continue
		}
		out.RawCounts[tok]++
	}
	return out
}

func foldSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if key := util.FoldUpper(w); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// markTokens splits on anything that is not a letter or digit. Symbols such
// as check marks are tokens of their own, so "✓✓" counts twice.
func markTokens(s string) []string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.Is(unicode.So, r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
