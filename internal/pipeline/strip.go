package pipeline

import (
	"regexp"
	"strings"

	"attendance/internal/lexicon"
	"attendance/internal/util"
)

var (
	// Time removal runs before numeric runs so "7:05" is not left as "7:".
	reTimeToken  = regexp.MustCompile(`(?i)\b[0-2]?\d[:.hli][0-5]\d\b`)
	reNumericRun = regexp.MustCompile(`\d{2,}`)
)

// FieldStripper removes everything that is not part of a person's name.
type FieldStripper struct {
	drop       map[string]struct{}
	separators []string
}

func NewFieldStripper(lex lexicon.Lexicon) *FieldStripper {
	drop := map[string]struct{}{}
	for _, group := range [][]string{lex.Roles, lex.Connectives, lex.AbsenceWords} {
		for _, w := range group {
			if key := util.FoldUpper(w); key != "" {
				drop[key] = struct{}{}
			}
		}
	}
	return &FieldStripper{
		drop:       drop,
		separators: append([]string(nil), lex.ColumnSeparators...),
	}
}

// StripNonName removes time tokens, numeric runs, role words, connectives,
// absence words and tokens with fewer than two letters. An empty result
// means no name could be recovered.
func (s *FieldStripper) StripNonName(line string) string {
	line = reTimeToken.ReplaceAllString(line, " ")
	line = reNumericRun.ReplaceAllString(line, " ")

	kept := make([]string, 0, 4)
	for _, tok := range strings.Fields(line) {
		if util.LetterCount(tok) < 2 {
			continue
		}
		if _, ok := s.drop[util.FoldUpper(tok)]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// Columns splits a raw line on the table separators OCR leaves behind and
// returns the non-blank segments in order. A line without separators is a
// single segment.
func (s *FieldStripper) Columns(raw string) []string {
	parts := []string{raw}
	for _, sep := range s.separators {
		if sep == "" {
			continue
		}
		next := make([]string, 0, len(parts))
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
