package pipeline

import (
	"strings"
	"unicode"

	"attendance/internal"
	"attendance/internal/config"
	"attendance/internal/lexicon"
	"attendance/internal/util"
)

type Precedence int

const (
	// TimeFirst: any time punch makes the line present.
	TimeFirst Precedence = iota
	// AbsenceFirst: any absence evidence makes the line absent.
	AbsenceFirst
)

func PrecedenceFromConfig(name string) Precedence {
	if strings.EqualFold(strings.TrimSpace(name), config.PrecedenceAbsenceFirst) {
		return AbsenceFirst
	}
	return TimeFirst
}

type Classification struct {
	Status        internal.Status
	Punches       internal.Punches
	HasTime       bool
	HasAbsentMark bool
}

type LineClassifier struct {
	precedence   Precedence
	sentinel     string
	absenceWords map[string]struct{}
	separators   *strings.Replacer
}

func NewLineClassifier(lex lexicon.Lexicon, precedence Precedence) *LineClassifier {
	words := map[string]struct{}{}
	for _, w := range lex.AbsenceWords {
		if key := util.FoldUpper(w); key != "" {
			words[key] = struct{}{}
		}
	}
	pairs := make([]string, 0, 2*len(lex.ColumnSeparators))
	for _, sep := range lex.ColumnSeparators {
		if sep != "" {
			pairs = append(pairs, sep, " ")
		}
	}
	return &LineClassifier{
		precedence:   precedence,
		sentinel:     util.FoldUpper(lex.AbsenceSentinel),
		absenceWords: words,
		separators:   strings.NewReplacer(pairs...),
	}
}

// Classify scans the tokens of a line for time punches and absence marks.
// The first four punches (times or the absence sentinel) fill the slots in
// reading order.
func (c *LineClassifier) Classify(line string) Classification {
	var out Classification
	slot := 0
	for _, tok := range strings.Fields(c.separators.Replace(line)) {
		tok = trimEdges(util.FoldUpper(tok))
		if tok == "" {
			continue
		}
		if clock, ok := util.ParseClock(tok); ok {
			out.HasTime = true
			if slot < internal.PunchSlots {
				out.Punches[slot] = clock
				slot++
			}
			continue
		}
		if c.sentinel != "" && tok == c.sentinel {
			out.HasAbsentMark = true
			if slot < internal.PunchSlots {
				out.Punches[slot] = internal.AbsenceMarker
				slot++
			}
			continue
		}
		if _, ok := c.absenceWords[tok]; ok {
			out.HasAbsentMark = true
		}
	}
	out.Status = c.status(out.HasTime, out.HasAbsentMark)
	return out
}

func (c *LineClassifier) status(hasTime, hasAbsent bool) internal.Status {
	if c.precedence == AbsenceFirst {
		switch {
		case hasAbsent:
			return internal.StatusAbsent
		case hasTime:
			return internal.StatusPresent
		}
		return internal.StatusUnknown
	}
	switch {
	case hasTime:
		return internal.StatusPresent
	case hasAbsent:
		return internal.StatusAbsent
	}
	return internal.StatusUnknown
}

// trimEdges drops OCR punctuation stuck to either end of a token.
func trimEdges(tok string) string {
	return strings.TrimFunc(tok, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
