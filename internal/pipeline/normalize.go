package pipeline

import (
	"regexp"
	"strings"

	"attendance/internal/lexicon"
	"attendance/internal/util"
)

// Combining marks are kept until accent folding so decomposed input survives.
var reNonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]+`)

// Normalizer repairs OCR artifacts in a single line.
type Normalizer struct {
	replacer *strings.Replacer
	symbols  *regexp.Regexp
}

func NewNormalizer(lex lexicon.Lexicon) *Normalizer {
	pairs := make([]string, 0, 2*len(lex.Substitutions))
	for _, s := range lex.Substitutions {
		pairs = append(pairs, s.From, s.To)
	}
	n := &Normalizer{replacer: strings.NewReplacer(pairs...)}
	if lex.Symbols != "" {
		n.symbols = regexp.MustCompile(charClass(lex.Symbols))
	}
	return n
}

// Normalize applies glyph substitutions, symbol removal, punctuation and
// whitespace collapsing, then accent folding. Empty in, empty out.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := n.replacer.Replace(raw)
	if n.symbols != nil {
		s = n.symbols.ReplaceAllString(s, " ")
	}
	s = reNonWord.ReplaceAllString(s, " ")
	s = util.CollapseSpaces(s)
	return util.FoldAccents(s)
}

func charClass(chars string) string {
	var b strings.Builder
	b.WriteString("[")
	for _, r := range chars {
		if strings.ContainsRune(`\^-[]`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString("]")
	return b.String()
}
