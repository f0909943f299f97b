// Package fuzzy scores string similarity on a 0-100 scale. WRatio combines
// plain, partial and token-based ratios so that reordered name parts and
// names embedded in longer noisy strings still score high.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"attendance/internal/util"
)

// Scorer compares two already-processed strings.
type Scorer func(a, b string) float64

var (
	// Substitution counts as delete+insert, which gives the indel distance.
	indelParams = levenshtein.NewParams().SubCost(2)
	reNonAlnum  = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Process lower-cases, folds accents and replaces non-alphanumerics with a
// single space.
func Process(s string) string {
	s = strings.ToLower(util.FoldAccents(s))
	s = reNonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func Ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la+lb == 0 {
		return 100
	}
	dist := levenshtein.Distance(a, b, indelParams)
	return 100 * (1 - float64(dist)/float64(la+lb))
}

// PartialRatio is the best Ratio of the shorter string against any window
// of the longer one, including windows that hang over either edge.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	s := string(short)
	best := 0.0
	consider := func(window []rune) bool {
		if r := Ratio(s, string(window)); r > best {
			best = r
		}
		return best >= 100
	}
	for i := 0; i+len(short) <= len(long); i++ {
		if consider(long[i : i+len(short)]) {
			return 100
		}
	}
	for k := 1; k < len(short); k++ {
		if consider(long[:k]) || consider(long[len(long)-k:]) {
			return 100
		}
	}
	return best
}

func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedJoin(strings.Fields(a)), sortedJoin(strings.Fields(b)))
}

func TokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var inter, onlyA, onlyB []string
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if _, ok := setA[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := sortedJoin(inter)
	combinedA := strings.TrimSpace(sect + " " + sortedJoin(onlyA))
	combinedB := strings.TrimSpace(sect + " " + sortedJoin(onlyB))
	best := Ratio(combinedA, combinedB)
	if sect == "" {
		return best
	}
	return max(best, Ratio(sect, combinedA), Ratio(sect, combinedB))
}

func PartialTokenRatio(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	for t := range setA {
		if _, ok := setB[t]; ok {
			return 100
		}
	}
	return PartialRatio(sortedJoin(keys(setA)), sortedJoin(keys(setB)))
}

const (
	unbaseScale     = 0.95
	partialScale    = 0.90
	farPartialScale = 0.60
)

// WRatio picks the best of the ratio family, weighting partial matches down
// as the length difference between a and b grows.
func WRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	la, lb := float64(len([]rune(a))), float64(len([]rune(b)))
	lenRatio := max(la, lb) / min(la, lb)

	end := Ratio(a, b)
	if lenRatio < 1.5 {
		tokenRatio := max(TokenSortRatio(a, b), TokenSetRatio(a, b))
		return max(end, tokenRatio*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= 8 {
		scale = farPartialScale
	}
	end = max(end, PartialRatio(a, b)*scale)
	return max(end, PartialTokenRatio(a, b)*unbaseScale*scale)
}

type Match struct {
	Index     int
	Candidate string
	Score     float64
}

// ExtractOne returns the highest scoring choice for query. Both sides go
// through Process before scoring. Ties keep the earliest choice.
func ExtractOne(query string, choices []string, scorer Scorer) (Match, bool) {
	if scorer == nil {
		scorer = WRatio
	}
	q := Process(query)
	best := Match{Index: -1}
	for i, c := range choices {
		score := scorer(q, Process(c))
		if best.Index < 0 || score > best.Score {
			best = Match{Index: i, Candidate: c, Score: score}
		}
	}
	return best, best.Index >= 0
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range strings.Fields(s) {
		out[t] = struct{}{}
	}
	return out
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedJoin(tokens []string) string {
	cp := append([]string(nil), tokens...)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}
