package pipeline

import (
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"attendance/internal"
	"attendance/internal/config"
	"attendance/internal/fuzzy"
	"attendance/internal/roster"
	"attendance/internal/util"
)

const DefaultMatchThreshold = 85

// Reconciler maps a corrected name to a canonical roster identity.
// Implementations never fail; a miss is a nil canonical name.
type Reconciler interface {
	Reconcile(name string) internal.Reconciliation
	Enabled() bool
}

// NewReconciler picks the implementation once per run. Without a roster or
// with matching switched off every lookup returns (nil, nil).
func NewReconciler(cfg config.Config, r *roster.Roster) (Reconciler, error) {
	if !cfg.MatchEnabled || r.Len() == 0 {
		return disabledReconciler{}, nil
	}
	return NewRosterMatcher(r, cfg.MatchThreshold, nil)
}

type disabledReconciler struct{}

func (disabledReconciler) Reconcile(string) internal.Reconciliation { return internal.Reconciliation{} }

func (disabledReconciler) Enabled() bool { return false }

// RosterMatcher scores a name against every roster entry and accepts the best
// one when its score reaches the threshold.
type RosterMatcher struct {
	roster    *roster.Roster
	threshold float64
	scorer    fuzzy.Scorer
	memo      *gocache.Cache
}

// NewRosterMatcher uses fuzzy.WRatio when scorer is nil.
func NewRosterMatcher(r *roster.Roster, threshold float64, scorer fuzzy.Scorer) (*RosterMatcher, error) {
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("match threshold must be within [0,100], got %v", threshold)
	}
	if scorer == nil {
		scorer = fuzzy.WRatio
	}
	return &RosterMatcher{
		roster:    r,
		threshold: threshold,
		scorer:    scorer,
		memo:      gocache.New(gocache.NoExpiration, 0),
	}, nil
}

func (m *RosterMatcher) Enabled() bool { return true }

func (m *RosterMatcher) Threshold() float64 { return m.threshold }

func (m *RosterMatcher) Reconcile(name string) internal.Reconciliation {
	query := fuzzy.Process(name)
	if query == "" || strings.EqualFold(strings.TrimSpace(name), internal.UnknownName) || m.roster.Len() == 0 {
		return internal.Reconciliation{}
	}
	if cached, ok := m.memo.Get(query); ok {
		return cached.(internal.Reconciliation)
	}

	bestIdx, bestScore := -1, 0.0
	for i := 0; i < m.roster.Len(); i++ {
		score := m.scorer(query, m.roster.Key(i))
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	res := decide(m.roster.Name(bestIdx), bestScore, m.threshold)
	m.memo.Set(query, res, gocache.NoExpiration)
	return res
}

// ReconcileName is the stateless form: best match of name over names, accepted
// when score >= threshold. Empty input on either side yields (nil, nil).
func ReconcileName(name string, names []string, threshold float64, scorer fuzzy.Scorer) internal.Reconciliation {
	if strings.TrimSpace(name) == "" || len(names) == 0 {
		return internal.Reconciliation{}
	}
	best, ok := fuzzy.ExtractOne(name, names, scorer)
	if !ok {
		return internal.Reconciliation{}
	}
	return decide(best.Candidate, best.Score, threshold)
}

func decide(candidate string, score, threshold float64) internal.Reconciliation {
	res := internal.Reconciliation{Score: util.FloatPtr(score)}
	if score >= threshold {
		res.Canonical = util.StringPtr(candidate)
	}
	return res
}
