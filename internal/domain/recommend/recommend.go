// Package recommend turns consensus features and the ML classification of a
// row into a replacement decision and a prioritised action summary.
package recommend

import (
	"math"

	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/rules"
)

// Action codes in cascade order.
const (
	ActionImmediateReplacement     = "immediate_replacement"
	ActionReplaceLowReliability    = "replace_low_reliability"
	ActionReviewReplacement        = "review_replacement"
	ActionInvestigateInconsistency = "investigate_inconsistency"
	ActionInvestigateAnomaly       = "investigate_anomaly"
	ActionKeepCurrent              = "keep_current"
	ActionGoodPerformance          = "good_performance"
	ActionBorderline               = "borderline"
	ActionReplaceLowPredictability = "replace_low_predictability"
	ActionMonitor                  = "monitor"
)

// Recommendation is the outcome for one row.
type Recommendation struct {
	Replace    bool   `json:"replace"`
	ActionCode string `json:"action_code"`
	Action     string `json:"action"`
	// Branch is the 1-based cascade branch taken.
	Branch int `json:"-"`
}

// ShouldReplace reports whether the row is a replacement candidate.
func ShouldReplace(f model.ConsensusFeatures, ml model.ClassificationResult) bool {
	return f.PerformanceReliability < 0.5 ||
		f.Trend == model.TrendInconsistent ||
		f.Relationship == model.RelationshipPotentialAnomaly ||
		ml.WeightScore < 0
}

type candidate struct {
	f       model.ConsensusFeatures
	ml      model.ClassificationResult
	replace bool
}

func (c candidate) suspicious() bool {
	return c.f.Trend == model.TrendInconsistent || c.f.Relationship == model.RelationshipPotentialAnomaly
}

// cascade returns the action table in priority order. The final branch
// always matches. Every suspicious row is also a replacement, so the two
// investigate branches are shadowed by the replacement branches.
func cascade() *rules.Table[candidate] {
	return rules.NewTable(
		rules.Outcome{Code: ActionMonitor},
		rules.Rule[candidate]{
			Code:  ActionImmediateReplacement,
			Match: func(c candidate) bool { return c.replace && c.ml.Label == model.LabelBad },
		},
		rules.Rule[candidate]{
			Code:  ActionReplaceLowReliability,
			Match: func(c candidate) bool { return c.replace && c.f.PerformanceReliability < 0.5 },
		},
		rules.Rule[candidate]{
			Code:  ActionReviewReplacement,
			Match: func(c candidate) bool { return c.replace },
		},
		rules.Rule[candidate]{
			Code:  ActionInvestigateInconsistency,
			Match: func(c candidate) bool { return c.suspicious() && c.f.ModelAgreement < 2 },
		},
		rules.Rule[candidate]{
			Code:  ActionInvestigateAnomaly,
			Match: func(c candidate) bool { return c.suspicious() },
		},
		rules.Rule[candidate]{
			Code: ActionKeepCurrent,
			Match: func(c candidate) bool {
				return c.f.PerformanceReliability >= 0.85 && c.f.ModelAgreement >= 3
			},
		},
		rules.Rule[candidate]{
			Code: ActionGoodPerformance,
			Match: func(c candidate) bool {
				return c.f.PerformanceReliability >= 0.7 && c.f.Trend == model.TrendConsistent
			},
		},
		rules.Rule[candidate]{
			Code: ActionBorderline,
			Match: func(c candidate) bool {
				return c.f.PerformanceReliability >= 0.6 && c.f.PerformanceReliability < 0.7
			},
		},
		rules.Rule[candidate]{
			Code: ActionReplaceLowPredictability,
			Match: func(c candidate) bool {
				return c.ml.Label == model.LabelBad && c.f.PerformanceReliability < 0.6
			},
		},
		rules.Rule[candidate]{
			Code:  ActionMonitor,
			Match: func(candidate) bool { return true },
		},
	)
}

// Engine derives recommendations with localized action text.
type Engine struct {
	cascade *rules.Table[candidate]
	catalog *locale.Catalog
	locale  string
}

// New creates a recommendation engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		cascade: cascade(),
		locale:  locale.DefaultLocale,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = locale.New()
	}
	return e
}

// Recommend derives the replacement decision and action for one row.
func (e *Engine) Recommend(f model.ConsensusFeatures, ml model.ClassificationResult) Recommendation {
	c := candidate{f: f, ml: ml, replace: ShouldReplace(f, ml)}
	out := e.cascade.Evaluate(c)
	return Recommendation{
		Replace:    c.replace,
		ActionCode: out.Code,
		Action:     e.catalog.Describe(locale.KindAction, out.Code, e.locale),
		Branch:     out.Position,
	}
}

// CombinedScore weights both classifier scores by caller supplied multipliers.
func CombinedScore(statWeight, mlWeight, statMultiplier, mlMultiplier float64) float64 {
	return statWeight*statMultiplier + mlWeight*mlMultiplier
}

// Round2 rounds v to two decimals, halves away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
