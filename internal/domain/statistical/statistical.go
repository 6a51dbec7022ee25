// Package statistical classifies a group's numeric profile with an ordered
// rule table over its aggregates.
package statistical

import (
	"math"

	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/rules"
)

// RangeEpsilon keeps the range-disparity ratio finite when min is zero.
const RangeEpsilon = 1e-6

// Description codes.
const (
	CodeConsGoodSym      = "cons_good_sym"
	CodeConsGood         = "cons_good"
	CodePotRiskHighVar   = "pot_risk_high_var"
	CodePotRiskHighVol   = "pot_risk_high_vol"
	CodeConsBadHighAccum = "cons_bad_high_accum"
	CodeConsBad          = "cons_bad"
	CodeVolHighPeaks     = "vol_high_peaks"
	CodeRangeDispHigh    = "range_disp_high"
	CodeHighImpactVol    = "high_impact_vol"
	CodeStatInsig        = "stat_insig"
	CodeNoMatch          = "no_match"
)

// Result is the statistical classification of one row.
type Result struct {
	WeightScore float64 `json:"weight_score"`
	Description string  `json:"description"`
	Code        string  `json:"code"`
	Position    int     `json:"rule"`
}

func sizable(r model.AggregateRow) bool { return r.Count > 5 }
func stable(r model.AggregateRow) bool { return sizable(r) && r.StdDev < 0.1 && r.Count > 50 }
func volatile(r model.AggregateRow) bool {
	return sizable(r) && r.StdDev >= 0.1
}

// highVariation compares the coefficient of variation. Volatile rows with a
// zero mean divide to +Inf and fire.
func highVariation(r model.AggregateRow) bool {
	return r.StdDev/r.Avg > 0.5
}

// Table returns the statistical rule table in evaluation order.
//
// cons_bad repeats cons_good's guard and can never fire. It is kept to
// preserve the observed precedence.
func Table() *rules.Table[model.AggregateRow] {
	return rules.NewTable(
		rules.Outcome{Code: CodeNoMatch, Score: 0},
		rules.Rule[model.AggregateRow]{
			Code: CodeConsGoodSym, Score: 5,
			Match: func(r model.AggregateRow) bool {
				return stable(r) && math.Abs(r.Avg-r.Median) < 0.05*r.Avg
			},
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeConsGood, Score: 4.5,
			Match: stable,
		},
		rules.Rule[model.AggregateRow]{
			Code: CodePotRiskHighVar, Score: 4.5,
			Match: func(r model.AggregateRow) bool { return volatile(r) && highVariation(r) },
		},
		rules.Rule[model.AggregateRow]{
			Code: CodePotRiskHighVol, Score: 4.5,
			Match: func(r model.AggregateRow) bool { return volatile(r) && r.Max-r.Min > 0.5*r.Avg },
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeConsBadHighAccum, Score: -4,
			Match: func(r model.AggregateRow) bool { return stable(r) && r.Sum > r.Avg*float64(r.Count) },
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeConsBad, Score: -3.5,
			Match: stable,
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeVolHighPeaks, Score: -5,
			Match: func(r model.AggregateRow) bool { return volatile(r) && r.Max > 1.5*r.Avg },
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeRangeDispHigh, Score: -4,
			Match: func(r model.AggregateRow) bool { return sizable(r) && r.Max/(r.Min+RangeEpsilon) > 5 },
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeHighImpactVol, Score: -4,
			Match: volatile,
		},
		rules.Rule[model.AggregateRow]{
			Code: CodeStatInsig, Score: 1,
			Match: func(r model.AggregateRow) bool { return r.Count < 5 },
		},
	)
}

// Classifier evaluates the statistical rule table and localizes the result.
type Classifier struct {
	table   *rules.Table[model.AggregateRow]
	catalog *locale.Catalog
	locale  string
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		table:  Table(),
		locale: locale.DefaultLocale,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = locale.New()
	}
	return c
}

// Classify returns the first matching rule's score, description and code.
func (c *Classifier) Classify(row model.AggregateRow) Result {
	out := c.table.Evaluate(row)
	return Result{
		WeightScore: out.Score,
		Description: c.catalog.Describe(locale.KindStatistical, out.Code, c.locale),
		Code:        out.Code,
		Position:    out.Position,
	}
}

// ClassifyAggregates validates raw aggregates before classifying them.
func (c *Classifier) ClassifyAggregates(group string, a model.Aggregates) (Result, error) {
	row, err := model.NewAggregateRow(group, a)
	if err != nil {
		return Result{}, err
	}
	return c.Classify(row), nil
}

// Rules exposes the underlying table.
func (c *Classifier) Rules() *rules.Table[model.AggregateRow] { return c.table }
