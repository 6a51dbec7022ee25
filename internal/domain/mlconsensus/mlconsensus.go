// Package mlconsensus classifies consensus features with an ordered rule
// table that yields a weight score and a good/bad polarity.
package mlconsensus

import (
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/rules"
)

// Description codes.
const (
	CodeStrongConsistent    = "strong_consistent_rel_high_reliability"
	CodeModerateConsistent  = "moderate_consistent_rel_good_performance"
	CodeWeakConsistent      = "weak_consistent_rel_reliable"
	CodePotentialAnomaly    = "potential_anomaly_inconsistent_patterns"
	CodeInconsistentTrends  = "inconsistent_trends_clear_rel"
	CodeConflictingPatterns = "conflicting_patterns_low_agreement"
	CodeUnclassified        = "unclassified"
)

func consistent(f model.ConsensusFeatures) bool   { return f.Trend == model.TrendConsistent }
func inconsistent(f model.ConsensusFeatures) bool { return f.Trend == model.TrendInconsistent }
func clearRel(f model.ConsensusFeatures) bool     { return f.Relationship == model.RelationshipClear }
func anomaly(f model.ConsensusFeatures) bool {
	return f.Relationship == model.RelationshipPotentialAnomaly
}

// Table returns the consensus rule table in evaluation order.
//
// The moderate rule's consensus guard (2 <= n < 2) is empty, and the last two
// negative rules are implied by the anomaly rule before them. They are kept
// to preserve the observed precedence.
func Table() *rules.Table[model.ConsensusFeatures] {
	return rules.NewTable(
		rules.Outcome{Code: CodeUnclassified, Score: 0, Label: model.LabelUnclassified},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeStrongConsistent, Score: 5, Label: model.LabelGood,
			Match: func(f model.ConsensusFeatures) bool {
				return f.ConsensusCount >= 2 &&
					(consistent(f) || f.ModelAgreement >= 2) &&
					clearRel(f) &&
					f.PerformanceReliability >= 0.7
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeModerateConsistent, Score: 4, Label: model.LabelGood,
			Match: func(f model.ConsensusFeatures) bool {
				return 2 <= f.ConsensusCount && f.ConsensusCount < 2 &&
					(consistent(f) || f.ModelAgreement >= 2) &&
					clearRel(f) &&
					f.PerformanceReliability >= 0.5
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeWeakConsistent, Score: 3, Label: model.LabelGood,
			Match: func(f model.ConsensusFeatures) bool {
				return f.ConsensusCount <= 1 &&
					(consistent(f) || f.ModelAgreement >= 1) &&
					clearRel(f) &&
					f.PerformanceReliability >= 0.4
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodePotentialAnomaly, Score: -5, Label: model.LabelBad,
			Match: func(f model.ConsensusFeatures) bool {
				return anomaly(f) || inconsistent(f) || f.ModelAgreement < 1
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeInconsistentTrends, Score: -3, Label: model.LabelBad,
			Match: func(f model.ConsensusFeatures) bool {
				return inconsistent(f) && clearRel(f) && f.ModelAgreement >= 2
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeConflictingPatterns, Score: -4, Label: model.LabelBad,
			Match: func(f model.ConsensusFeatures) bool {
				return f.ConsensusCount < 1 &&
					(inconsistent(f) || anomaly(f)) &&
					f.ModelAgreement < 1 &&
					f.PerformanceReliability < 0.4
			},
		},
		rules.Rule[model.ConsensusFeatures]{
			Code: CodeUnclassified, Score: 0, Label: model.LabelUnclassified,
			Match: func(model.ConsensusFeatures) bool { return true },
		},
	)
}

// Classifier evaluates the consensus rule table and localizes the result.
type Classifier struct {
	table   *rules.Table[model.ConsensusFeatures]
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

// Classify returns the first matching rule's outcome.
func (c *Classifier) Classify(f model.ConsensusFeatures) model.ClassificationResult {
	out := c.table.Evaluate(f)
	return model.ClassificationResult{
		WeightScore: out.Score,
		Code:        out.Code,
		Description: c.catalog.Describe(locale.KindConsensus, out.Code, c.locale),
		Label:       out.Label,
	}
}

// Rules exposes the underlying table.
func (c *Classifier) Rules() *rules.Table[model.ConsensusFeatures] { return c.table }
