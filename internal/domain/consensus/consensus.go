// Package consensus derives agreement features from three model predictions
// of the same record.
package consensus

import (
	"strings"

	"github.com/okian/vigil/internal/domain/model"
)

// pairs are the three unordered index pairs of a three-model set.
var pairs = [3][2]int{{0, 1}, {0, 2}, {1, 2}}

// Build computes the consensus features of set. Predictions must be in the
// fixed model order of model.Models; the order decides which label wins a tie
// for model agreement.
func Build(set model.PredictionSet) (model.ConsensusFeatures, error) {
	if err := Validate(set); err != nil {
		return model.ConsensusFeatures{}, err
	}
	p := set.Predictions

	var f model.ConsensusFeatures
	for _, pr := range pairs {
		if p[pr[0]] == p[pr[1]] {
			f.ConsensusCount++
		}
	}

	f.MajorityLabel, f.ModelAgreement = mode(p)

	if f.ConsensusCount >= 3 {
		f.Trend = model.TrendConsistent
	} else {
		f.Trend = model.TrendInconsistent
	}

	anyCorrect := false
	var sum float64
	for i, pred := range p {
		if pred == set.GroundTruth {
			f.ModelAccuracy[i] = 1
			anyCorrect = true
		}
		sum += f.ModelAccuracy[i]
	}
	f.PerformanceReliability = sum / model.ModelCount

	if anyCorrect {
		f.Relationship = model.RelationshipClear
	} else {
		f.Relationship = model.RelationshipPotentialAnomaly
	}
	return f, nil
}

// Validate checks that set can be scored.
func Validate(set model.PredictionSet) error {
	if len(set.Predictions) != model.ModelCount {
		return &model.InvalidPredictionSetError{RecordID: set.RecordID, Got: len(set.Predictions)}
	}
	if strings.TrimSpace(set.GroundTruth) == "" {
		return &model.InvalidPredictionSetError{RecordID: set.RecordID, Got: len(set.Predictions), Reason: "missing ground truth"}
	}
	for i, pred := range set.Predictions {
		if strings.TrimSpace(pred) == "" {
			return &model.InvalidPredictionSetError{
				RecordID: set.RecordID,
				Got:      len(set.Predictions),
				Reason:   "missing " + model.Models[i] + " prediction",
			}
		}
	}
	return nil
}

// mode returns the most frequent label and its frequency. Ties go to the
// label seen first.
func mode(labels []string) (string, int) {
	var best string
	bestN := 0
	for i, l := range labels {
		n := 0
		for _, o := range labels {
			if o == l {
				n++
			}
		}
		if n > bestN {
			best, bestN = labels[i], n
		}
	}
	return best, bestN
}
