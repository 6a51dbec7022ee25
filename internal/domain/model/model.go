// Package model contains domain models passed between layers.
package model

import "math"

// Label is the good/bad polarity attached to a classification.
type Label string

// Classification labels.
const (
	LabelNone         Label = ""
	LabelGood         Label = "good"
	LabelBad          Label = "bad"
	LabelUnclassified Label = "unclassified"
)

// Trend reports whether all three model predictions agree.
type Trend string

// Trend values.
const (
	TrendConsistent   Trend = "Consistent Trend"
	TrendInconsistent Trend = "Inconsistent Trend"
)

// Relationship distinguishes rows where at least one model hit the ground
// truth from rows where every model missed it.
type Relationship string

// Relationship values.
const (
	RelationshipClear            Relationship = "Clear Relationship"
	RelationshipPotentialAnomaly Relationship = "Potential Anomaly"
)

// Aggregate field names as they appear in upstream data.
const (
	FieldCount  = "count"
	FieldAvg    = "avg"
	FieldMedian = "median"
	FieldStdDev = "stddev"
	FieldSum    = "sum"
	FieldMax    = "max"
	FieldMin    = "min"
)

// AggregateFields lists the fields every AggregateRow requires, in report order.
var AggregateFields = []string{FieldCount, FieldAvg, FieldMedian, FieldStdDev, FieldSum, FieldMax, FieldMin}

// Aggregates is a raw, possibly partial, field map decoded from upstream.
// A missing key or a NaN value means the field is undefined.
type Aggregates map[string]float64

// AggregateRow summarizes the numeric behavior of one categorical-attribute group.
type AggregateRow struct {
	Group  string
	Count  int
	Avg    float64
	Median float64
	StdDev float64
	Sum    float64
	Max    float64
	Min    float64
}

// NewAggregateRow builds an AggregateRow from raw aggregates. Undefined fields
// are reported as *MissingFeatureError, never coerced to zero.
func NewAggregateRow(group string, a Aggregates) (AggregateRow, error) {
	for _, f := range AggregateFields {
		v, ok := a[f]
		if !ok || math.IsNaN(v) {
			return AggregateRow{}, &MissingFeatureError{Group: group, Field: f}
		}
	}
	count := a[FieldCount]
	if count < 0 || count != math.Trunc(count) || count >= float64(math.MaxInt) {
		return AggregateRow{}, &InvalidFeatureError{Group: group, Field: FieldCount, Value: count}
	}
	return AggregateRow{
		Group:  group,
		Count:  int(count),
		Avg:    a[FieldAvg],
		Median: a[FieldMedian],
		StdDev: a[FieldStdDev],
		Sum:    a[FieldSum],
		Max:    a[FieldMax],
		Min:    a[FieldMin],
	}, nil
}

// Aggregates returns the row as a raw field map.
func (r AggregateRow) Aggregates() Aggregates {
	return Aggregates{
		FieldCount:  float64(r.Count),
		FieldAvg:    r.Avg,
		FieldMedian: r.Median,
		FieldStdDev: r.StdDev,
		FieldSum:    r.Sum,
		FieldMax:    r.Max,
		FieldMin:    r.Min,
	}
}

// Model names in the fixed order predictions are supplied.
const (
	ModelRidge    = "ridge"
	ModelSGD      = "sgd"
	ModelLogistic = "logistic"
)

// ModelCount is the number of predictions every PredictionSet must carry.
const ModelCount = 3

// Models is the fixed model order. model_agreement tie-breaking depends on it.
var Models = [ModelCount]string{ModelRidge, ModelSGD, ModelLogistic}

// PredictionSet holds the ground truth and one prediction per model for a record.
type PredictionSet struct {
	RecordID    string   `json:"record_id,omitempty"`
	GroundTruth string   `json:"ground_truth"`
	Predictions []string `json:"predictions"`
}

// ConsensusFeatures are derived from a PredictionSet.
type ConsensusFeatures struct {
	ConsensusCount         int                 `json:"consensus_count"`
	ModelAgreement         int                 `json:"model_agreement"`
	MajorityLabel          string              `json:"majority_label"`
	Trend                  Trend               `json:"trend_detected"`
	Relationship           Relationship        `json:"relationship"`
	PerformanceReliability float64             `json:"performance_reliability"`
	ModelAccuracy          [ModelCount]float64 `json:"model_accuracy"`
}

// ClassificationResult is produced once per row per classifier.
type ClassificationResult struct {
	WeightScore float64 `json:"weight_score"`
	Code        string  `json:"description_code"`
	Description string  `json:"description,omitempty"`
	Label       Label   `json:"label,omitempty"`
}
