package csvio

import "github.com/okian/vigil/internal/domain/model"

// Columns maps input header names to row fields. Empty names are not read.
type Columns struct {
	ID          string
	Group       string
	Target      string
	GroundTruth string
	Predictions [model.ModelCount]string
	// Aggregates maps an aggregate field name to its header.
	Aggregates map[string]string
}

// DefaultColumns returns the header names used when none are configured.
func DefaultColumns() Columns {
	aggs := make(map[string]string, len(model.AggregateFields))
	for _, f := range model.AggregateFields {
		aggs[f] = f
	}
	return Columns{
		ID:          "record_id",
		Group:       "group",
		Target:      "target",
		GroundTruth: "ground_truth",
		Predictions: [model.ModelCount]string{"prediction_1", "prediction_2", "prediction_3"},
		Aggregates:  aggs,
	}
}
