package engine

import (
	"context"
	"errors"

	"github.com/okian/vigil/internal/domain/model"
)

// Sentinel errors for row evaluation.
var (
	ErrEmptyInput  = errors.New("input has neither aggregates nor predictions")
	ErrModelFailed = errors.New("prediction model failed")
)

// Error kinds reported by ErrorKind.
const (
	KindMissingFeature       = "missing_feature"
	KindInvalidFeature       = "invalid_feature"
	KindInvalidPredictionSet = "invalid_prediction_set"
	KindEmptyInput           = "empty_input"
	KindModelFailed          = "model_failed"
	KindCanceled             = "canceled"
	KindUnknown              = "unknown"
)

// ErrorKind classifies a row error for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingFeature):
		return KindMissingFeature
	case errors.Is(err, model.ErrInvalidFeature):
		return KindInvalidFeature
	case errors.Is(err, model.ErrInvalidPredictionSet):
		return KindInvalidPredictionSet
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrModelFailed):
		return KindModelFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
