package prediction

import (
	"errors"

	"github.com/okian/vigil/internal/domain/engine"
)

// Sentinel errors for the prediction fan-out.
var (
	ErrModelCount      = errors.New("ensemble requires exactly three predictors")
	ErrPredictionCount = errors.New("predictor returned wrong number of predictions")
	ErrModelFailed     = engine.ErrModelFailed
	ErrBreakerOpen     = errors.New("model server circuit open")
)
