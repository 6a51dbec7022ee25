package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Typed errors below match them with errors.Is.
var (
	ErrMissingFeature       = errors.New("missing feature")
	ErrInvalidFeature       = errors.New("invalid feature")
	ErrInvalidPredictionSet = errors.New("invalid prediction set")
)

// MissingFeatureError reports an undefined required aggregate field.
type MissingFeatureError struct {
	Group string
	Field string
}

func (e *MissingFeatureError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("missing feature %q", e.Field)
	}
	return fmt.Sprintf("missing feature %q for group %q", e.Field, e.Group)
}

// Is reports whether target is ErrMissingFeature.
func (e *MissingFeatureError) Is(target error) bool { return target == ErrMissingFeature }

// InvalidFeatureError reports an aggregate field outside its domain.
type InvalidFeatureError struct {
	Group string
	Field string
	Value float64
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("invalid feature %q for group %q: %v", e.Field, e.Group, e.Value)
}

// Is reports whether target is ErrInvalidFeature.
func (e *InvalidFeatureError) Is(target error) bool { return target == ErrInvalidFeature }

// InvalidPredictionSetError reports a PredictionSet that cannot be scored.
type InvalidPredictionSetError struct {
	RecordID string
	Got      int
	Reason   string
}

func (e *InvalidPredictionSetError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid prediction set for record %q: %s", e.RecordID, e.Reason)
	}
	return fmt.Sprintf("invalid prediction set for record %q: want %d predictions, got %d", e.RecordID, ModelCount, e.Got)
}

// Is reports whether target is ErrInvalidPredictionSet.
func (e *InvalidPredictionSetError) Is(target error) bool { return target == ErrInvalidPredictionSet }
