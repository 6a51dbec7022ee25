package csvio

import "errors"

// Sentinel errors for CSV decoding.
var (
	ErrMissingColumn = errors.New("required column missing from header")
	ErrEmptyHeader   = errors.New("csv has no header row")
)
