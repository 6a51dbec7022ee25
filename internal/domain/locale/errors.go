package locale

import "errors"

// Sentinel errors for catalog operations.
var (
	ErrUnknownKind   = errors.New("unknown description kind")
	ErrUnknownLocale = errors.New("unknown locale")
	ErrOverlay       = errors.New("invalid catalog overlay")
)
