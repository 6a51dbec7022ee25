package engine

import (
	"math"

	"github.com/okian/vigil/internal/domain/locale"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLocale sets the locale of every description and action text.
func WithLocale(loc string) Option {
	return func(e *Engine) {
		if loc != "" {
			e.locale = loc
		}
	}
}

// WithCatalog sets the description catalog shared by all classifiers.
func WithCatalog(c *locale.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithMultipliers enables the combined score with the given multipliers.
func WithMultipliers(stat, ml float64) Option {
	return func(e *Engine) {
		if finite(stat) && finite(ml) {
			e.statMultiplier = stat
			e.mlMultiplier = ml
			e.combine = true
		}
	}
}

// WithParallelism bounds the number of rows evaluated at once by EvaluateBatch.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
