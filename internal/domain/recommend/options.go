package recommend

import "github.com/okian/vigil/internal/domain/locale"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCatalog sets the action text catalog.
func WithCatalog(c *locale.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithLocale sets the locale used for action text.
func WithLocale(loc string) Option {
	return func(e *Engine) {
		if loc != "" {
			e.locale = loc
		}
	}
}
