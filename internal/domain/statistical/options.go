package statistical

import "github.com/okian/vigil/internal/domain/locale"

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithCatalog sets the description catalog.
func WithCatalog(c *locale.Catalog) Option {
	return func(cl *Classifier) {
		if c != nil {
			cl.catalog = c
		}
	}
}

// WithLocale sets the locale used for descriptions.
func WithLocale(loc string) Option {
	return func(cl *Classifier) {
		if loc != "" {
			cl.locale = loc
		}
	}
}
