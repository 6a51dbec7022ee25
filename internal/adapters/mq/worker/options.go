package worker

import (
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPublisher forwards every stored record to p.
func WithPublisher(p Publisher) Option {
	return func(w *InMemoryWorker) {
		w.publisher = p
	}
}

// WithOnDone registers fn to run after a record is stored.
func WithOnDone(fn func(repository.Record)) Option {
	return func(w *InMemoryWorker) {
		w.onDone = fn
	}
}
