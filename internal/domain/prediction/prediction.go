// Package prediction runs the three prediction models of an ensemble
// concurrently and attaches their labels to rows in the fixed model order.
package prediction

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Predictor produces one label per row, in row order.
type Predictor interface {
	Name() string
	Predict(ctx context.Context, rows []engine.Input) ([]string, error)
}

// Timing is the wall time of one model run.
type Timing struct {
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration"`
}

// Ensemble fans rows out to three predictors. Predictor order is the model
// order of every PredictionSet produced.
type Ensemble struct {
	predictors [model.ModelCount]Predictor
	logger     logger.Logger
}

// EnsembleOption configures an Ensemble.
type EnsembleOption func(*Ensemble)

// WithLogger sets the ensemble logger.
func WithLogger(l logger.Logger) EnsembleOption {
	return func(e *Ensemble) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnsemble creates an ensemble from exactly three predictors.
func NewEnsemble(predictors []Predictor, opts ...EnsembleOption) (*Ensemble, error) {
	if len(predictors) != model.ModelCount {
		return nil, fmt.Errorf("%w: got %d", ErrModelCount, len(predictors))
	}
	e := &Ensemble{logger: logger.Nop()}
	copy(e.predictors[:], predictors)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Models returns the predictor names in model order.
func (e *Ensemble) Models() []string {
	names := make([]string, 0, model.ModelCount)
	for _, p := range e.predictors {
		names = append(names, p.Name())
	}
	return names
}

// Run predicts every row with all three models concurrently and returns
// copies of rows with Predictions set. Any model failure fails the run.
func (e *Ensemble) Run(ctx context.Context, rows []engine.Input) ([]engine.Input, []Timing, error) {
	var labels [model.ModelCount][]string
	var timings [model.ModelCount]Timing

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.predictors {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			got, err := p.Predict(gctx, rows)
			took := time.Since(start)
			timings[i] = Timing{Model: p.Name(), Duration: took}
			metrics.RecordModelLatency(p.Name(), float64(took.Microseconds())/1000)
			if err != nil {
				metrics.RecordModelError(p.Name())
				e.logger.Error(gctx, "model run failed", logger.String("model", p.Name()), logger.Error(err))
				return fmt.Errorf("%w: %s: %w", ErrModelFailed, p.Name(), err)
			}
			if len(got) != len(rows) {
				metrics.RecordModelError(p.Name())
				return fmt.Errorf("%w: %w: %s returned %d for %d rows", ErrModelFailed, ErrPredictionCount, p.Name(), len(got), len(rows))
			}
			e.logger.Info(gctx, "model run finished",
				logger.String("model", p.Name()),
				logger.Int("rows", len(rows)),
				logger.Duration("took_ms", took),
			)
			labels[i] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, timings[:], err
	}

	out := make([]engine.Input, len(rows))
	for r, row := range rows {
		row.Predictions = make([]string, model.ModelCount)
		for m := range labels {
			row.Predictions[m] = labels[m][r]
		}
		out[r] = row
	}
	return out, timings[:], nil
}

// ColumnPredictor reads a prediction that upstream already wrote into a row
// field. Rows without the field get an empty label and fail validation.
type ColumnPredictor struct {
	name   string
	column string
}

// NewColumnPredictor creates a predictor named name reading column.
func NewColumnPredictor(name, column string) *ColumnPredictor {
	return &ColumnPredictor{name: name, column: column}
}

// Name returns the model name.
func (p *ColumnPredictor) Name() string { return p.name }

// Predict returns the column value of each row.
func (p *ColumnPredictor) Predict(ctx context.Context, rows []engine.Input) ([]string, error) {
	out := make([]string, len(rows))
	for i, row := range rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out[i] = row.Fields[p.column]
	}
	return out, nil
}
