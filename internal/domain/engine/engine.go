// Package engine runs both classification paths and the recommendation for
// each row, alone or as an unordered parallel batch.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vigil/internal/domain/consensus"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/mlconsensus"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/recommend"
	"github.com/okian/vigil/internal/domain/statistical"
	"github.com/okian/vigil/pkg/metrics"
)

// Classification paths reported to metrics.
const (
	PathStatistical = "statistical"
	PathML          = "ml"
)

// Input is one row to evaluate. Aggregates feed the statistical path and the
// ground truth with predictions feeds the consensus path; either may be absent.
// Fields carries the raw source columns for predictors.
type Input struct {
	RecordID    string            `json:"record_id"`
	Group       string            `json:"group,omitempty"`
	Target      string            `json:"target,omitempty"`
	Aggregates  model.Aggregates  `json:"aggregates,omitempty"`
	GroundTruth string            `json:"ground_truth,omitempty"`
	Predictions []string          `json:"predictions,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// HasAggregates reports whether the statistical path applies.
func (in Input) HasAggregates() bool { return len(in.Aggregates) > 0 }

// HasPredictions reports whether the consensus path applies.
func (in Input) HasPredictions() bool { return in.GroundTruth != "" || len(in.Predictions) > 0 }

// PredictionSet returns the consensus input of the row.
func (in Input) PredictionSet() model.PredictionSet {
	return model.PredictionSet{RecordID: in.RecordID, GroundTruth: in.GroundTruth, Predictions: in.Predictions}
}

// RowResult is the reported outcome of one row. Numeric fields are rounded
// to two decimals.
type RowResult struct {
	RecordID       string                      `json:"record_id"`
	Group          string                      `json:"group,omitempty"`
	Target         string                      `json:"target,omitempty"`
	Statistical    *statistical.Result         `json:"statistical,omitempty"`
	Consensus      *model.ConsensusFeatures    `json:"consensus,omitempty"`
	ML             *model.ClassificationResult `json:"ml,omitempty"`
	Recommendation *recommend.Recommendation   `json:"recommendation,omitempty"`
	CombinedScore  *float64                    `json:"combined_score,omitempty"`
}

// Outcome pairs a batch row with its result or error.
type Outcome struct {
	Index  int
	Input  Input
	Result RowResult
	Err    error
}

// Summary counts batch outcomes.
type Summary struct {
	Rows         int `json:"rows"`
	Failed       int `json:"failed"`
	Replacements int `json:"replacements"`
}

// Summarize counts outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Rows: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			s.Failed++
		case o.Result.Recommendation != nil && o.Result.Recommendation.Replace:
			s.Replacements++
		}
	}
	return s
}

// Engine evaluates rows. It holds no per-row state and is safe for
// concurrent use.
type Engine struct {
	stat *statistical.Classifier
	ml   *mlconsensus.Classifier
	rec  *recommend.Engine

	catalog        *locale.Catalog
	locale         string
	statMultiplier float64
	mlMultiplier   float64
	combine        bool
	parallelism    int
}

// New creates an engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		locale:      locale.DefaultLocale,
		parallelism: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = locale.New()
	}
	e.stat = statistical.NewClassifier(statistical.WithCatalog(e.catalog), statistical.WithLocale(e.locale))
	e.ml = mlconsensus.NewClassifier(mlconsensus.WithCatalog(e.catalog), mlconsensus.WithLocale(e.locale))
	e.rec = recommend.New(recommend.WithCatalog(e.catalog), recommend.WithLocale(e.locale))
	return e
}

// Locale returns the locale used for descriptions.
func (e *Engine) Locale() string { return e.locale }

// Catalog returns the description catalog shared by the classifiers.
func (e *Engine) Catalog() *locale.Catalog { return e.catalog }

// Evaluate classifies one row. A row error never carries a partial result.
func (e *Engine) Evaluate(in Input) (RowResult, error) {
	start := time.Now()
	res, err := e.evaluate(in)
	if err != nil {
		metrics.RecordRowError(ErrorKind(err))
		return RowResult{}, err
	}
	metrics.RecordClassificationLatency(float64(time.Since(start).Microseconds()) / 1000)
	return res, nil
}

func (e *Engine) evaluate(in Input) (RowResult, error) {
	if !in.HasAggregates() && !in.HasPredictions() {
		return RowResult{}, fmt.Errorf("record %q: %w", in.RecordID, ErrEmptyInput)
	}
	res := RowResult{RecordID: in.RecordID, Group: in.Group, Target: in.Target}

	if in.HasAggregates() {
		sr, err := e.stat.ClassifyAggregates(in.Group, in.Aggregates)
		if err != nil {
			return RowResult{}, fmt.Errorf("record %q: %w", in.RecordID, err)
		}
		metrics.RecordRowClassified(PathStatistical, sr.Code)
		sr.WeightScore = recommend.Round2(sr.WeightScore)
		res.Statistical = &sr
	}

	if in.HasPredictions() {
		f, err := consensus.Build(in.PredictionSet())
		if err != nil {
			return RowResult{}, err
		}
		ml := e.ml.Classify(f)
		rec := e.rec.Recommend(f, ml)
		metrics.RecordRowClassified(PathML, ml.Code)
		if rec.Replace {
			metrics.RecordReplacement()
		}

		f.PerformanceReliability = recommend.Round2(f.PerformanceReliability)
		for i := range f.ModelAccuracy {
			f.ModelAccuracy[i] = recommend.Round2(f.ModelAccuracy[i])
		}
		ml.WeightScore = recommend.Round2(ml.WeightScore)
		res.Consensus = &f
		res.ML = &ml
		res.Recommendation = &rec
	}

	if e.combine && res.Statistical != nil && res.ML != nil {
		cs := recommend.Round2(recommend.CombinedScore(
			res.Statistical.WeightScore, res.ML.WeightScore, e.statMultiplier, e.mlMultiplier))
		res.CombinedScore = &cs
	}
	return res, nil
}

// EvaluateBatch evaluates inputs in parallel. Every input yields an outcome
// at its own index; a failing row does not stop its siblings. Rows not yet
// started when ctx is done fail with the context error, which is returned.
func (e *Engine) EvaluateBatch(ctx context.Context, inputs []Input) ([]Outcome, error) {
	out := make([]Outcome, len(inputs))
	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			out[i] = Outcome{Index: i, Input: in}
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result, out[i].Err = e.Evaluate(in)
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}
