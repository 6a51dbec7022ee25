package service

import (
	"fmt"
	"net/http"
	"os"

	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/prediction"
)

// EngineOptions maps cfg to engine options. A catalog overlay is read from
// CatalogPath when set.
func EngineOptions(cfg *config.Config) ([]engine.Option, error) {
	opts := []engine.Option{
		engine.WithLocale(cfg.Locale),
		engine.WithParallelism(cfg.Parallelism),
	}
	if cfg.CombineScores {
		opts = append(opts, engine.WithMultipliers(cfg.StatMultiplier, cfg.MLMultiplier))
	}
	if cfg.CatalogPath != "" {
		f, err := os.Open(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer func() { _ = f.Close() }()
		cat, err := locale.New().Extend(f)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", cfg.CatalogPath, err)
		}
		opts = append(opts, engine.WithCatalog(cat))
	}
	return opts, nil
}

// NewEnsemble builds the prediction ensemble selected by cfg. It returns nil
// when neither model servers nor model columns are configured.
func NewEnsemble(cfg *config.Config) (*prediction.Ensemble, error) {
	var predictors []prediction.Predictor
	switch {
	case len(cfg.ModelURLs) > 0:
		client := &http.Client{Timeout: cfg.ModelTimeout()}
		for i, url := range cfg.ModelURLs {
			name := fmt.Sprintf("model_%d", i+1)
			predictors = append(predictors, prediction.NewHTTPPredictor(name, url, prediction.WithHTTPClient(client)))
		}
	case len(cfg.ModelColumns) > 0:
		for _, col := range cfg.ModelColumns {
			predictors = append(predictors, prediction.NewColumnPredictor(col, col))
		}
	default:
		return nil, nil
	}
	return prediction.NewEnsemble(predictors)
}

// OptionsFromConfig returns the service options for cfg. Stores and
// publishers are left to the caller.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	engineOpts, err := EngineOptions(cfg)
	if err != nil {
		return nil, err
	}
	ens, err := NewEnsemble(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithShardCount(cfg.ShardCount),
		WithEngineOptions(engineOpts...),
	}
	if ens != nil {
		opts = append(opts, WithEnsemble(ens))
	}
	return opts, nil
}
