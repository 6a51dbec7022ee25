package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/types"
	"github.com/okian/vigil/pkg/logger"
)

type chunk struct {
	batchID string
	rows    []engine.Input
}

type chunkResult struct {
	batchID  string
	ack      SubmitResponse
	err      error
	attempts int
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ChunkSize < 1 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.Workers < 1 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	if out.MaxRetries < 0 {
		out.MaxRetries = 0
	} else if out.MaxRetries == 0 {
		out.MaxRetries = DefaultMaxRetries
	}
	if out.BatchPrefix == "" {
		out.BatchPrefix = "vigilctl-" + time.Now().UTC().Format("20060102T150405")
	}
	return out
}

// Run submits rows in chunks with concurrent workers and, when configured,
// waits for every accepted batch to complete.
func Run(ctx context.Context, config *Config, rows []engine.Input) (Stats, error) {
	cfg := config.withDefaults()
	stats := Stats{StartTime: time.Now(), Rows: len(rows)}
	log := logger.Get().Named("client")

	log.Info(ctx, "starting submission",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("rows", len(rows)),
		logger.Int("chunkSize", cfg.ChunkSize),
		logger.Int("workers", cfg.Workers),
	)

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	results := submitChunks(ctx, &cfg, client, split(rows, cfg.ChunkSize, cfg.BatchPrefix))

	var accepted []string
	var errs []error
	for _, res := range results {
		stats.Batches++
		if res.err != nil {
			stats.Rejected++
			errs = append(errs, fmt.Errorf("batch %s: %w", res.batchID, res.err))
			continue
		}
		stats.Accepted += res.ack.Accepted
		stats.Duplicates += res.ack.Duplicates
		accepted = append(accepted, res.batchID)
	}
	log.Info(ctx, "submission completed",
		logger.Int("batches", stats.Batches),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
	)

	if cfg.Wait {
		for _, id := range accepted {
			st, err := waitBatch(ctx, client, id, cfg.PollInterval)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			stats.Completed += st.Completed
			stats.Failed += st.Failed
		}
		if err := verify(&stats); err != nil {
			errs = append(errs, err)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, &stats)

	return stats, errors.Join(errs...)
}

// split cuts rows into consecutive chunks named prefix-N.
func split(rows []engine.Input, size int, prefix string) []chunk {
	var out []chunk
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, chunk{batchID: fmt.Sprintf("%s-%d", prefix, len(out)), rows: rows[start:end]})
	}
	return out
}

// submitChunks submits chunks concurrently using a worker pool. Results keep
// the chunk order.
func submitChunks(ctx context.Context, cfg *Config, client *HTTPClient, chunks []chunk) []chunkResult {
	results := make([]chunkResult, len(chunks))
	work := make(chan int, cfg.Workers*workerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = submitChunk(ctx, cfg, client, chunks[i])
			}
		}()
	}

	for i := range chunks {
		select {
		case <-ctx.Done():
			results[i] = chunkResult{batchID: chunks[i].batchID, err: ctx.Err()}
			continue
		case work <- i:
		}
	}
	close(work)
	wg.Wait()
	return results
}

// submitChunk submits one chunk, retrying backpressure rejections.
func submitChunk(ctx context.Context, cfg *Config, client *HTTPClient, c chunk) chunkResult {
	res := chunkResult{batchID: c.batchID}
	for {
		res.attempts++
		res.ack, res.err = client.Submit(ctx, c.batchID, c.rows)
		if !errors.Is(res.err, ErrBackpressure) || res.attempts > cfg.MaxRetries {
			return res
		}
		select {
		case <-ctx.Done():
			res.err = ctx.Err()
			return res
		case <-time.After(retryBackoff * time.Duration(res.attempts)):
		}
	}
}

// waitBatch polls a batch until it is complete.
func waitBatch(ctx context.Context, client *HTTPClient, batchID string, interval time.Duration) (types.BatchStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := client.Batch(ctx, batchID)
		if err != nil {
			return st, err
		}
		if st.State == types.BatchComplete {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, fmt.Errorf("batch %s: %w", batchID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// verify checks that every accepted row was stored.
func verify(stats *Stats) error {
	if stats.Completed != stats.Accepted {
		return fmt.Errorf("completed %d rows, accepted %d", stats.Completed, stats.Accepted)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var rowsPerSecond float64
	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.Accepted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("rows", stats.Rows),
		logger.Int("batches", stats.Batches),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
		logger.Int("completed", stats.Completed),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("rowsPerSecond", rowsPerSecond),
	)
}
