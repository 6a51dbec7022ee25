// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/adapters/mq/worker"
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/dedupe"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/prediction"
	"github.com/okian/vigil/internal/domain/types"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// ErrNotStarted is returned by asynchronous operations before Start.
var ErrNotStarted = fmt.Errorf("service not started: %w", queue.ErrClosed)

// Service implements the API dependencies for the classification system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine     *engine.Engine
	engineOpts []engine.Option
	ensemble   *prediction.Ensemble
	store      repository.Store
	deduper    dedupe.Deduper
	jobs       *queue.InMemoryQueue
	pool       *worker.Pool
	publisher  worker.Publisher
	batches    *tracker

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the shard count of the default in-memory store.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngineOptions configures the engine built by New.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithEngine uses e instead of building an engine. Engine options are
// ignored when set.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithStore sets the result store. The default is a sharded in-memory store
// created on Start.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithPublisher forwards every stored record to p.
func WithPublisher(p worker.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithEnsemble fills predictions of rows that carry a ground truth but no
// predictions.
func WithEnsemble(e *prediction.Ensemble) Option {
	return func(s *Service) {
		s.ensemble = e
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 4,
		queueSize:   100000,
		dedupeSize:  500000,
		shardCount:  16,
		batches:     newTracker(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.engine == nil {
		s.engine = engine.New(s.engineOpts...)
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Engine returns the row engine.
func (s *Service) Engine() *engine.Engine { return s.engine }

// Start initializes and starts the asynchronous components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting classification service...")

	if s.store == nil {
		s.store = repository.NewShardedStore(ctx, repository.WithShards(s.shardCount))
		s.logger.Info(ctx, "using sharded store", logger.Int("shards", s.shardCount))
	}
	s.jobs = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)

	wopts := []worker.Option{worker.WithOnDone(s.batches.complete)}
	if s.publisher != nil {
		wopts = append(wopts, worker.WithPublisher(s.publisher))
	}
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.engine, s.store, wopts...)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "classification service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("locale", s.engine.Locale()),
	)

	return nil
}

// Stop drains the queue and releases the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping classification service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error(ctx, "store close failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "classification service stopped")
}

// predict fills missing predictions with the ensemble. When the ensemble
// fails, every row it was asked to fill is returned in failed with a
// per-row error; the other rows are untouched.
func (s *Service) predict(ctx context.Context, rows []engine.Input) (out []engine.Input, failed map[int]error) {
	if s.ensemble == nil {
		return rows, nil
	}
	var idx []int
	var pending []engine.Input
	for i, row := range rows {
		if row.GroundTruth != "" && len(row.Predictions) == 0 {
			idx = append(idx, i)
			pending = append(pending, row)
		}
	}
	if len(pending) == 0 {
		return rows, nil
	}

	filled, _, err := s.ensemble.Run(ctx, pending)
	if err != nil {
		s.logger.Warn(ctx, "ensemble failed", logger.Int("rows", len(idx)), logger.Error(err))
		failed = make(map[int]error, len(idx))
		for _, i := range idx {
			failed[i] = fmt.Errorf("record %q: %w", rows[i].RecordID, err)
			metrics.RecordRowError(engine.ErrorKind(err))
		}
		return rows, failed
	}

	out = make([]engine.Input, len(rows))
	copy(out, rows)
	for j, i := range idx {
		out[i] = filled[j]
	}
	return out, nil
}

// Classify evaluates rows synchronously. Rows whose predictions could not
// be filled fail on their own; the rest are evaluated.
func (s *Service) Classify(ctx context.Context, rows []engine.Input) ([]engine.Outcome, error) {
	rows, failed := s.predict(ctx, rows)
	if len(failed) == 0 {
		return s.engine.EvaluateBatch(ctx, rows)
	}

	keep := make([]engine.Input, 0, len(rows)-len(failed))
	pos := make([]int, 0, len(rows)-len(failed))
	for i, row := range rows {
		if _, ok := failed[i]; !ok {
			keep = append(keep, row)
			pos = append(pos, i)
		}
	}
	evaluated, err := s.engine.EvaluateBatch(ctx, keep)

	out := make([]engine.Outcome, len(rows))
	for i, ferr := range failed {
		out[i] = engine.Outcome{Index: i, Input: rows[i], Err: ferr}
	}
	for j, o := range evaluated {
		o.Index = pos[j]
		out[pos[j]] = o
	}
	return out, err
}

// Submit queues rows for asynchronous evaluation. Rows whose record ID was
// already submitted are counted as duplicates and skipped. A full queue
// stops the submission; rows queued before it stay queued.
func (s *Service) Submit(ctx context.Context, batchID string, rows []engine.Input) (types.Submission, error) {
	s.mu.RLock()
	started, jobs := s.started, s.jobs
	s.mu.RUnlock()
	if !started {
		return types.Submission{}, ErrNotStarted
	}

	if batchID == "" {
		batchID = uuid.NewString()
	}
	sub := types.Submission{BatchID: batchID}

	rows, failed := s.predict(ctx, rows)

	s.batches.open(batchID)
	for i, row := range rows {
		if s.deduper.SeenAndRecord(ctx, row.RecordID) {
			metrics.RecordDuplicate()
			sub.Duplicates++
			continue
		}
		s.batches.add(batchID)
		if err := jobs.Enqueue(ctx, queue.Job{BatchID: batchID, Index: i, Input: row, Err: failed[i]}); err != nil {
			s.batches.remove(batchID)
			s.deduper.Unrecord(ctx, row.RecordID)
			s.logger.Warn(ctx, "enqueue failed",
				logger.String("batch_id", batchID),
				logger.String("record_id", row.RecordID),
				logger.Error(err),
			)
			return sub, fmt.Errorf("submit %s: %w", batchID, err)
		}
		sub.Accepted++
	}
	metrics.UpdateQueueSize(jobs.Len(ctx))

	s.logger.Debug(ctx, "batch submitted",
		logger.String("batch_id", batchID),
		logger.Int("accepted", sub.Accepted),
		logger.Int("duplicates", sub.Duplicates),
	)
	return sub, nil
}

// Batch returns the progress and stored records of a batch. Batches that
// were not submitted to this process are served from the store alone.
func (s *Service) Batch(ctx context.Context, batchID string) (types.BatchStatus, error) {
	st, tracked := s.batches.status(batchID)
	store := s.resultStore()
	if store == nil {
		if !tracked {
			return types.BatchStatus{}, fmt.Errorf("batch %q: %w", batchID, repository.ErrNotFound)
		}
		return st, nil
	}

	recs, err := store.ListBatch(ctx, batchID)
	switch {
	case errors.Is(err, repository.ErrNotFound) && tracked:
		recs = []repository.Record{}
	case err != nil:
		return types.BatchStatus{}, fmt.Errorf("batch %q: %w", batchID, err)
	}

	if !tracked {
		st = types.BatchStatus{BatchID: batchID, Total: len(recs), Completed: len(recs)}
		for _, rec := range recs {
			if rec.Failed() {
				st.Failed++
			}
		}
		st.State = types.StateOf(st.Total, st.Completed)
	}
	st.Records = recs
	return st, nil
}

// Record returns the stored result of one record.
func (s *Service) Record(ctx context.Context, recordID string) (repository.Record, error) {
	store := s.resultStore()
	if store == nil {
		return repository.Record{}, fmt.Errorf("record %q: %w", recordID, repository.ErrNotFound)
	}
	return store.Get(ctx, recordID)
}

// Describe looks up a catalog text. An empty locale selects the engine's.
func (s *Service) Describe(kind locale.Kind, code, loc string) (string, error) {
	if loc == "" {
		loc = s.engine.Locale()
	}
	if _, err := locale.Canonical(loc); err != nil {
		return "", err
	}
	return s.engine.Catalog().Describe(kind, code, loc), nil
}

func (s *Service) resultStore() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"locale":      s.engine.Locale(),
		"seenRecords": s.deduper.Size(),
		"batches":     s.batches.len(),
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		totalRecords := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalRecords"] = totalRecords
		stats["activeWorkers"] = s.pool.Active()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRepositoryRecordsTotal(totalRecords)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// batchProgress counts the rows of one submitted batch.
type batchProgress struct {
	total       int
	completed   int
	failed      int
	submittedAt time.Time
}

// tracker follows batches submitted to this process.
type tracker struct {
	mu      sync.Mutex
	batches map[string]*batchProgress
}

func newTracker() *tracker {
	return &tracker{batches: make(map[string]*batchProgress)}
}

func (t *tracker) open(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.batches[batchID]; !ok {
		t.batches[batchID] = &batchProgress{submittedAt: time.Now().UTC()}
	}
}

func (t *tracker) add(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches[batchID].total++
}

func (t *tracker) remove(batchID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches[batchID].total--
}

func (t *tracker) complete(rec repository.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.batches[rec.BatchID]
	if !ok {
		return
	}
	b.completed++
	if rec.Failed() {
		b.failed++
	}
}

func (t *tracker) status(batchID string) (types.BatchStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.batches[batchID]
	if !ok {
		return types.BatchStatus{}, false
	}
	return types.BatchStatus{
		BatchID:     batchID,
		State:       types.StateOf(b.total, b.completed),
		Total:       b.total,
		Completed:   b.completed,
		Failed:      b.failed,
		SubmittedAt: b.submittedAt,
	}, true
}

func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.batches)
}
