package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/vigil/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMetricsUpdateInterval = 5 * time.Second
)

type shard struct {
	mu      sync.RWMutex
	byID    map[string]Record
	batches map[string]map[string]struct{}
}

// ShardedStore is an in-memory Store partitioned by record ID hash.
type ShardedStore struct {
	shards                []*shard
	mask                  uint64
	shardCount            int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewShardedStore constructs a sharded store and starts its metrics updater.
func NewShardedStore(ctx context.Context, opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	n := 1
	for n < s.shardCount {
		n <<= 1
	}
	s.shardCount = n
	s.mask = uint64(n - 1)
	s.shards = make([]*shard, n)
	for i := range s.shards {
		s.shards[i] = &shard{
			byID:    make(map[string]Record),
			batches: make(map[string]map[string]struct{}),
		}
	}

	metrics.UpdateRepositoryShardCount(n)
	s.startMetricsUpdater(ctx)
	return s
}

func (s *ShardedStore) shardFor(recordID string) *shard {
	return s.shards[xxhash.Sum64String(recordID)&s.mask]
}

// Save implements Store.Save.
func (s *ShardedStore) Save(ctx context.Context, rec Record) error {
	if rec.RecordID == "" {
		return ErrInvalidRecord
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositorySaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sh := s.shardFor(rec.RecordID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if prev, ok := sh.byID[rec.RecordID]; ok && prev.BatchID != rec.BatchID {
		if ids := sh.batches[prev.BatchID]; ids != nil {
			delete(ids, rec.RecordID)
			if len(ids) == 0 {
				delete(sh.batches, prev.BatchID)
			}
		}
	}
	sh.byID[rec.RecordID] = rec
	ids := sh.batches[rec.BatchID]
	if ids == nil {
		ids = make(map[string]struct{})
		sh.batches[rec.BatchID] = ids
	}
	ids[rec.RecordID] = struct{}{}
	return nil
}

// Get implements Store.Get.
func (s *ShardedStore) Get(ctx context.Context, recordID string) (Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sh := s.shardFor(recordID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.byID[recordID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// ListBatch implements Store.ListBatch.
func (s *ShardedStore) ListBatch(ctx context.Context, batchID string) ([]Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var out []Record
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id := range sh.batches[batchID] {
			out = append(out, sh.byID[id])
		}
		sh.mu.RUnlock()
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	sortRecords(out)
	return out, nil
}

// Count implements Store.Count.
func (s *ShardedStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.byID)
		sh.mu.RUnlock()
	}
	return total
}

// Close stops the metrics updater.
func (s *ShardedStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *ShardedStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
			}
		}
	}()
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Index != recs[j].Index {
			return recs[i].Index < recs[j].Index
		}
		return recs[i].RecordID < recs[j].RecordID
	})
}
