// Package repository stores row results by record and batch.
package repository

import (
	"context"
	"time"

	"github.com/okian/vigil/internal/domain/engine"
)

// Record is the stored outcome of one row. Exactly one of Result or Error is
// meaningful.
type Record struct {
	BatchID   string           `json:"batch_id"`
	RecordID  string           `json:"record_id"`
	Index     int              `json:"index"`
	Result    engine.RowResult `json:"result"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Failed reports whether the row failed evaluation.
func (r Record) Failed() bool { return r.Error != "" }

// NewRecord builds a record from a batch outcome.
func NewRecord(batchID string, o engine.Outcome) Record {
	rec := Record{
		BatchID:   batchID,
		RecordID:  o.Input.RecordID,
		Index:     o.Index,
		CreatedAt: time.Now().UTC(),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
		rec.ErrorKind = engine.ErrorKind(o.Err)
		return rec
	}
	rec.Result = o.Result
	return rec
}

// Store provides read/write access to row results.
type Store interface {
	// Save inserts or replaces the record with the same RecordID.
	Save(ctx context.Context, rec Record) error

	// Get returns the record for recordID or ErrNotFound.
	Get(ctx context.Context, recordID string) (Record, error)

	// ListBatch returns the records of a batch ordered by Index, or
	// ErrNotFound when the batch is unknown.
	ListBatch(ctx context.Context, batchID string) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
