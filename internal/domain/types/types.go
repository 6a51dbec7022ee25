// Package types contains the submission and batch shapes shared by the
// service and its transports.
package types

import (
	"time"

	"github.com/okian/vigil/internal/adapters/repository"
)

// Batch states.
const (
	BatchPending  = "pending"
	BatchRunning  = "running"
	BatchComplete = "complete"
)

// Submission acknowledges an asynchronous batch.
type Submission struct {
	BatchID    string `json:"batch_id"`
	Accepted   int    `json:"accepted"`
	Duplicates int    `json:"duplicates"`
}

// BatchStatus reports the progress and stored records of a batch.
type BatchStatus struct {
	BatchID     string              `json:"batch_id"`
	State       string              `json:"state"`
	Total       int                 `json:"total"`
	Completed   int                 `json:"completed"`
	Failed      int                 `json:"failed"`
	SubmittedAt time.Time           `json:"submitted_at,omitempty"`
	Records     []repository.Record `json:"records"`
}

// StateOf derives the batch state from its counters.
func StateOf(total, completed int) string {
	switch {
	case completed >= total:
		return BatchComplete
	case completed == 0:
		return BatchPending
	default:
		return BatchRunning
	}
}
