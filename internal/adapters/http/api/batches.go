package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/types"
)

// BatchDependencies defines the asynchronous submission dependencies.
type BatchDependencies interface {
	Submit(ctx context.Context, batchID string, rows []engine.Input) (types.Submission, error)
	Batch(ctx context.Context, batchID string) (types.BatchStatus, error)
}

// BatchesHandler handles batch submission and status requests.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

type submitResponse struct {
	Status string `json:"status"`
	types.Submission
}

// HandleSubmit handles POST /v1/batches requests.
func (h *BatchesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	req, err := decodeRows(w, r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sub, err := h.deps.Submit(r.Context(), req.BatchID, req.Rows)
	switch {
	case err == nil:
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	status := "accepted"
	if sub.Accepted == 0 {
		status = "duplicate"
	}
	writeJSON(w, http.StatusAccepted, submitResponse{Status: status, Submission: sub})
}

// HandleGetBatch handles GET /v1/batches/{id} requests.
func (h *BatchesHandler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	st, err := h.deps.Batch(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
