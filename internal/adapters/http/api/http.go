// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/types"
)

// Request limits.
const (
	maxBodyBytes = 16 << 20
	maxRows      = 10000
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Classify evaluates rows synchronously. Row failures are reported per
	// outcome; the error covers the whole request.
	Classify(ctx context.Context, rows []engine.Input) ([]engine.Outcome, error)

	// Submit queues rows for asynchronous evaluation under batchID, or a
	// new ID when empty.
	Submit(ctx context.Context, batchID string, rows []engine.Input) (types.Submission, error)

	// Batch returns the progress and stored records of a batch.
	Batch(ctx context.Context, batchID string) (types.BatchStatus, error)

	// Record returns the stored result of one record.
	Record(ctx context.Context, recordID string) (repository.Record, error)

	// Describe looks up a catalog text. An empty locale selects the
	// configured one.
	Describe(kind locale.Kind, code, loc string) (string, error)
}

// Server wires HTTP routes for the classification API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	classifyHandler    *ClassifyHandler
	batchesHandler     *BatchesHandler
	recordsHandler     *RecordsHandler
	descriptionHandler *DescriptionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		classifyHandler:    NewClassifyHandler(deps),
		batchesHandler:     NewBatchesHandler(deps),
		recordsHandler:     NewRecordsHandler(deps),
		descriptionHandler: NewDescriptionHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.Use(RequestIDMiddleware)

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify")).Methods(http.MethodPost)
	v1.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandleSubmit, "batches_submit")).Methods(http.MethodPost)
	v1.HandleFunc("/batches/{id}", MetricsMiddleware(s.batchesHandler.HandleGetBatch, "batches_get")).Methods(http.MethodGet)
	v1.HandleFunc("/records/{id}", MetricsMiddleware(s.recordsHandler.HandleGetRecord, "records")).Methods(http.MethodGet)
	v1.HandleFunc("/descriptions/{kind}/{code}", MetricsMiddleware(s.descriptionHandler.HandleDescribe, "descriptions")).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", NewKind("api.route", ErrNotFound))
	})
}

// rowsRequest is the body of POST /v1/classify and POST /v1/batches.
type rowsRequest struct {
	BatchID string         `json:"batch_id,omitempty"`
	Rows    []engine.Input `json:"rows"`
}

func (req rowsRequest) validate() error {
	switch {
	case len(req.Rows) == 0:
		return errors.New("missing rows")
	case len(req.Rows) > maxRows:
		return fmt.Errorf("too many rows: %d > %d", len(req.Rows), maxRows)
	}
	for i, row := range req.Rows {
		if row.RecordID == "" {
			return fmt.Errorf("rows[%d]: missing record_id", i)
		}
	}
	return nil
}

func decodeRows(w http.ResponseWriter, r *http.Request, op string) (rowsRequest, error) {
	var req rowsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, WrapKind(op, ErrBadRequest, err)
	}
	if err := req.validate(); err != nil {
		return req, WrapKind(op, ErrBadRequest, err)
	}
	return req, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
