package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vigil/internal/adapters/repository"
)

// RecordDependencies defines the interface for record lookups.
type RecordDependencies interface {
	Record(ctx context.Context, recordID string) (repository.Record, error)
}

// RecordsHandler handles record requests.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleGetRecord handles GET /v1/records/{id} requests.
func (h *RecordsHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.deps.Record(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
