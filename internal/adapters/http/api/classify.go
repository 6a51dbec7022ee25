package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/vigil/internal/domain/engine"
)

// ClassifyDependencies defines the synchronous evaluation dependency.
type ClassifyDependencies interface {
	Classify(ctx context.Context, rows []engine.Input) ([]engine.Outcome, error)
}

// ClassifyHandler handles synchronous classification requests.
type ClassifyHandler struct {
	deps ClassifyDependencies
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps ClassifyDependencies) *ClassifyHandler {
	return &ClassifyHandler{deps: deps}
}

type rowResponse struct {
	Index     int               `json:"index"`
	RecordID  string            `json:"record_id"`
	Result    *engine.RowResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	ErrorKind string            `json:"error_kind,omitempty"`
}

type classifyResponse struct {
	Results []rowResponse  `json:"results"`
	Summary engine.Summary `json:"summary"`
}

func newRowResponse(o engine.Outcome) rowResponse { //nolint:gocritic // hugeParam: Outcome mirrors the batch API
	resp := rowResponse{Index: o.Index, RecordID: o.Input.RecordID}
	if o.Err != nil {
		resp.Error = o.Err.Error()
		resp.ErrorKind = engine.ErrorKind(o.Err)
		return resp
	}
	res := o.Result
	resp.Result = &res
	return resp
}

// HandleClassify handles POST /v1/classify requests.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	req, err := decodeRows(w, r, op)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	outs, err := h.deps.Classify(r.Context(), req.Rows)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "canceled", WrapKind(op, ErrUnavailable, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	resp := classifyResponse{Results: make([]rowResponse, len(outs)), Summary: engine.Summarize(outs)}
	for i, o := range outs {
		resp.Results[i] = newRowResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}
