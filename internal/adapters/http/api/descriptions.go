package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/vigil/internal/domain/locale"
)

// DescriptionDependencies defines the catalog lookup dependency.
type DescriptionDependencies interface {
	Describe(kind locale.Kind, code, loc string) (string, error)
}

// DescriptionHandler handles catalog lookups.
type DescriptionHandler struct {
	deps DescriptionDependencies
}

// NewDescriptionHandler creates a new description handler.
func NewDescriptionHandler(deps DescriptionDependencies) *DescriptionHandler {
	return &DescriptionHandler{deps: deps}
}

type descriptionResponse struct {
	Kind        locale.Kind `json:"kind"`
	Code        string      `json:"code"`
	Locale      string      `json:"locale,omitempty"`
	Description string      `json:"description"`
}

// HandleDescribe handles GET /v1/descriptions/{kind}/{code}?locale= requests.
func (h *DescriptionHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	const op = "api.describe"
	vars := mux.Vars(r)
	kind, err := locale.ParseKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	loc := r.URL.Query().Get("locale")
	text, err := h.deps.Describe(kind, vars["code"], loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resp := descriptionResponse{Kind: kind, Code: vars["code"], Locale: loc, Description: text}
	if text == locale.NotFound {
		writeJSON(w, http.StatusNotFound, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
