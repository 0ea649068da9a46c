// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

type reloadResponse struct {
	Status string `json:"status"`
}

// ModelHandler handles model lifecycle requests.
type ModelHandler struct {
	deps Dependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps Dependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleReload handles POST /model/reload requests. The trainer calls
// this after writing a new artifact so predictions refresh immediately.
func (h *ModelHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	if err := h.deps.ReloadModel(r.Context()); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Status: "reloaded"})
}
