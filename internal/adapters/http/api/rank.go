// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/somaedu/adapt/internal/domain/ranking"
)

// rankRequest mirrors the OpenAPI schema for POST /rank.
type rankRequest struct {
	SubjectID int64    `json:"subject_id"`
	RawTarget *float64 `json:"raw_target"`
	Exclude   []int64  `json:"exclude"`
	K         int      `json:"k"`
}

func (r rankRequest) validate() error {
	if r.SubjectID <= 0 {
		return errors.New("missing subject_id")
	}
	return nil
}

// RankHandler handles stateless ranking requests.
type RankHandler struct {
	deps Dependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleRank handles POST /rank requests.
func (h *RankHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.K == 0 {
		req.K = 1
	}

	res, err := h.deps.Rank(r.Context(), req.SubjectID, req.RawTarget, req.Exclude, req.K)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidK) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
