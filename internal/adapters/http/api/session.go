// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/somaedu/adapt/internal/adapters/oracle"
)

// startRequest mirrors the OpenAPI schema for POST /session/start.
type startRequest struct {
	SubjectID int64  `json:"subject_id"`
	StudentID string `json:"student_id"`
	MaxItems  int    `json:"max_items"`
}

func (r startRequest) validate() error {
	if r.SubjectID <= 0 {
		return errors.New("missing subject_id")
	}
	if r.MaxItems < 0 {
		return errors.New("max_items must not be negative")
	}
	return nil
}

// answerRequest mirrors the OpenAPI schema for POST /session/{id}/answer.
type answerRequest struct {
	SubjectID int64   `json:"subject_id"`
	ItemID    int64   `json:"item_id"`
	OptionID  int64   `json:"option_id"`
	RawValue  float64 `json:"raw_value"`
}

func (r answerRequest) validate() error {
	if r.SubjectID <= 0 {
		return errors.New("missing subject_id")
	}
	if r.ItemID <= 0 {
		return errors.New("missing item_id")
	}
	return nil
}

type endResponse struct {
	Status string `json:"status"`
}

// SessionHandler handles the session lifecycle endpoints.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleStart handles POST /session/start requests.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.StartSession(r.Context(), req.SubjectID, req.StudentID, req.MaxItems)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandleSession handles POST /session/{id}/next, /session/{id}/answer
// and /session/{id}/end requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// Expected shape: /session/{id}/{action}
	rest := strings.TrimPrefix(r.URL.Path, "/session/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("expected /session/{id}/{next|answer|end}"))
		return
	}
	sessionID, action := parts[0], parts[1]

	switch action {
	case "next":
		h.handleNext(w, r, sessionID)
	case "answer":
		h.handleAnswer(w, r, sessionID)
	case "end":
		h.handleEnd(w, r, sessionID)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("unknown session action"))
	}
}

func (h *SessionHandler) handleNext(w http.ResponseWriter, r *http.Request, sessionID string) {
	res, err := h.deps.NextItem(r.Context(), sessionID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) handleAnswer(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("invalid JSON body"))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	res, err := h.deps.RecordAnswer(r.Context(), sessionID, req.SubjectID, req.ItemID, req.OptionID, req.RawValue)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) handleEnd(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := h.deps.EndSession(r.Context(), sessionID); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, endResponse{Status: "ended"})
}

// writeUpstreamError maps service errors onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, oracle.ErrNotTrained):
		writeError(w, http.StatusBadRequest, "not_trained", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
