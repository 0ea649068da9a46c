// Package session holds the per-session state machine data for adaptive
// assessment runs.
package session

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// State of a session's lifecycle.
type State string

const (
	// StateActive means the session can still serve items.
	StateActive State = "active"
	// StateFinished is terminal; only End removes a finished session.
	StateFinished State = "finished"
)

// ProvisionalMaxItems is the effectively-unlimited item cap applied to
// sessions created by the lenient answer-recovery path.
const ProvisionalMaxItems = math.MaxInt32

// Session tracks one student's adaptive run through a subject.
// Mutations must be serialized per session id by the caller.
type Session struct {
	ID          string    `json:"id"`
	SubjectID   int64     `json:"subject_id"`
	StudentID   string    `json:"student_id,omitempty"`
	MaxItems    int       `json:"max_items"`
	Shown       int       `json:"shown"`
	Excluded    []int64   `json:"excluded"`
	LastTarget  float64   `json:"last_target"` // raw-value seed for the next ranking pass
	State       State     `json:"state"`
	Provisional bool      `json:"provisional,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New creates an active session with a fresh opaque token.
func New(subjectID int64, studentID string, maxItems int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		StudentID: studentID,
		MaxItems:  maxItems,
		State:     StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewProvisional creates a best-effort session for an answer arriving on
// an unknown session id. The caller's id is kept so follow-up calls keep
// working; the item cap is effectively unlimited.
func NewProvisional(id string, subjectID int64, rawTarget float64) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		SubjectID:   subjectID,
		MaxItems:    ProvisionalMaxItems,
		LastTarget:  rawTarget,
		State:       StateActive,
		Provisional: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Exclude adds itemID to the exclusion set if absent. The set only ever
// grows within a session's lifetime.
func (s *Session) Exclude(itemID int64) {
	if s.IsExcluded(itemID) {
		return
	}
	s.Excluded = append(s.Excluded, itemID)
}

// IsExcluded reports whether itemID was already shown.
func (s *Session) IsExcluded(itemID int64) bool {
	for _, id := range s.Excluded {
		if id == itemID {
			return true
		}
	}
	return false
}

// ExclusionSet returns the exclusion set keyed for ranking.
func (s *Session) ExclusionSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(s.Excluded))
	for _, id := range s.Excluded {
		set[id] = struct{}{}
	}
	return set
}

// Exhausted reports whether the session has served its item cap.
func (s *Session) Exhausted() bool {
	return s.Shown >= s.MaxItems
}

// Finish moves the session to the terminal state.
func (s *Session) Finish() {
	s.State = StateFinished
	s.UpdatedAt = time.Now().UTC()
}

// Serve records one served item: grows the exclusion set, bumps the
// shown count, and carries the item's raw curriculum value forward as
// the next target seed.
func (s *Session) Serve(itemID int64, standardValue float64) {
	s.Exclude(itemID)
	s.Shown++
	s.LastTarget = standardValue
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy, so stores can hand out sessions without
// aliasing the exclusion slice.
func (s *Session) Clone() *Session {
	c := *s
	c.Excluded = make([]int64, len(s.Excluded))
	copy(c.Excluded, s.Excluded)
	return &c
}
