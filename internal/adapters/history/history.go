// Package history persists answered items for later model training.
package history

import (
	"context"
	"sync"

	"github.com/somaedu/adapt/internal/domain/model"
)

// Recorder writes answer records to durable storage.
type Recorder interface {
	Record(ctx context.Context, rec model.AnswerRecord) error
}

const defaultMemoryCapacity = 10_000

// MemoryRecorder keeps the most recent answers in a ring buffer. It
// backs single-node deployments and tests.
type MemoryRecorder struct {
	mu       sync.RWMutex
	buf      []model.AnswerRecord
	next     int
	wrapped  bool
	capacity int
}

// NewMemoryRecorder creates a recorder holding up to capacity answers.
// A capacity <= 0 uses the default.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryRecorder{
		buf:      make([]model.AnswerRecord, capacity),
		capacity: capacity,
	}
}

func (r *MemoryRecorder) Record(_ context.Context, rec model.AnswerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = rec
	r.next++
	if r.next == r.capacity {
		r.next = 0
		r.wrapped = true
	}
	return nil
}

// Records returns the stored answers, oldest first.
func (r *MemoryRecorder) Records() []model.AnswerRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.wrapped {
		out := make([]model.AnswerRecord, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]model.AnswerRecord, 0, r.capacity)
	out = append(out, r.buf[r.next:]...)
	out = append(out, r.buf[:r.next]...)
	return out
}
