// Package repository defines the session store interface and its
// in-memory and Redis implementations.
package repository

import (
	"context"

	"github.com/somaedu/adapt/internal/domain/session"
)

// Store provides read/write access to assessment session state.
type Store interface {
	// Get returns the session with the given id.
	// Returns session.ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Save persists the session, overwriting any previous state.
	Save(ctx context.Context, s *session.Session) error

	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of sessions currently stored.
	Count(ctx context.Context) (int, error)
}
