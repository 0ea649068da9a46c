package repository

import (
	"context"
	"sync"
	"time"

	"github.com/somaedu/adapt/internal/domain/session"
)

const (
	defaultTTL             = 2 * time.Hour
	defaultJanitorInterval = time.Minute
)

type memoryEntry struct {
	session   *session.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a TTL. A background
// janitor removes expired entries so abandoned sessions do not accumulate.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	ttl             time.Duration
	janitorInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory session store and starts its
// janitor. Call Close to stop the janitor.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:         make(map[string]memoryEntry),
		ttl:             defaultTTL,
		janitorInterval: defaultJanitorInterval,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, session.ErrNotFound
	}
	return entry.session.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sess.ID] = memoryEntry{
		session:   sess.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close stops the background janitor.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
