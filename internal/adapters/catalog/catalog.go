// Package catalog provides access to the question bank.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/somaedu/adapt/internal/domain/model"
)

// Catalog exposes the active question bank for a subject. Implementations
// return items in ascending id order.
type Catalog interface {
	ItemsForSubject(ctx context.Context, subjectID int64) ([]model.Item, error)
}

// MemoryCatalog is a seedable in-process catalog used in tests and
// single-node deployments.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[int64][]model.Item
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		items: make(map[int64][]model.Item),
	}
}

// Seed adds items to the catalog, grouped by their subject.
func (c *MemoryCatalog) Seed(items ...model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range items {
		c.items[it.SubjectID] = append(c.items[it.SubjectID], it)
	}
	for subject := range c.items {
		sort.Slice(c.items[subject], func(i, j int) bool {
			return c.items[subject][i].ID < c.items[subject][j].ID
		})
	}
}

func (c *MemoryCatalog) ItemsForSubject(_ context.Context, subjectID int64) ([]model.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	src := c.items[subjectID]
	out := make([]model.Item, len(src))
	copy(out, src)
	return out, nil
}
