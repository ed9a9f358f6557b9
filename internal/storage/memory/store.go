// Package memory holds the todo list entirely in memory. Same gateway
// semantics as the SQLite store, no persistence. Used for local-only
// deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"todo/internal/models"
	"todo/internal/storage"
)

// Store is an in-memory item store.
type Store struct {
	mu    sync.Mutex
	items []models.Item
	hub   storage.Hub
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Create appends a new item with order = current max plus one.
func (s *Store) Create(ctx context.Context, item models.Item) (models.Item, error) {
	now := time.Now().UTC()
	item.ID = ulid.Make().String()
	item.CreatedAt = now
	item.UpdatedAt = now
	if !item.Category.Valid() {
		item.Category = models.CategoryPersonal
	}
	if !models.ValidPriority(item.Priority) {
		item.Priority = models.PriorityMedium
	}

	s.mu.Lock()
	var max int64
	for _, it := range s.items {
		if it.Order > max {
			max = it.Order
		}
	}
	item.Order = max + 1
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.notify()
	return item, nil
}

// Update merges the patch over the stored item.
func (s *Store) Update(ctx context.Context, id string, patch models.Patch) (models.Item, error) {
	if err := patch.Validate(); err != nil {
		return models.Item{}, err
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Item{}, fmt.Errorf("item not found")
	}
	patch.Apply(&s.items[idx])
	s.items[idx].UpdatedAt = time.Now().UTC()
	item := s.items[idx]
	s.mu.Unlock()

	s.notify()
	return item, nil
}

// Reorder renumbers the listed items by their position in the list. The
// whole batch is rejected when any id is unknown.
func (s *Store) Reorder(ctx context.Context, items []models.Item) error {
	s.mu.Lock()
	indexes := make([]int, len(items))
	for i, item := range items {
		idx := s.indexOf(item.ID)
		if idx < 0 {
			s.mu.Unlock()
			return fmt.Errorf("reorder items: unknown id %s", item.ID)
		}
		indexes[i] = idx
	}
	now := time.Now().UTC()
	for i, idx := range indexes {
		s.items[idx].Order = int64(i)
		s.items[idx].UpdatedAt = now
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Delete removes the item permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("item not found")
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	s.notify()
	return nil
}

// List returns a sorted copy of the current items.
func (s *Store) List(ctx context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Subscribe registers a snapshot callback.
func (s *Store) Subscribe(fn func([]models.Item)) func() {
	return s.hub.Subscribe(fn)
}

// indexOf must be called with the mutex held.
func (s *Store) indexOf(id string) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// snapshot must be called with the mutex held.
func (s *Store) snapshot() []models.Item {
	out := make([]models.Item, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) notify() {
	s.mu.Lock()
	items := s.snapshot()
	s.mu.Unlock()
	s.hub.Publish(items)
}

var _ storage.Gateway = (*Store)(nil)
