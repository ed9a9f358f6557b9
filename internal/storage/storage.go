// Package storage defines the item store gateway contract shared by the
// SQLite and in-memory backends.
package storage

import (
	"context"
	"sync"

	"todo/internal/models"
)

// Gateway is the store facade the rest of the application talks to. Every
// successful mutation is followed by a full re-sorted snapshot delivered
// to all subscribers; there is no incremental diff.
type Gateway interface {
	// Create assigns an id, order = max+1, and timestamps, then persists
	// the item. Zero values for priority and category fall back to
	// medium and personal.
	Create(ctx context.Context, item models.Item) (models.Item, error)
	// Update merges the patch over the stored item and refreshes
	// UpdatedAt. Last writer wins; unknown ids are an error.
	Update(ctx context.Context, id string, patch models.Patch) (models.Item, error)
	// Reorder assigns each item's order to its zero-based index in the
	// given list, as one all-or-nothing batch.
	Reorder(ctx context.Context, items []models.Item) error
	// Delete removes the item permanently.
	Delete(ctx context.Context, id string) error
	// List returns all items sorted ascending by order, ties broken by
	// creation time.
	List(ctx context.Context) ([]models.Item, error)
	// Subscribe registers a snapshot callback and returns a cancel
	// function that stops further deliveries. Cancel does not affect
	// in-flight writes.
	Subscribe(fn func([]models.Item)) (cancel func())
}

// Hub fans complete snapshots out to registered subscribers. Callbacks
// run on the mutating goroutine and must not block.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func([]models.Item)
}

// Subscribe registers fn and returns its cancel function.
func (h *Hub) Subscribe(fn func([]models.Item)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func([]models.Item))
	}
	id := h.next
	h.next++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers the snapshot to every subscriber. Each subscriber
// receives its own copy; the list replaces whatever state it held.
func (h *Hub) Publish(items []models.Item) {
	h.mu.Lock()
	subs := make([]func([]models.Item), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		snapshot := make([]models.Item, len(items))
		copy(snapshot, items)
		fn(snapshot)
	}
}
