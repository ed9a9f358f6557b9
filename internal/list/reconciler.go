// Package list owns the client-visible ordered todo list and reconciles
// optimistic local edits against authoritative store snapshots.
package list

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"todo/internal/models"
	"todo/internal/storage"
)

// Reconciler holds the current ordered sequence of items. Every snapshot
// delivered by the gateway replaces the whole view; the in-memory mirror
// is disposable and rebuildable from the next snapshot.
//
// A nil gateway puts the reconciler in local-only mode: mutations change
// the in-memory list directly and nothing is persisted or synced.
type Reconciler struct {
	mu    sync.Mutex
	items []models.Item

	gw     storage.Gateway
	logger *slog.Logger

	cancel    func()
	closeOnce sync.Once
}

// New builds a reconciler over the given gateway.
func New(gw storage.Gateway, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{gw: gw, logger: logger}
}

// Attach loads the initial snapshot and subscribes to further updates.
// Close must be called exactly once afterwards to release the
// subscription.
func (r *Reconciler) Attach(ctx context.Context) error {
	if r.gw == nil {
		return nil
	}
	items, err := r.gw.List(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	r.replace(items)
	r.cancel = r.gw.Subscribe(r.replace)
	return nil
}

// Close releases the snapshot subscription. In-flight writes are not
// affected. Subsequent calls are no-ops.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
}

// replace installs a snapshot as the new authoritative state.
func (r *Reconciler) replace(items []models.Item) {
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
}

// Items returns a copy of the current view.
func (r *Reconciler) Items() []models.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Item, len(r.items))
	copy(out, r.items)
	return out
}

// Add creates a new item. With a gateway the local list is not touched;
// the next snapshot supplies the item.
func (r *Reconciler) Add(ctx context.Context, item models.Item) (models.Item, error) {
	if r.gw != nil {
		return r.gw.Create(ctx, item)
	}

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

	r.mu.Lock()
	defer r.mu.Unlock()
	var max int64
	for _, it := range r.items {
		if it.Order > max {
			max = it.Order
		}
	}
	item.Order = max + 1
	r.items = append(r.items, item)
	return item, nil
}

// Update applies a partial change to one item.
func (r *Reconciler) Update(ctx context.Context, id string, patch models.Patch) (models.Item, error) {
	if r.gw != nil {
		return r.gw.Update(ctx, id, patch)
	}
	if err := patch.Validate(); err != nil {
		return models.Item{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			patch.Apply(&r.items[i])
			r.items[i].UpdatedAt = time.Now().UTC()
			return r.items[i], nil
		}
	}
	return models.Item{}, fmt.Errorf("item not found")
}

// Remove deletes one item. Deletion is absorbing; the id never comes back.
func (r *Reconciler) Remove(ctx context.Context, id string) error {
	if r.gw != nil {
		return r.gw.Delete(ctx, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item not found")
}

// Move shifts the item at index from to index to, applying the new order
// to local state immediately and persisting it in the background. A
// failed persist is only logged; the next snapshot corrects any
// divergence.
func (r *Reconciler) Move(from, to int) error {
	r.mu.Lock()
	moved, err := ArrayMove(r.items, from, to)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = moved
	if r.gw == nil {
		now := time.Now().UTC()
		for i := range r.items {
			r.items[i].Order = int64(i)
			r.items[i].UpdatedAt = now
		}
		r.mu.Unlock()
		return nil
	}
	snapshot := make([]models.Item, len(moved))
	copy(snapshot, moved)
	r.mu.Unlock()

	go func() {
		if err := r.gw.Reorder(context.Background(), snapshot); err != nil {
			r.logger.Error("persist reorder failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// ArrayMove returns a copy of items with the element at from moved to to.
// Everything between the two indexes shifts by exactly one position; the
// rest is unchanged.
func ArrayMove(items []models.Item, from, to int) ([]models.Item, error) {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, fmt.Errorf("move out of range: %d -> %d with %d items", from, to, n)
	}

	out := make([]models.Item, n)
	copy(out, items)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out, models.Item{})
	copy(out[to+1:], out[to:])
	out[to] = item
	return out, nil
}
