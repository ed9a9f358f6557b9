package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"

	"todo/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "todo.db"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustCreate(t *testing.T, store *Store, title string) models.Item {
	t.Helper()
	item, err := store.Create(context.Background(), models.Item{Title: title})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return item
}

func TestCreateAssignsIncreasingOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n := 5
	var prev int64
	for i := 0; i < n; i++ {
		item := mustCreate(t, store, "task")
		if item.Order <= prev {
			t.Fatalf("order not strictly increasing: %d after %d", item.Order, prev)
		}
		prev = item.Order
	}

	items, err := store.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(items), n)
	assert.Equal(t, items[n-1].Order, int64(n))
}

func TestCreateAppliesDefaults(t *testing.T) {
	store := openTestStore(t)

	item := mustCreate(t, store, "task")
	assert.Equal(t, item.Priority, models.PriorityMedium)
	assert.Equal(t, item.Category, models.CategoryPersonal)
	assert.Equal(t, item.Completed, false)
	assert.NotEqual(t, item.ID, "")
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)
}

func TestReorderIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, store, "a")
	b := mustCreate(t, store, "b")
	c := mustCreate(t, store, "c")

	reversed := []models.Item{c, b, a}
	assert.Equal(t, store.Reorder(ctx, reversed), nil)
	assert.Equal(t, store.Reorder(ctx, reversed), nil)

	items, err := store.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(items), 3)
	for i, want := range []string{"c", "b", "a"} {
		assert.Equal(t, items[i].Title, want)
		assert.Equal(t, items[i].Order, int64(i))
	}
}

func TestDeleteIsAbsorbing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, store, "a")
	b := mustCreate(t, store, "b")

	assert.Equal(t, store.Delete(ctx, a.ID), nil)

	items, err := store.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].ID, b.ID)

	done := true
	_, err = store.Update(ctx, a.ID, models.Patch{Completed: &done})
	assert.NotEqual(t, err, nil)

	// A reorder naming the deleted id fails as a whole and leaves the
	// surviving orders untouched.
	err = store.Reorder(ctx, []models.Item{a, b})
	assert.NotEqual(t, err, nil)

	items, err = store.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(items), 1)
	assert.Equal(t, items[0].Order, b.Order)
}

func TestUpdateMergesAndRefreshesTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	item := mustCreate(t, store, "write report")

	done := true
	priority := models.PriorityHigh
	updated, err := store.Update(ctx, item.ID, models.Patch{Completed: &done, Priority: &priority})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Completed, true)
	assert.Equal(t, updated.Priority, models.PriorityHigh)
	assert.Equal(t, updated.Title, "write report")
	assert.Equal(t, updated.Order, item.Order)
	if updated.UpdatedAt.Before(item.UpdatedAt) {
		t.Fatalf("updated_at went backwards: %v -> %v", item.UpdatedAt, updated.UpdatedAt)
	}

	badCategory := models.Category("chores")
	_, err = store.Update(ctx, item.ID, models.Patch{Category: &badCategory})
	assert.NotEqual(t, err, nil)
}

func TestSubscribeDeliversFullSnapshots(t *testing.T) {
	store := openTestStore(t)

	snapshots := make(chan []models.Item, 16)
	cancel := store.Subscribe(func(items []models.Item) {
		snapshots <- items
	})

	mustCreate(t, store, "a")
	got := <-snapshots
	assert.Equal(t, len(got), 1)
	assert.Equal(t, got[0].Title, "a")

	mustCreate(t, store, "b")
	got = <-snapshots
	assert.Equal(t, len(got), 2)

	cancel()
	mustCreate(t, store, "c")

	// Publishing happens before Create returns, so no delivery after
	// cancel means none will come.
	select {
	case extra := <-snapshots:
		t.Fatalf("snapshot after cancel: %d items", len(extra))
	default:
	}
}

// Walks the documented end-to-end scenario: create, create, reorder,
// then complete one item.
func TestCreateReorderCompleteScenario(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	milk, err := store.Create(ctx, models.Item{Title: "Buy milk", Priority: models.PriorityMedium, Category: models.CategoryPersonal})
	assert.Equal(t, err, nil)
	assert.Equal(t, milk.Order, int64(1))
	assert.Equal(t, milk.Completed, false)

	report, err := store.Create(ctx, models.Item{Title: "Write report"})
	assert.Equal(t, err, nil)
	assert.Equal(t, report.Order, int64(2))

	assert.Equal(t, store.Reorder(ctx, []models.Item{report, milk}), nil)

	items, err := store.List(ctx)
	assert.Equal(t, err, nil)
	assert.Equal(t, items[0].Title, "Write report")
	assert.Equal(t, items[0].Order, int64(0))
	assert.Equal(t, items[1].Title, "Buy milk")
	assert.Equal(t, items[1].Order, int64(1))

	done := true
	updated, err := store.Update(ctx, milk.ID, models.Patch{Completed: &done})
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Completed, true)
	assert.Equal(t, updated.Order, int64(1))
}
