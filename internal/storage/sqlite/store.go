package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"todo/internal/models"
	"todo/internal/storage"
)

// Store persists todo items in SQLite and notifies subscribers with a
// full snapshot after every successful mutation.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	hub    storage.Hub
}

const itemColumns = `id, title, description, priority, completed, category, position, created_at, updated_at`

// Open initializes the SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS todos (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            priority INTEGER NOT NULL DEFAULT 2,
            completed INTEGER NOT NULL DEFAULT 0,
            category TEXT NOT NULL DEFAULT 'personal',
            position INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_todos_position ON todos(position);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Create inserts a new item at the end of the list. The order value is
// the current maximum plus one, so the first item in an empty list gets 1.
func (s *Store) Create(ctx context.Context, item models.Item) (models.Item, error) {
	max, err := s.maxOrder(ctx)
	if err != nil {
		s.logger.Error("add item failed", slog.String("error", err.Error()))
		return models.Item{}, fmt.Errorf("add item: %w", err)
	}

	now := time.Now().UTC()
	item.ID = ulid.Make().String()
	item.Order = max + 1
	item.CreatedAt = now
	item.UpdatedAt = now
	item.Title = strings.TrimSpace(item.Title)
	if !item.Category.Valid() {
		item.Category = models.CategoryPersonal
	}
	if !models.ValidPriority(item.Priority) {
		item.Priority = models.PriorityMedium
	}

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO todos (id, title, description, priority, completed, category, position, created_at, updated_at)
        VALUES (:id, :title, :description, :priority, :completed, :category, :position, :created_at, :updated_at)`, item)
	if err != nil {
		s.logger.Error("add item failed", slog.String("error", err.Error()))
		return models.Item{}, fmt.Errorf("add item: %w", err)
	}

	s.notify(ctx)
	return item, nil
}

// Update applies the patch to the stored item without reading it first;
// concurrent writers are resolved last-writer-wins per field.
func (s *Store) Update(ctx context.Context, id string, patch models.Patch) (models.Item, error) {
	if err := patch.Validate(); err != nil {
		return models.Item{}, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *patch.Completed)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE todos SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		s.logger.Error("update item failed", slog.String("id", id), slog.String("error", err.Error()))
		return models.Item{}, fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Item{}, err
	}
	if affected == 0 {
		return models.Item{}, fmt.Errorf("item not found")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return models.Item{}, err
	}

	s.notify(ctx)
	return item, nil
}

// Reorder assigns each item's order to its zero-based index in the given
// list, all inside one transaction so other subscribers never observe a
// partially applied reorder.
func (s *Store) Reorder(ctx context.Context, items []models.Item) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error("reorder items failed", slog.String("error", err.Error()))
		return fmt.Errorf("reorder items: %w", err)
	}

	now := time.Now().UTC()
	for i, item := range items {
		res, err := tx.ExecContext(ctx, `UPDATE todos SET position = ?, updated_at = ? WHERE id = ?`, int64(i), now, item.ID)
		if err != nil {
			_ = tx.Rollback()
			s.logger.Error("reorder items failed", slog.String("id", item.ID), slog.String("error", err.Error()))
			return fmt.Errorf("reorder items: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reorder items: %w", err)
		}
		if affected == 0 {
			_ = tx.Rollback()
			return fmt.Errorf("reorder items: unknown id %s", item.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reorder items failed", slog.String("error", err.Error()))
		return fmt.Errorf("reorder items: %w", err)
	}

	s.notify(ctx)
	return nil
}

// Delete removes the item permanently. Once gone the id is never revived.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		s.logger.Error("delete item failed", slog.String("id", id), slog.String("error", err.Error()))
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item not found")
	}

	s.notify(ctx)
	return nil
}

// List returns all items ascending by order, ties broken by creation
// time and then id.
func (s *Store) List(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	err := s.db.SelectContext(ctx, &items, `SELECT `+itemColumns+` FROM todos ORDER BY position ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Get retrieves a single item by id.
func (s *Store) Get(ctx context.Context, id string) (models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM todos WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, fmt.Errorf("item not found")
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Subscribe registers a snapshot callback; the cancel function stops
// further deliveries.
func (s *Store) Subscribe(fn func([]models.Item)) func() {
	return s.hub.Subscribe(fn)
}

func (s *Store) maxOrder(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM todos`).Scan(&max); err != nil {
		return 0, fmt.Errorf("select max position: %w", err)
	}
	if max.Valid {
		return max.Int64, nil
	}
	return 0, nil
}

func (s *Store) notify(ctx context.Context) {
	items, err := s.List(ctx)
	if err != nil {
		s.logger.Error("snapshot after write failed", slog.String("error", err.Error()))
		return
	}
	s.hub.Publish(items)
}
