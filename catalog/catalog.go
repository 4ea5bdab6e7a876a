// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oobort/picpoll-lite/models"
)

var ErrNotFound = errors.New("item not found")

const (
	DefaultLimit = 30
	MaxLimit     = 200
)

// ListQuery filters the images listing.
type ListQuery struct {
	Limit      int
	Random     bool
	Categories []string
}

// ClampLimit applies the listing bounds: 0 means the default, then [1, 200].
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Store is the item catalog. The voting core only reads from it.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open connection; driverName selects the placeholder style.
func NewStore(db *sql.DB, driverName string) *Store {
	return &Store{db: sqlx.NewDb(db, driverName)}
}

// List returns items that have an image, newest first unless q.Random is set.
func (s *Store) List(ctx context.Context, q ListQuery) ([]models.Item, error) {
	filters := []string{"i.image_url <> ''"}
	var args []interface{}

	if cats := normalizeCategories(q.Categories); len(cats) > 0 {
		in, inArgs, err := sqlx.In("EXISTS (SELECT 1 FROM item_category c WHERE c.item_id = i.id AND c.category IN (?))", cats)
		if err != nil {
			return nil, fmt.Errorf("category filter: %w", err)
		}
		filters = append(filters, in)
		args = append(args, inArgs...)
	}

	order := "i.created_at DESC, i.id DESC"
	if q.Random {
		order = "RANDOM()"
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.title, i.image_url, i.excerpt, i.created_at
		FROM item i
		WHERE %s
		ORDER BY %s
		LIMIT ?`, strings.Join(filters, " AND "), order)
	args = append(args, ClampLimit(q.Limit))

	items := []models.Item{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// Get returns one item with its categories.
func (s *Store) Get(ctx context.Context, id int64) (models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, s.db.Rebind(`
		SELECT id, title, image_url, excerpt, created_at FROM item WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to get item: %w", err)
	}

	item.Categories = []string{}
	err = s.db.SelectContext(ctx, &item.Categories, s.db.Rebind(`
		SELECT category FROM item_category WHERE item_id = ? ORDER BY category
	`), id)
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to get item categories: %w", err)
	}
	return item, nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, s.db.Rebind(`
		SELECT EXISTS(SELECT 1 FROM item WHERE id = ?)
	`), id)
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return exists, nil
}

// Upsert creates or replaces an item and its categories.
func (s *Store) Upsert(ctx context.Context, item models.Item) error {
	if item.ID <= 0 {
		return errors.New("item id must be positive")
	}
	if strings.TrimSpace(item.Title) == "" {
		return errors.New("item title is required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO item (id, title, image_url, excerpt, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				image_url = excluded.image_url,
				excerpt = excluded.excerpt
		`), item.ID, strings.TrimSpace(item.Title), strings.TrimSpace(item.ImageURL), strings.TrimSpace(item.Excerpt), item.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert item: %w", err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM item_category WHERE item_id = ?`), item.ID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for _, cat := range normalizeCategories(item.Categories) {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO item_category (item_id, category) VALUES (?, ?)
			`), item.ID, cat); err != nil {
				return fmt.Errorf("insert category: %w", err)
			}
		}
		return nil
	})
}

// Delete removes an item and its categories. Votes and adjustments are
// purged by the caller through their own stores.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM item WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM item_category WHERE item_id = ?`), id); err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		return nil
	})
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// normalizeCategories lower-cases, trims and de-duplicates category slugs.
func normalizeCategories(cats []string) []string {
	seen := make(map[string]bool, len(cats))
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
