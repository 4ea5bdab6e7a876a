// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package adjust

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oobort/picpoll-lite/ledger"
)

var ErrInvalidAdjustment = errors.New("invalid adjustment")

// Store holds signed offsets applied on top of raw vote counts. Overall and
// regional offsets are separate key spaces: a regional lookup never falls
// back to the overall values. A missing row means 0.
type Store interface {
	Adjustments(ctx context.Context, itemID int64, region string) (map[int]int, error)
	Set(ctx context.Context, itemID int64, region string, option, adj int) error
	DeleteItem(ctx context.Context, itemID int64) error
}

func validate(itemID int64, option int) error {
	if itemID <= 0 {
		return fmt.Errorf("%w: item_id must be positive", ErrInvalidAdjustment)
	}
	if option < 0 {
		return fmt.Errorf("%w: option must not be negative", ErrInvalidAdjustment)
	}
	return nil
}

// SQLStore reads the adjustment and region_adjustment tables.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Adjustments(ctx context.Context, itemID int64, region string) (map[int]int, error) {
	region = ledger.SanitizeRegion(region)

	var (
		rows *sql.Rows
		err  error
	)
	if region == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT option_index, adj FROM adjustment WHERE item_id = $1
		`, itemID)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT option_index, adj FROM region_adjustment
			WHERE region_code = $1 AND item_id = $2
		`, region, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := make(map[int]int)
	for rows.Next() {
		var option, adj int
		if err := rows.Scan(&option, &adj); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments[option] = adj
	}
	return adjustments, rows.Err()
}

// Set upserts one offset. adj == 0 removes the row, which is equivalent.
func (s *SQLStore) Set(ctx context.Context, itemID int64, region string, option, adj int) error {
	if err := validate(itemID, option); err != nil {
		return err
	}
	region = ledger.SanitizeRegion(region)

	var err error
	switch {
	case region == "" && adj == 0:
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM adjustment WHERE item_id = $1 AND option_index = $2
		`, itemID, option)
	case region == "":
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO adjustment (item_id, option_index, adj)
			VALUES ($1, $2, $3)
			ON CONFLICT (item_id, option_index) DO UPDATE SET adj = excluded.adj
		`, itemID, option, adj)
	case adj == 0:
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM region_adjustment
			WHERE region_code = $1 AND item_id = $2 AND option_index = $3
		`, region, itemID, option)
	default:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO region_adjustment (region_code, item_id, option_index, adj)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (region_code, item_id, option_index) DO UPDATE SET adj = excluded.adj
		`, region, itemID, option, adj)
	}
	if err != nil {
		return fmt.Errorf("failed to set adjustment: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM adjustment WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("failed to delete adjustments: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM region_adjustment WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("failed to delete regional adjustments: %w", err)
	}
	return nil
}
