// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are portable between PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	return CreateSchemaContext(context.Background(), db)
}

func CreateSchemaContext(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Tables lists every table in dependency order, for resets in tests and tools.
var Tables = []string{"region_adjustment", "adjustment", "vote", "item_category", "item"}

var schema = []string{
	// Items (read-only to the voting core)
	`CREATE TABLE IF NOT EXISTS item (
		id BIGINT PRIMARY KEY,
		title TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_created_at ON item(created_at)`,

	`CREATE TABLE IF NOT EXISTS item_category (
		item_id BIGINT NOT NULL,
		category TEXT NOT NULL,
		PRIMARY KEY (item_id, category)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_category_category ON item_category(category)`,

	// Votes: one row per (item, voter)
	`CREATE TABLE IF NOT EXISTS vote (
		item_id BIGINT NOT NULL,
		voter_identity TEXT NOT NULL,
		choice INTEGER NOT NULL CHECK (choice >= 0),
		region_code VARCHAR(10) NOT NULL DEFAULT '',
		user_agent VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (item_id, voter_identity)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_item ON vote(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_vote_item_region ON vote(item_id, region_code)`,

	// Overall adjustments
	`CREATE TABLE IF NOT EXISTS adjustment (
		item_id BIGINT NOT NULL,
		option_index INTEGER NOT NULL,
		adj INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (item_id, option_index)
	)`,

	// Regional adjustments
	`CREATE TABLE IF NOT EXISTS region_adjustment (
		region_code VARCHAR(10) NOT NULL,
		item_id BIGINT NOT NULL,
		option_index INTEGER NOT NULL,
		adj INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (region_code, item_id, option_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_region_adjustment_item ON region_adjustment(item_id)`,
}
