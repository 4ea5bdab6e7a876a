// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

Open picks the driver from the configured database type:

	conn, driver, err := db.Open(ctx, "postgres", "postgres://...")
	conn, driver, err := db.Open(ctx, "sqlite", "picpoll.db")

PostgreSQL uses github.com/lib/pq; SQLite uses the pure-Go modernc.org/sqlite
driver with a busy timeout and WAL journaling. The returned driver name is what
sqlx needs to rebind placeholders.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on both databases.

# Tables

  - item: Catalog entries (title, image URL, excerpt)
  - item_category: Category slugs per item
  - vote: One vote per (item_id, voter_identity)
  - adjustment: Signed offsets per (item_id, option_index)
  - region_adjustment: Signed offsets per (region_code, item_id, option_index)

# Relationships

	item 1──* item_category
	item 1──* vote
	item 1──* adjustment
	item 1──* region_adjustment

There are no foreign keys; deleting an item purges the dependent rows
explicitly so the Redis vote store follows the same path.

# Indexes

  - item.created_at
  - item_category.category
  - vote.item_id
  - vote.(item_id, region_code)
  - region_adjustment.item_id
*/
package db
