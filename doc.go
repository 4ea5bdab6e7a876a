// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the PicPoll server and admin CLI.

PicPoll is an embeddable photo voting widget backend: each visitor casts one
vote per image among a configured set of options, and standings are served
overall and per region, with optional admin offsets applied on top.

# Starting the Server

	VOTER_SALT=... DATABASE_URL=picpoll.db go run .

Or with flags:

	go run . serve -p 3318 -d "postgres://..." -t postgres --voter-salt ...

A .env file in the working directory is loaded first when present.

# Commands

	serve                               Run the HTTP API (default)
	migrate                             Create the database schema
	stats <image_id> [--regions US,JP]  Raw and effective results
	adjust <image_id> <option> <adj>    Set an offset (--region for regional)
	item add <image_id> --title ...     Create or replace a catalog item
	item delete <image_id>              Purge an item, its votes and offsets
	token <subject>                     Issue a voter session token

# Architecture

  - handlers: HTTP handlers and the /ajax fallback dispatcher
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, request ids, sessions, logging, JSON helpers
  - voting: Validation, error kinds and the admin operations
  - ledger: One vote per (item, voter), SQL or Redis
  - adjust: Overall and regional count offsets, SQL or Redis
  - stats: Effective counts and percentages
  - catalog: Items and categories
  - settings: Option labels, regions and flags with hot reload
  - auth: Voter identity hashing, admin keys, session tokens
  - db: Connections and schema
  - cliparse: Flags and environment
*/
package main
