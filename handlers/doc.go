// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the PicPoll API.

# Handler Types

Handlers are thin: they decode input, call the voting service and map its
error kinds to status codes in one place (writeServiceError).

  - ImageHandler: Image listing from the catalog
  - VotingHandler: Vote submission, stats and widget config
  - AjaxHandler: Single-endpoint fallback for restrictive hosts
  - AdminHandler: Item, adjustment and results management

	svc := voting.NewService(ledger, adjustments, items, provider)
	votingHandler := handlers.NewVotingHandler(svc, cfg)

# Voting Flow

	GET  /vote-game/v1/images             → List (limit, random, categories)
	POST /vote-game/v1/vote               → Vote (JSON or form body)
	GET  /vote-game/v1/stats/{image_id}   → Stats (?regions=US,CA)
	GET  /vote-game/v1/config             → Config

Numbers may arrive as JSON numbers or numeric strings. Regions may be a
comma-separated string or an array. Anonymous voters are identified by a
salted hash of their IP; a valid session token identifies them by subject.

# Fallback Endpoint

	GET|POST /ajax?action=vg_images|vg_vote|vg_stats

Each action takes the same parameters as its primary route and returns a
byte-identical body. vg_vote requires POST.

# Error Codes

	400 invalid_request   validation failed, nothing written
	403 login_required    settings require an authenticated voter
	404 not_found         unknown item on a read
	503 unavailable       storage failure

# Admin

Admin routes require the X-Admin-Key header and answer 404 when no admin
key is configured.
*/
package handlers
