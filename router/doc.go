// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the PicPoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints and Wrap
adds the shared middleware:

	mux := router.NewRouter(svc, items, cfg)
	handler := router.Wrap(mux, cfg)

# Endpoints

Health:

	GET /health

Voting (public):

	GET  /vote-game/v1/images            - Image listing
	POST /vote-game/v1/vote              - Cast or change a vote
	GET  /vote-game/v1/stats/{image_id}  - Current standings
	GET  /vote-game/v1/config            - Widget configuration

Fallback (public):

	GET|POST /ajax?action=...            - vg_images, vg_vote, vg_stats

Admin (requires X-Admin-Key):

	PUT    /vote-game/v1/admin/items/{image_id}              - Create or replace an item
	DELETE /vote-game/v1/admin/items/{image_id}              - Purge an item
	PUT    /vote-game/v1/admin/items/{image_id}/adjustments  - Set an offset
	GET    /vote-game/v1/admin/items/{image_id}/results      - Raw and effective results

# Middleware

Every API route is logged by middleware.WithLogging. Wrap adds CORS, a
request id and the optional voter session in front of the mux.
*/
package router
