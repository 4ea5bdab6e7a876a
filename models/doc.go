// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - VoteRequest: image_id, choice, country, regions
  - PutItemRequest: title, url, excerpt, categories
  - PutAdjustmentRequest: option, adj, region

image_id and choice are FlexInt so that both 42 and "42" are accepted;
regions is a CSV that accepts "US,CA" as well as ["US","CA"].

# Response Types

  - StatsSnapshot: counts, percent, total, labels for one scope
  - Standings: overall snapshot plus one snapshot per requested region
  - ImageResponse: id, title, url, excerpt
  - WidgetConfig: option labels, regions and display flags for the widget
  - ItemResults: raw counts and adjustments for the admin view
  - ErrorResponse: error, message, code

# Domain Types

  - Item: a votable image from the catalog
  - Vote: one row per (item, voter identity)
  - ChoiceCount: grouped vote count for one choice index

# Constants

Region modes:

	RegionModePrompt = "prompt"
	RegionModeHeader = "header"

Error codes:

	CodeInvalidRequest = "invalid_request"
	CodeLoginRequired  = "login_required"
	CodeNotFound       = "not_found"
	CodeUnavailable    = "unavailable"
*/
package models
