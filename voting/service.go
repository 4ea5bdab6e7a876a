// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oobort/picpoll-lite/adjust"
	"github.com/oobort/picpoll-lite/catalog"
	"github.com/oobort/picpoll-lite/ledger"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/settings"
	"github.com/oobort/picpoll-lite/stats"
)

// Catalog is the part of the item catalog the service needs.
type Catalog interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (models.Item, error)
	Upsert(ctx context.Context, item models.Item) error
	Delete(ctx context.Context, id int64) error
}

// SettingsSource hands out the configuration snapshot for one call.
type SettingsSource interface {
	Current() settings.Snapshot
}

// HeaderGetter is satisfied by http.Header.
type HeaderGetter interface {
	Get(key string) string
}

// Voter identifies who is voting. Identity is opaque to the service.
type Voter struct {
	Identity      string
	UserAgent     string
	Authenticated bool
}

// Ballot is one vote request after transport decoding.
type Ballot struct {
	ItemID    int64
	Choice    int
	HasChoice bool
	Country   string
	Regions   []string
	Headers   HeaderGetter
	Voter     Voter
}

type Service struct {
	ledger      ledger.Ledger
	adjustments adjust.Store
	aggregator  *stats.Aggregator
	items       Catalog
	settings    SettingsSource
}

func NewService(l ledger.Ledger, a adjust.Store, items Catalog, src SettingsSource) *Service {
	return &Service{
		ledger:      l,
		adjustments: a,
		aggregator:  stats.NewAggregator(l, a),
		items:       items,
		settings:    src,
	}
}

// Settings returns the current configuration snapshot.
func (s *Service) Settings() settings.Snapshot {
	return s.settings.Current()
}

// CastVote validates and records a vote, then returns fresh standings for
// the item overall and for each requested region.
func (s *Service) CastVote(ctx context.Context, b Ballot) (models.Standings, error) {
	snap := s.settings.Current()

	if b.ItemID <= 0 {
		return models.Standings{}, validationf("image_id is required")
	}
	if snap.RequireLogin && !b.Voter.Authenticated {
		return models.Standings{}, &Error{Kind: ErrPermission, Msg: models.CodeLoginRequired}
	}
	if !b.HasChoice {
		return models.Standings{}, validationf("choice is required")
	}
	if b.Choice < 0 || b.Choice >= len(snap.OptionLabels) {
		return models.Standings{}, validationf("choice must be between 0 and %d", len(snap.OptionLabels)-1)
	}

	exists, err := s.items.Exists(ctx, b.ItemID)
	if err != nil {
		slog.Error("failed to look up item", "item_id", b.ItemID, "error", err)
		return models.Standings{}, unavailable("Database error", err)
	}
	if !exists {
		return models.Standings{}, validationf("unknown image_id %d", b.ItemID)
	}

	region := ResolveRegion(snap, b.Country, b.Headers)

	err = s.ledger.RecordVote(ctx, models.Vote{
		ItemID:        b.ItemID,
		Choice:        b.Choice,
		VoterIdentity: b.Voter.Identity,
		RegionCode:    region,
		UserAgent:     b.Voter.UserAgent,
	})
	if errors.Is(err, ledger.ErrInvalidVote) {
		return models.Standings{}, &Error{Kind: ErrValidation, Msg: "invalid vote", Err: err}
	}
	if err != nil {
		slog.Error("failed to record vote", "item_id", b.ItemID, "error", err)
		return models.Standings{}, unavailable("DB error", err)
	}

	slog.Info("vote recorded", "item_id", b.ItemID, "choice", b.Choice, "region", region)

	standings, err := s.aggregator.Standings(ctx, snap, b.ItemID, ParseRegions(b.Regions))
	if err != nil {
		slog.Error("failed to compute standings", "item_id", b.ItemID, "error", err)
		return models.Standings{}, unavailable("DB error", err)
	}
	return standings, nil
}

// Standings is the read-only query behind the stats endpoint.
func (s *Service) Standings(ctx context.Context, itemID int64, regions []string) (models.Standings, error) {
	if itemID <= 0 {
		return models.Standings{}, validationf("image_id is required")
	}
	exists, err := s.items.Exists(ctx, itemID)
	if err != nil {
		slog.Error("failed to look up item", "item_id", itemID, "error", err)
		return models.Standings{}, unavailable("Database error", err)
	}
	if !exists {
		return models.Standings{}, &Error{Kind: ErrNotFound, Msg: "Item not found"}
	}

	standings, err := s.aggregator.Standings(ctx, s.settings.Current(), itemID, ParseRegions(regions))
	if err != nil {
		slog.Error("failed to compute standings", "item_id", itemID, "error", err)
		return models.Standings{}, unavailable("Database error", err)
	}
	return standings, nil
}

// ParseRegions sanitizes region codes, drops blanks and duplicates, and
// keeps the first-seen order.
func ParseRegions(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		code := ledger.SanitizeRegion(c)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// ResolveRegion picks the region a vote is filed under: the supplied code
// when present, otherwise the geo header when the snapshot enables it.
func ResolveRegion(snap settings.Snapshot, country string, headers HeaderGetter) string {
	if code := ledger.SanitizeRegion(country); code != "" {
		return code
	}
	if snap.RegionMode != models.RegionModeHeader || headers == nil {
		return ""
	}
	return ledger.SanitizeHeaderRegion(headers.Get(snap.RegionHeader))
}

// compile-time check that the catalog store satisfies Catalog
var _ Catalog = (*catalog.Store)(nil)
