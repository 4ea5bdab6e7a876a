// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oobort/picpoll-lite/adjust"
	"github.com/oobort/picpoll-lite/catalog"
	"github.com/oobort/picpoll-lite/ledger"
	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/stats"
)

// SaveItem creates or replaces a catalog item.
func (s *Service) SaveItem(ctx context.Context, item models.Item) error {
	if item.ID <= 0 {
		return validationf("image_id is required")
	}
	if strings.TrimSpace(item.Title) == "" {
		return validationf("title is required")
	}
	if err := s.items.Upsert(ctx, item); err != nil {
		slog.Error("failed to save item", "item_id", item.ID, "error", err)
		return unavailable("Database error", err)
	}
	slog.Info("item saved", "item_id", item.ID)
	return nil
}

// PurgeItem removes an item together with its votes and all adjustments.
// Votes and adjustments are removed even when the catalog row is already
// gone, so orphans can be cleaned up; ErrNotFound is still reported.
func (s *Service) PurgeItem(ctx context.Context, itemID int64) error {
	if itemID <= 0 {
		return validationf("image_id is required")
	}
	if err := s.ledger.DeleteItem(ctx, itemID); err != nil {
		slog.Error("failed to delete votes", "item_id", itemID, "error", err)
		return unavailable("Database error", err)
	}
	if err := s.adjustments.DeleteItem(ctx, itemID); err != nil {
		slog.Error("failed to delete adjustments", "item_id", itemID, "error", err)
		return unavailable("Database error", err)
	}

	err := s.items.Delete(ctx, itemID)
	if errors.Is(err, catalog.ErrNotFound) {
		return &Error{Kind: ErrNotFound, Msg: "Item not found"}
	}
	if err != nil {
		slog.Error("failed to delete item", "item_id", itemID, "error", err)
		return unavailable("Database error", err)
	}

	slog.Info("item purged", "item_id", itemID)
	return nil
}

// SetAdjustment sets the offset for one option, overall when region is
// blank. adj == 0 clears it.
func (s *Service) SetAdjustment(ctx context.Context, itemID int64, region string, option, adj int) error {
	if itemID <= 0 {
		return validationf("image_id is required")
	}
	labels := s.settings.Current().OptionLabels
	if option < 0 || option >= len(labels) {
		return validationf("option must be between 0 and %d", len(labels)-1)
	}
	code := ledger.SanitizeRegion(region)
	if strings.TrimSpace(region) != "" && code == "" {
		return validationf("invalid region %q", region)
	}

	exists, err := s.items.Exists(ctx, itemID)
	if err != nil {
		slog.Error("failed to look up item", "item_id", itemID, "error", err)
		return unavailable("Database error", err)
	}
	if !exists {
		return &Error{Kind: ErrNotFound, Msg: "Item not found"}
	}

	err = s.adjustments.Set(ctx, itemID, code, option, adj)
	if errors.Is(err, adjust.ErrInvalidAdjustment) {
		return &Error{Kind: ErrValidation, Msg: "invalid adjustment", Err: err}
	}
	if err != nil {
		slog.Error("failed to set adjustment", "item_id", itemID, "error", err)
		return unavailable("Database error", err)
	}

	slog.Info("adjustment set", "item_id", itemID, "region", code, "option", option, "adj", adj)
	return nil
}

// Results is the admin view of an item: raw counts and adjustments side by
// side with the effective standings.
func (s *Service) Results(ctx context.Context, itemID int64, regions []string) (models.ItemResults, error) {
	if itemID <= 0 {
		return models.ItemResults{}, validationf("image_id is required")
	}
	item, err := s.items.Get(ctx, itemID)
	if errors.Is(err, catalog.ErrNotFound) {
		return models.ItemResults{}, &Error{Kind: ErrNotFound, Msg: "Item not found"}
	}
	if err != nil {
		slog.Error("failed to get item", "item_id", itemID, "error", err)
		return models.ItemResults{}, unavailable("Database error", err)
	}

	snap := s.settings.Current()
	codes := ParseRegions(regions)
	res := models.ItemResults{
		Item:     item,
		Regional: make(map[string]models.RegionalDetail, len(codes)),
	}

	res.RawCounts, res.Adjustments, err = s.rawAndAdjustments(ctx, len(snap.OptionLabels), itemID, "")
	if err != nil {
		return models.ItemResults{}, err
	}
	for _, code := range codes {
		raw, adj, err := s.rawAndAdjustments(ctx, len(snap.OptionLabels), itemID, code)
		if err != nil {
			return models.ItemResults{}, err
		}
		res.Regional[code] = models.RegionalDetail{RawCounts: raw, Adjustments: adj}
	}

	res.Standings, err = s.aggregator.Standings(ctx, snap, itemID, codes)
	if err != nil {
		slog.Error("failed to compute standings", "item_id", itemID, "error", err)
		return models.ItemResults{}, unavailable("Database error", err)
	}

	res.VoteRows, err = s.ledger.CountRows(ctx, itemID)
	if err != nil {
		slog.Error("failed to count votes", "item_id", itemID, "error", err)
		return models.ItemResults{}, unavailable("Database error", err)
	}
	return res, nil
}

func (s *Service) rawAndAdjustments(ctx context.Context, n int, itemID int64, region string) ([]int, map[int]int, error) {
	rows, err := s.ledger.CountsForItem(ctx, itemID, region)
	if err != nil {
		slog.Error("failed to read vote counts", "item_id", itemID, "region", region, "error", err)
		return nil, nil, unavailable("Database error", fmt.Errorf("counts: %w", err))
	}
	adj, err := s.adjustments.Adjustments(ctx, itemID, region)
	if err != nil {
		slog.Error("failed to read adjustments", "item_id", itemID, "region", region, "error", err)
		return nil, nil, unavailable("Database error", fmt.Errorf("adjustments: %w", err))
	}
	return stats.RawCounts(n, rows), adj, nil
}
