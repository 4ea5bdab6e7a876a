// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stats

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/oobort/picpoll-lite/models"
	"github.com/oobort/picpoll-lite/settings"
)

// CountReader is the read side of the vote ledger.
type CountReader interface {
	CountsForItem(ctx context.Context, itemID int64, region string) ([]models.ChoiceCount, error)
}

// AdjustmentReader is the read side of the adjustment store.
type AdjustmentReader interface {
	Adjustments(ctx context.Context, itemID int64, region string) (map[int]int, error)
}

// Aggregator combines raw counts with adjustments. It keeps no state of its
// own: every call reads the stores again, so new votes and adjustments show
// up immediately.
type Aggregator struct {
	votes       CountReader
	adjustments AdjustmentReader
}

func NewAggregator(votes CountReader, adjustments AdjustmentReader) *Aggregator {
	return &Aggregator{votes: votes, adjustments: adjustments}
}

// Compute returns the snapshot of one item in one scope. An empty region
// means overall.
func (a *Aggregator) Compute(ctx context.Context, snap settings.Snapshot, itemID int64, region string) (models.StatsSnapshot, error) {
	raw, err := a.votes.CountsForItem(ctx, itemID, region)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("failed to read vote counts: %w", err)
	}
	adj, err := a.adjustments.Adjustments(ctx, itemID, region)
	if err != nil {
		return models.StatsSnapshot{}, fmt.Errorf("failed to read adjustments: %w", err)
	}
	return Build(snap.OptionLabels, raw, adj), nil
}

// Standings computes the overall snapshot plus one per region. Regions are
// computed concurrently; callers pass them already sanitized and unique.
func (a *Aggregator) Standings(ctx context.Context, snap settings.Snapshot, itemID int64, regions []string) (models.Standings, error) {
	results := make([]models.StatsSnapshot, len(regions)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.Compute(gctx, snap, itemID, "")
		if err != nil {
			return err
		}
		results[0] = s
		return nil
	})
	for i, code := range regions {
		g.Go(func() error {
			s, err := a.Compute(gctx, snap, itemID, code)
			if err != nil {
				return fmt.Errorf("region %s: %w", code, err)
			}
			results[i+1] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Standings{}, err
	}

	out := models.Standings{
		Overall: results[0],
		Regions: make(map[string]models.StatsSnapshot, len(regions)),
	}
	for i, code := range regions {
		out.Regions[code] = results[i+1]
	}
	return out, nil
}

// Build applies the counting rules to already-fetched data:
// out-of-range choices and options are ignored, adjusted counts are
// clamped at zero, and percentages are rounded to one decimal.
func Build(labels []string, raw []models.ChoiceCount, adj map[int]int) models.StatsSnapshot {
	n := len(labels)
	counts := RawCounts(n, raw)

	for option, delta := range adj {
		if option < 0 || option >= n {
			continue
		}
		counts[option] += delta
		if counts[option] < 0 {
			counts[option] = 0
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	percent := make([]float64, n)
	if total > 0 {
		for i, c := range counts {
			percent[i] = Round1(float64(c) * 100 / float64(total))
		}
	}

	return models.StatsSnapshot{
		Counts:  counts,
		Percent: percent,
		Total:   total,
		Labels:  append([]string(nil), labels...),
	}
}

// Round1 rounds half away from zero to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// RawCounts expands grouped rows into a dense slice of n counts, dropping
// out-of-range choices.
func RawCounts(n int, raw []models.ChoiceCount) []int {
	counts := make([]int, n)
	for _, c := range raw {
		if c.Choice >= 0 && c.Choice < n {
			counts[c.Choice] = c.Count
		}
	}
	return counts
}
