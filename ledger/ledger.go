// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oobort/picpoll-lite/models"
)

var ErrInvalidVote = errors.New("invalid vote")

const (
	MaxRegionLen    = 10
	MaxUserAgentLen = 255
)

// Ledger stores at most one vote per (item, voter). Implementations must
// make RecordVote a single atomic upsert so that concurrent votes from the
// same voter collapse to one row.
type Ledger interface {
	RecordVote(ctx context.Context, v models.Vote) error
	CountsForItem(ctx context.Context, itemID int64, region string) ([]models.ChoiceCount, error)
	CountRows(ctx context.Context, itemID int64) (int, error)
	DeleteItem(ctx context.Context, itemID int64) error
}

// Normalize validates v and returns the form that is written to storage.
func Normalize(v models.Vote) (models.Vote, error) {
	if v.ItemID <= 0 {
		return v, fmt.Errorf("%w: item_id must be positive", ErrInvalidVote)
	}
	if v.Choice < 0 {
		return v, fmt.Errorf("%w: choice must not be negative", ErrInvalidVote)
	}
	if v.VoterIdentity == "" {
		return v, fmt.Errorf("%w: voter identity is required", ErrInvalidVote)
	}
	v.RegionCode = SanitizeRegion(v.RegionCode)
	v.UserAgent = TruncateUserAgent(v.UserAgent)
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	return v, nil
}

// SanitizeRegion keeps [A-Za-z0-9_-], upper-cases, and truncates to 10 chars.
func SanitizeRegion(code string) string {
	return sanitize(code, func(r rune) bool {
		return r == '_' || r == '-' || isLetter(r) || (r >= '0' && r <= '9')
	})
}

// SanitizeHeaderRegion is the stricter form applied to geo headers: letters only.
func SanitizeHeaderRegion(code string) string {
	return sanitize(code, isLetter)
}

func sanitize(code string, keep func(rune) bool) string {
	var b strings.Builder
	for _, r := range code {
		if !keep(r) {
			continue
		}
		b.WriteRune(r)
		if b.Len() == MaxRegionLen {
			break
		}
	}
	return strings.ToUpper(b.String())
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// TruncateUserAgent cuts ua to at most 255 bytes without splitting a rune.
func TruncateUserAgent(ua string) string {
	if len(ua) <= MaxUserAgentLen {
		return ua
	}
	cut := MaxUserAgentLen
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}
