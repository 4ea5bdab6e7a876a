// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oobort/picpoll-lite/models"
)

// RedisLedger keeps one hash per item: field = voter identity, value = the
// encoded vote. HSET replaces the field atomically, which gives the same
// one-vote-per-voter guarantee as the SQL primary key.
type RedisLedger struct {
	rdb    goredis.UniversalClient
	prefix string
}

type redisVote struct {
	Choice    int    `json:"c"`
	Region    string `json:"r,omitempty"`
	UserAgent string `json:"ua,omitempty"`
	CreatedAt int64  `json:"t"`
}

func NewRedisLedger(rdb goredis.UniversalClient, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = "picpoll:"
	}
	return &RedisLedger{rdb: rdb, prefix: prefix}
}

func (l *RedisLedger) key(itemID int64) string {
	return l.prefix + "votes:" + strconv.FormatInt(itemID, 10)
}

func (l *RedisLedger) RecordVote(ctx context.Context, v models.Vote) error {
	v, err := Normalize(v)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(redisVote{
		Choice:    v.Choice,
		Region:    v.RegionCode,
		UserAgent: v.UserAgent,
		CreatedAt: v.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode vote: %w", err)
	}
	if err := l.rdb.HSet(ctx, l.key(v.ItemID), v.VoterIdentity, raw).Err(); err != nil {
		return fmt.Errorf("failed to store vote: %w", err)
	}
	return nil
}

func (l *RedisLedger) CountsForItem(ctx context.Context, itemID int64, region string) ([]models.ChoiceCount, error) {
	values, err := l.rdb.HVals(ctx, l.key(itemID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	region = SanitizeRegion(region)

	byChoice := make(map[int]int)
	for _, raw := range values {
		var rv redisVote
		if err := json.Unmarshal([]byte(raw), &rv); err != nil {
			slog.Warn("skipping undecodable vote", "item_id", itemID, "error", err)
			continue
		}
		if region != "" && rv.Region != region {
			continue
		}
		byChoice[rv.Choice]++
	}

	counts := make([]models.ChoiceCount, 0, len(byChoice))
	for choice, n := range byChoice {
		counts = append(counts, models.ChoiceCount{Choice: choice, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Choice < counts[j].Choice })
	return counts, nil
}

func (l *RedisLedger) CountRows(ctx context.Context, itemID int64) (int, error) {
	n, err := l.rdb.HLen(ctx, l.key(itemID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count vote rows: %w", err)
	}
	return int(n), nil
}

func (l *RedisLedger) DeleteItem(ctx context.Context, itemID int64) error {
	if err := l.rdb.Del(ctx, l.key(itemID)).Err(); err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}

// GetVote returns the stored vote of one voter, or goredis.Nil.
func (l *RedisLedger) GetVote(ctx context.Context, itemID int64, voterIdentity string) (models.Vote, error) {
	raw, err := l.rdb.HGet(ctx, l.key(itemID), voterIdentity).Result()
	if err != nil {
		return models.Vote{}, err
	}
	var rv redisVote
	if err := json.Unmarshal([]byte(raw), &rv); err != nil {
		return models.Vote{}, fmt.Errorf("failed to decode vote: %w", err)
	}
	return models.Vote{
		ItemID:        itemID,
		Choice:        rv.Choice,
		VoterIdentity: voterIdentity,
		RegionCode:    rv.Region,
		UserAgent:     rv.UserAgent,
		CreatedAt:     time.UnixMilli(rv.CreatedAt).UTC(),
	}, nil
}
