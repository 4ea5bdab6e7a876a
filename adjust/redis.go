// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package adjust

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oobort/picpoll-lite/ledger"
)

// RedisStore keeps one hash per scope: field = option index, value = adj.
// Regional hashes are tracked in a per-item set so DeleteItem can find them.
type RedisStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

func NewRedisStore(rdb goredis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "picpoll:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(itemID int64, region string) string {
	id := strconv.FormatInt(itemID, 10)
	if region == "" {
		return s.prefix + "adj:" + id
	}
	return s.prefix + "radj:" + region + ":" + id
}

func (s *RedisStore) regionsKey(itemID int64) string {
	return s.prefix + "radj-regions:" + strconv.FormatInt(itemID, 10)
}

func (s *RedisStore) Adjustments(ctx context.Context, itemID int64, region string) (map[int]int, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(itemID, ledger.SanitizeRegion(region))).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjustments: %w", err)
	}
	adjustments := make(map[int]int, len(fields))
	for f, v := range fields {
		option, err1 := strconv.Atoi(f)
		adj, err2 := strconv.Atoi(v)
		if err1 != nil || err2 != nil {
			slog.Warn("skipping malformed adjustment", "item_id", itemID, "field", f, "value", v)
			continue
		}
		adjustments[option] = adj
	}
	return adjustments, nil
}

func (s *RedisStore) Set(ctx context.Context, itemID int64, region string, option, adj int) error {
	if err := validate(itemID, option); err != nil {
		return err
	}
	region = ledger.SanitizeRegion(region)
	key := s.key(itemID, region)
	field := strconv.Itoa(option)

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if adj == 0 {
			pipe.HDel(ctx, key, field)
		} else {
			pipe.HSet(ctx, key, field, adj)
		}
		if region != "" {
			pipe.SAdd(ctx, s.regionsKey(itemID), region)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set adjustment: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteItem(ctx context.Context, itemID int64) error {
	regions, err := s.rdb.SMembers(ctx, s.regionsKey(itemID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list regional adjustments: %w", err)
	}
	keys := []string{s.key(itemID, ""), s.regionsKey(itemID)}
	for _, r := range regions {
		keys = append(keys, s.key(itemID, r))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete adjustments: %w", err)
	}
	return nil
}
