package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/dashboard-cache/internal/core/domain/cache"
)

// ReconcileTags drops tag memberships whose entries no longer exist, for example because
// they expired, and returns how many memberships were removed. Tag sets left empty
// disappear with their last member.
func (c *RedisCache) ReconcileTags(ctx context.Context) (int, error) {
	match := cache.TagKeyPattern(c.cfg.KeyPrefix)
	// Collect first: emptied tag sets vanish mid-pass, which would move a live SCAN cursor.
	tagKeys, err := c.collect(ctx, func(ctx context.Context, cursor uint64) ([]string, uint64, error) {
		return c.r.Scan(ctx, cursor, match, c.scanCount).Result()
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile tags: %w", err)
	}
	removed := 0
	for _, tagKey := range tagKeys {
		removed += c.reconcileTagSet(ctx, tagKey)
	}
	c.trace("reconcileTags", match, logrus.Fields{"tag_sets": len(tagKeys), "removed": removed})
	return removed, nil
}

// reconcileTagSet checks one tag set page by page. On a scan error the set is skipped.
func (c *RedisCache) reconcileTagSet(ctx context.Context, tagKey string) int {
	members, err := c.collect(ctx, func(ctx context.Context, cursor uint64) ([]string, uint64, error) {
		return c.r.SScan(ctx, tagKey, cursor, "*", c.scanCount).Result()
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"tag_key": tagKey}).WithError(err).Warn("skipping tag set due to scan error")
		return 0
	}
	removed := 0
	for start := 0; start < len(members); start += int(c.scanCount) {
		end := start + int(c.scanCount)
		if end > len(members) {
			end = len(members)
		}
		removed += c.reconcileTagPage(ctx, tagKey, members[start:end])
	}
	return removed
}

// collect drains a cursor-based scan into one slice.
func (c *RedisCache) collect(ctx context.Context, page func(context.Context, uint64) ([]string, uint64, error)) ([]string, error) {
	var (
		cursor uint64
		all    []string
	)
	for {
		var keys []string
		next := cursor
		err := c.call(ctx, func(ctx context.Context) error {
			var err error
			keys, next, err = page(ctx, cursor)
			return err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		cursor = next
		if cursor == 0 { // done scanning all keys
			return all, nil
		}
	}
}

// reconcileTagPage checks a batch of members in one pipeline and removes the ones whose
// entry is gone.
func (c *RedisCache) reconcileTagPage(ctx context.Context, tagKey string, members []string) int {
	if len(members) == 0 {
		return 0
	}
	cmds := make([]*redis.IntCmd, len(members))
	err := c.call(ctx, func(ctx context.Context) error {
		_, err := c.r.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, m := range members {
				cmds[i] = pipe.Exists(ctx, m)
			}
			return nil
		})
		return err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"tag_key": tagKey}).WithError(err).Warn("exists check failed for tag members")
		return 0
	}
	var stale []any
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			stale = append(stale, members[i])
		}
	}
	if len(stale) == 0 {
		return 0
	}
	var n int64
	err = c.call(ctx, func(ctx context.Context) error {
		var err error
		n, err = c.r.SRem(ctx, tagKey, stale...).Result()
		return err
	})
	if err != nil {
		c.logger.WithFields(logrus.Fields{"tag_key": tagKey, "stale": len(stale)}).WithError(err).Warn("failed to remove stale tag members")
		return 0
	}
	return int(n)
}
