// Package cache keeps computed exam insights in Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/campusconnect/core"
	"github.com/trezcool/campusconnect/core/examtrend"
)

const (
	insightsKeyPrefix = "insights:"         // String: insights:{user_id} -> JSON encoded insights
	versionKeyPrefix  = "insights_version:" // String: insights_version:{user_id} -> write counter
)

func insightsKey(userID string) string {
	return insightsKeyPrefix + userID
}

func versionKey(userID string) string {
	return versionKeyPrefix + userID
}

// Open connects to Redis and checks that it answers.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// InsightCache implements examtrend.Cache on top of Redis.
type InsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ examtrend.Cache = (*InsightCache)(nil) // interface compliance check

func NewInsightCache(client *redis.Client, ttl time.Duration) *InsightCache {
	return &InsightCache{client: client, ttl: ttl}
}

func (c *InsightCache) GetInsights(ctx context.Context, userID string) ([]examtrend.Insight, error) {
	data, err := c.client.Get(ctx, insightsKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, examtrend.ErrCacheMiss
		}
		return nil, errors.Wrap(err, "getting cached insights")
	}
	var insights []examtrend.Insight
	if err = json.Unmarshal(data, &insights); err != nil {
		return nil, errors.Wrap(err, "decoding cached insights")
	}
	return insights, nil
}

// Version returns the user's write counter, 0 before the first write.
func (c *InsightCache) Version(ctx context.Context, userID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err != nil && err != redis.Nil {
		return 0, errors.Wrap(err, "getting insights version")
	}
	return version, nil
}

// SetInsights stores insights only while the version is still the given one.
func (c *InsightCache) SetInsights(ctx context.Context, userID string, version int64, insights []examtrend.Insight) error {
	if insights == nil {
		insights = []examtrend.Insight{}
	}
	data, err := json.Marshal(insights)
	if err != nil {
		return errors.Wrap(err, "encoding insights")
	}

	vkey := versionKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return examtrend.ErrStaleInsights
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, insightsKey(userID), data, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch err {
	case nil:
		return nil
	case examtrend.ErrStaleInsights, redis.TxFailedErr:
		return examtrend.ErrStaleInsights
	}
	return errors.Wrap(err, "caching insights")
}

// Invalidate bumps the version and drops the cached insights atomically.
func (c *InsightCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Del(ctx, insightsKey(userID))
		return nil
	})
	return errors.Wrap(err, "invalidating cached insights")
}
