package records

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/common/models"
)

const statsCacheKey = "registry:record-stats"

// StatsCache keeps the four-count stats snapshot in Redis for a short TTL.
// Every method tolerates a nil receiver and a failing Redis, in which case
// callers fall through to the count queries.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context) (models.RecordStats, bool) {
	if c == nil || c.client == nil {
		return models.RecordStats{}, false
	}

	data, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return models.RecordStats{}, false
	}

	var stats models.RecordStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return models.RecordStats{}, false
	}
	return stats, true
}

func (c *StatsCache) Set(ctx context.Context, stats models.RecordStats) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("Failed to cache record stats")
	}
}

func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Log.WithError(err).Debug("Failed to invalidate record stats cache")
	}
}
