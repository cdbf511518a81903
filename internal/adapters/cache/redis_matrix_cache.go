package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/platform/obs"
	"delivery-route-service/internal/ports"
)

// RedisDistanceMatrixCache wraps a ports.MatrixProvider, caching the
// whole N×N result keyed by a stable hash of the rounded location list.
// It sits in front of either matrix backend so repeated optimization
// calls over the same location set (common across consecutive
// optimizer invocations against a mostly-static depot/order snapshot)
// skip recomputation or re-fetch entirely.
type RedisDistanceMatrixCache struct {
	client   *redis.Client
	inner    ports.MatrixProvider
	ttl      time.Duration
	keyspace string
}

func NewRedisDistanceMatrixCache(client *redis.Client, inner ports.MatrixProvider, ttl time.Duration) *RedisDistanceMatrixCache {
	return &RedisDistanceMatrixCache{
		client:   client,
		inner:    inner,
		ttl:      ttl,
		keyspace: "matrix",
	}
}

func (c *RedisDistanceMatrixCache) Matrix(ctx context.Context, locations []domain.Location) (_ [][]float64, err error) {
	defer obs.Time(ctx, "matrix.cache.redis")(&err)

	key := c.cacheKey(locations)

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var m [][]float64
		if jsonErr := json.Unmarshal(cached, &m); jsonErr == nil && len(m) == len(locations) {
			return m, nil
		}
	}

	m, err := c.inner.Matrix(ctx, locations)
	if err != nil {
		return nil, fmt.Errorf("matrix cache: compute matrix: %w", err)
	}

	if encoded, encErr := json.Marshal(m); encErr == nil {
		_ = c.client.Set(ctx, key, encoded, c.ttl).Err()
	}

	return m, nil
}

// cacheKey hashes the rounded (6 decimal places) coordinate list with
// xxhash, in input order — matrix entry [i][j] depends on the position
// of each location, so the key must not be order-invariant.
func (c *RedisDistanceMatrixCache) cacheKey(locations []domain.Location) string {
	parts := make([]string, len(locations))
	for i, loc := range locations {
		parts[i] = strconv.FormatFloat(loc.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(loc.Lng, 'f', 6, 64)
	}

	h := xxhash.Sum64String(strings.Join(parts, ";"))
	return fmt.Sprintf("%s:%d:%x", c.keyspace, len(locations), h)
}

var _ ports.MatrixProvider = (*RedisDistanceMatrixCache)(nil)
