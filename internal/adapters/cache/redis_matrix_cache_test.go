package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"delivery-route-service/internal/domain"
)

type countingMatrixProvider struct {
	calls int
	m     [][]float64
}

func (c *countingMatrixProvider) Matrix(_ context.Context, _ []domain.Location) ([][]float64, error) {
	c.calls++
	return c.m, nil
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestRedisDistanceMatrixCacheHitsAvoidRecompute(t *testing.T) {
	client := newTestRedisClient(t)
	inner := &countingMatrixProvider{m: [][]float64{{0, 1}, {1, 0}}}
	c := NewRedisDistanceMatrixCache(client, inner, time.Minute)

	locations := []domain.Location{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}

	if _, err := c.Matrix(context.Background(), locations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Matrix(context.Background(), locations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("expected inner provider called once, got %d calls", inner.calls)
	}
}

func TestRedisDistanceMatrixCacheOrderSensitive(t *testing.T) {
	client := newTestRedisClient(t)
	inner := &countingMatrixProvider{m: [][]float64{{0, 1}, {1, 0}}}
	c := NewRedisDistanceMatrixCache(client, inner, time.Minute)

	a := []domain.Location{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	b := []domain.Location{{Lat: 2, Lng: 2}, {Lat: 1, Lng: 1}}

	if c.cacheKey(a) == c.cacheKey(b) {
		t.Fatalf("expected different cache keys for differently-ordered location lists")
	}
}
