package cache

import (
	"collection-route-service/internal/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "geocode:"

type redisPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RedisGeocodeStore keeps geocode results in Redis so they survive restarts
// and can be shared by several service instances.
type RedisGeocodeStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisGeocodeStore builds a store; ttl 0 keeps entries forever.
func NewRedisGeocodeStore(client redis.UniversalClient, ttl time.Duration) *RedisGeocodeStore {
	return &RedisGeocodeStore{client: client, ttl: ttl}
}

func (s *RedisGeocodeStore) Get(ctx context.Context, query string) (domain.GeoPoint, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+query).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GeoPoint{}, false, nil
	}
	if err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("redis geocode store get: %w", err)
	}

	var rp redisPoint
	if err := json.Unmarshal(raw, &rp); err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("redis geocode store decode %q: %w", query, err)
	}

	p, err := domain.NewGeoPoint(rp.Lat, rp.Lng)
	if err != nil {
		return domain.GeoPoint{}, false, fmt.Errorf("redis geocode store %q: %w", query, err)
	}
	return p, true, nil
}

func (s *RedisGeocodeStore) Put(ctx context.Context, query string, p domain.GeoPoint) error {
	raw, err := json.Marshal(redisPoint{Lat: p.Lat, Lng: p.Lng})
	if err != nil {
		return fmt.Errorf("redis geocode store encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+query, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis geocode store set: %w", err)
	}
	return nil
}
