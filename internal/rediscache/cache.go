package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"staff-ride-router/internal/database"
	"staff-ride-router/internal/models"
)

const keyPrefix = "directions:"

// DefaultTTL is how long directions stay cached
const DefaultTTL = 7 * 24 * time.Hour

// DirectionsCache implements database.DirectionsCacheRepository over Redis
type DirectionsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ database.DirectionsCacheRepository = (*DirectionsCache)(nil)

// New connects to the Redis server at url (redis://host:port/db)
func New(ctx context.Context, url string, ttl time.Duration) (*DirectionsCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("component", "rediscache").Str("addr", opt.Addr).Dur("ttl", ttl).Msg("connected")
	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client. A non-positive ttl uses DefaultTTL.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *DirectionsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DirectionsCache{rdb: rdb, ttl: ttl}
}

func (c *DirectionsCache) key(waypoints []models.Coordinates) string {
	return keyPrefix + database.DirectionsCacheKey(waypoints)
}

func (c *DirectionsCache) Get(ctx context.Context, waypoints []models.Coordinates) (*models.DirectionsCacheEntry, error) {
	data, err := c.rdb.Get(ctx, c.key(waypoints)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get directions cache entry: %w", err)
	}

	var entry models.DirectionsCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode directions cache entry: %w", err)
	}
	return &entry, nil
}

func (c *DirectionsCache) Set(ctx context.Context, entry *models.DirectionsCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode directions cache entry: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(entry.Waypoints), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set directions cache entry: %w", err)
	}
	return nil
}

// Clear removes every cached directions entry, leaving other keys alone
func (c *DirectionsCache) Clear(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan directions cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear directions cache: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *DirectionsCache) Close() error {
	return c.rdb.Close()
}
