package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staff-ride-router/internal/models"
)

func newTestCache(t *testing.T) (*DirectionsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

var waypoints = []models.Coordinates{{Lat: 5.6, Lng: -0.17}, {Lat: 5.5826, Lng: -0.1435}}

func TestDirectionsCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	entry, err := c.Get(context.Background(), waypoints)

	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDirectionsCacheRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	entry := &models.DirectionsCacheEntry{
		Waypoints: waypoints,
		Directions: models.RouteDirections{
			DistanceMeters: 3100,
			DurationSecs:   420,
			Geometry:       orb.LineString{{-0.17, 5.6}, {-0.1435, 5.5826}},
		},
	}
	require.NoError(t, c.Set(ctx, entry))

	got, err := c.Get(ctx, waypoints)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry.Directions, got.Directions)

	ttl := mr.TTL(c.key(waypoints))
	assert.Equal(t, time.Hour, ttl)
}

func TestDirectionsCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.DirectionsCacheEntry{Waypoints: waypoints}))
	mr.FastForward(2 * time.Hour)

	got, err := c.Get(ctx, waypoints)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDirectionsCacheClearKeepsOtherKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &models.DirectionsCacheEntry{Waypoints: waypoints}))
	require.NoError(t, mr.Set("session:abc", "keep"))

	require.NoError(t, c.Clear(ctx))

	got, err := c.Get(ctx, waypoints)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, mr.Exists("session:abc"))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url://", time.Minute)

	assert.Error(t, err)
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), "redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DefaultTTL, c.ttl)
}
