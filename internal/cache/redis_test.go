package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/printshop/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, 0), mr
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	items := []domain.CartItem{
		{ID: "1-1", ProductID: "1", Price: 299, Quantity: 2},
		{ID: "2-1", ProductID: "2", Price: 249, Quantity: 3},
	}
	cartJSON, _ := json.Marshal(items)
	require.NoError(t, mr.Set(cartKey("sess"), string(cartJSON)))
	require.NoError(t, mr.Set(userKey("sess"), `{"id":"123","name":"Demo User","email":"demo@example.com"}`))

	result, err := cache.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "sess", result.ID)
	assert.Equal(t, items, result.Cart)
	require.NotNil(t, result.User)
	assert.Equal(t, "Demo User", result.User.Name)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	result, err := cache.Get(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)

	// a user key alone is not a cached session
	require.NoError(t, mr.Set(userKey("half"), `{"id":"123"}`))
	_, err = cache.Get(ctx, "half")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, mr.Set(cartKey("sess"), `[{"id":"1-1","pro`))

	_, err := cache.Get(context.Background(), "sess")
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_WritesBothKeys(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	s := &domain.Session{
		ID:   "sess",
		User: &domain.User{ID: "123", Name: "Demo User", Email: "demo@example.com"},
		Cart: []domain.CartItem{{ID: "1-1", ProductID: "1", Quantity: 5}},
	}
	require.NoError(t, cache.Set(ctx, s))

	stored, err := mr.Get(cartKey("sess"))
	require.NoError(t, err)
	var storedCart []domain.CartItem
	require.NoError(t, json.Unmarshal([]byte(stored), &storedCart))
	assert.Len(t, storedCart, 1)

	assert.True(t, mr.Exists(userKey("sess")))

	s.User = nil
	require.NoError(t, cache.Set(ctx, s))
	assert.False(t, mr.Exists(userKey("sess")), "signed-out session drops the user key")
}

func TestSetThenGet_CustomLineRoundTrip(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	infill := 35
	session := &domain.Session{
		ID:   "sess",
		User: &domain.User{ID: "123", Name: "Demo User", Email: "demo@example.com"},
		Cart: []domain.CartItem{
			{ID: "1-1", ProductID: "1", Name: "Custom Name Keychain", Price: 299, Quantity: 2},
			{
				ID: "custom-2", ProductID: domain.CustomProductID, Name: "Custom 3D Print", Price: 250, Quantity: 1,
				IsCustom: true, Weight: 24,
				CustomOptions: &domain.CustomizationOptions{
					Color:         "#3b82f6",
					Size:          &domain.Dimensions{Width: 80, Height: 120, Depth: 60},
					Material:      "PLA",
					InfillDensity: &infill,
					ModelFile:     "vase.stl",
				},
			},
		},
	}

	require.NoError(t, cache.Set(ctx, session))

	got, err := cache.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, session.User, got.User)
	require.Equal(t, session.Cart, got.Cart)

	opts := got.Cart[1].CustomOptions
	require.NotNil(t, opts.Size)
	require.NotNil(t, opts.InfillDensity)
	assert.Equal(t, 35, *opts.InfillDensity)
	assert.True(t, session.Cart[1].SameLine(got.Cart[1]), "decoded line merges with the stored one")
}

func TestSet_EmptyCartIsCached(t *testing.T) {
	cache, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Session{ID: "sess"}))

	result, err := cache.Get(ctx, "sess")
	require.NoError(t, err)
	assert.NotNil(t, result.Cart)
	assert.Empty(t, result.Cart)
	assert.Nil(t, result.User)
}

func TestSet_WithTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), &domain.Session{ID: "sess"}))

	ttl := mr.TTL(cartKey("sess"))
	assert.GreaterOrEqual(t, ttl, DefaultTTL, "TTL should be at least base TTL")
	assert.LessOrEqual(t, ttl, DefaultTTL+5*time.Minute, "TTL should be base + max jitter")
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Session{ID: "sess", User: &domain.User{ID: "123"}}))
	require.NoError(t, cache.Delete(ctx, "sess"))

	assert.False(t, mr.Exists(cartKey("sess")))
	assert.False(t, mr.Exists(userKey("sess")))

	assert.NoError(t, cache.Delete(ctx, "nonexistent"))
}

func TestNopCache(t *testing.T) {
	var c SessionCache = NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Session{ID: "sess"}))
	_, err := c.Get(ctx, "sess")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Delete(ctx, "sess"))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "session:test123:user", userKey("test123"))
	assert.Equal(t, "session:test123:cart", cartKey("test123"))
}
