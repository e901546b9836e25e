package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRunLockerIsExclusivePerAccount(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	locker := newRedisRunLocker(client, time.Minute)

	token, ok, err := locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	assert.False(t, ok, "second lock on the same account must fail")

	_, ok, err = locker.TryLock(ctx, "acc-2")
	require.NoError(t, err)
	assert.True(t, ok, "other accounts are independent")

	require.NoError(t, locker.Release(ctx, "acc-1", token))

	_, ok, err = locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunLockerReleaseIgnoresForeignToken(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	locker := newRedisRunLocker(client, time.Minute)

	_, ok, err := locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locker.Release(ctx, "acc-1", "someone-else"))
	assert.True(t, mr.Exists("autoaction:lock:acc-1"))
}

func TestRunLockerExpires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	locker := newRedisRunLocker(client, time.Minute)

	_, ok, err := locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisabledCacheUsesNoops(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(config.CacheConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)

	locker := NewRunLocker(client, config.CacheConfig{})
	_, ok, err := locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	recs := NewRecommendationCache(client, config.CacheConfig{})
	_, hit, err := recs.GetList(ctx, "acc-1", domain.RecommendationFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheAndLockerShareOneClient(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := config.CacheConfig{Enabled: true, RedisURL: "redis://" + mr.Addr(), LockTTLSeconds: 60, ListTTLSeconds: 60}

	client, err := NewRedisClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { client.Close() })

	locker := NewRunLocker(client, cfg)
	recs := NewRecommendationCache(client, cfg)

	_, ok, err := locker.TryLock(ctx, "acc-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, recs.SetList(ctx, "acc-1", domain.RecommendationFilter{}, []domain.Recommendation{{ID: "r1"}}))

	assert.True(t, mr.Exists("autoaction:lock:acc-1"))
	assert.Same(t, client, locker.(*redisRunLocker).client)
	assert.Same(t, client, recs.(*redisRecommendationCache).client)
}

func TestRecommendationCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	c := newRedisRecommendationCache(client, time.Minute)
	drafts := domain.RecommendationFilter{Status: domain.StatusDraft}

	payload, err := domain.NewPayload(map[string]int{"suggested_qty": 4})
	require.NoError(t, err)
	recs := []domain.Recommendation{{
		ID:          "r1",
		AccountID:   "acc-1",
		ProductCode: domain.StringPtr("SKU1"),
		Type:        domain.TypePurchaseOrder,
		Status:      domain.StatusDraft,
		Payload:     payload,
	}}

	require.NoError(t, c.SetList(ctx, "acc-1", drafts, recs))
	require.NoError(t, c.SetList(ctx, "acc-2", drafts, recs))

	got, hit, err := c.GetList(ctx, "acc-1", drafts)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, float64(4), got[0].Payload.SuggestedQty())

	_, hit, err = c.GetList(ctx, "acc-1", domain.RecommendationFilter{})
	require.NoError(t, err)
	assert.False(t, hit, "different filters use different keys")

	require.NoError(t, c.InvalidateAccount(ctx, "acc-1"))

	_, hit, err = c.GetList(ctx, "acc-1", drafts)
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.GetList(ctx, "acc-2", drafts)
	require.NoError(t, err)
	assert.True(t, hit, "other accounts keep their entries")
}

func TestRecommendationFilterHashIsStable(t *testing.T) {
	a := recommendationFilterHash(domain.RecommendationFilter{Status: domain.StatusDraft, Country: " FR "})
	b := recommendationFilterHash(domain.RecommendationFilter{Country: "FR", Status: domain.StatusDraft})

	assert.Equal(t, a, b)
	assert.Equal(t, "default", recommendationFilterHash(domain.RecommendationFilter{}))
}
