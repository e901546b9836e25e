package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/eroudini/AiMerchant-sub000/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	recommendationListKeyPrefix = "recommendations:list"
	recommendationScanBatchSize = 100
	defaultListTTL              = time.Minute
)

// RecommendationCache holds recommendation listings per account. Writers
// invalidate the whole account after generating or executing.
type RecommendationCache interface {
	GetList(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, bool, error)
	SetList(ctx context.Context, accountID string, filter domain.RecommendationFilter, recs []domain.Recommendation) error
	InvalidateAccount(ctx context.Context, accountID string) error
}

type redisRecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecommendationCache struct{}

// NewRecommendationCache caches listings on client. A nil client disables
// caching.
func NewRecommendationCache(client *redis.Client, cfg config.CacheConfig) RecommendationCache {
	if client == nil {
		return &noopRecommendationCache{}
	}
	return newRedisRecommendationCache(client, time.Duration(cfg.ListTTLSeconds)*time.Second)
}

func newRedisRecommendationCache(client *redis.Client, ttl time.Duration) *redisRecommendationCache {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	return &redisRecommendationCache{client: client, ttl: ttl}
}

func NewNoopRecommendationCache() RecommendationCache {
	return &noopRecommendationCache{}
}

func (c *redisRecommendationCache) GetList(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, bool, error) {
	payload, err := c.client.Get(ctx, buildListKey(accountID, filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		return nil, false, fmt.Errorf("decode recommendation list cache: %w", err)
	}

	return recs, true, nil
}

func (c *redisRecommendationCache) SetList(ctx context.Context, accountID string, filter domain.RecommendationFilter, recs []domain.Recommendation) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendation list cache: %w", err)
	}

	if err := c.client.Set(ctx, buildListKey(accountID, filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecommendationCache) InvalidateAccount(ctx context.Context, accountID string) error {
	return deleteKeysWithPrefix(ctx, c.client, accountKeyPrefix(accountID), recommendationScanBatchSize)
}

func (n *noopRecommendationCache) GetList(ctx context.Context, accountID string, filter domain.RecommendationFilter) ([]domain.Recommendation, bool, error) {
	return nil, false, nil
}

func (n *noopRecommendationCache) SetList(ctx context.Context, accountID string, filter domain.RecommendationFilter, recs []domain.Recommendation) error {
	return nil
}

func (n *noopRecommendationCache) InvalidateAccount(ctx context.Context, accountID string) error {
	return nil
}

func accountKeyPrefix(accountID string) string {
	return fmt.Sprintf("%s:%s:", recommendationListKeyPrefix, accountID)
}

func buildListKey(accountID string, filter domain.RecommendationFilter) string {
	return accountKeyPrefix(accountID) + recommendationFilterHash(filter)
}

func recommendationFilterHash(filter domain.RecommendationFilter) string {
	parts := []string{}

	if filter.Status != "" {
		parts = append(parts, "status="+string(filter.Status))
	}
	if filter.Type != "" {
		parts = append(parts, "type="+string(filter.Type))
	}
	if country := strings.TrimSpace(filter.Country); country != "" {
		parts = append(parts, "country="+country)
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
