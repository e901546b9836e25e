package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eroudini/AiMerchant-sub000/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	runLockKeyPrefix = "autoaction:lock:"
	defaultLockTTL   = 10 * time.Minute
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RunLocker serializes auto-action processing of an account across
// processes, so the scheduled job and an on-demand run never overlap.
type RunLocker interface {
	// TryLock returns a release token and true when the lock was acquired.
	TryLock(ctx context.Context, accountID string) (string, bool, error)
	Release(ctx context.Context, accountID, token string) error
}

type redisRunLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
}

type noopRunLocker struct{}

// NewRunLocker locks accounts on client. A nil client yields a locker that
// always succeeds.
func NewRunLocker(client *redis.Client, cfg config.CacheConfig) RunLocker {
	if client == nil {
		return &noopRunLocker{}
	}
	return newRedisRunLocker(client, time.Duration(cfg.LockTTLSeconds)*time.Second)
}

func newRedisRunLocker(client *redis.Client, ttl time.Duration) *redisRunLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisRunLocker{
		client: client,
		script: redis.NewScript(releaseScript),
		ttl:    ttl,
	}
}

func NewNoopRunLocker() RunLocker {
	return &noopRunLocker{}
}

func (l *redisRunLocker) TryLock(ctx context.Context, accountID string) (string, bool, error) {
	if accountID == "" {
		return "", false, errors.New("lock key is empty")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, runLockKeyPrefix+accountID, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisRunLocker) Release(ctx context.Context, accountID, token string) error {
	if accountID == "" || token == "" {
		return nil
	}
	if err := l.script.Run(ctx, l.client, []string{runLockKeyPrefix + accountID}, token).Err(); err != nil {
		return fmt.Errorf("redis lock release failed: %w", err)
	}
	return nil
}

func (n *noopRunLocker) TryLock(ctx context.Context, accountID string) (string, bool, error) {
	return "noop", true, nil
}

func (n *noopRunLocker) Release(ctx context.Context, accountID, token string) error {
	return nil
}
