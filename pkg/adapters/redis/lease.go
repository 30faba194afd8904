package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries the caller's token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// LeaseStore implements ports.LeaseStore using Redis SET NX EX.
type LeaseStore struct {
	client backend.UniversalClient
	prefix string
}

// NewLeaseStore creates a lease store on top of an existing client.
// Keys are stored as prefix + key.
func NewLeaseStore(client backend.UniversalClient, prefix string) *LeaseStore {
	return &LeaseStore{
		client: client,
		prefix: prefix,
	}
}

func (l *LeaseStore) key(key string) string {
	return l.prefix + key
}

// TryAcquire sets the key if it is absent. It does not retry.
func (l *LeaseStore) TryAcquire(ctx context.Context, key string, ttl time.Duration, token string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(key), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error acquiring lease %s: %w", key, err)
	}
	return ok, nil
}

// Refresh resets the TTL of the key. Missing keys are ignored.
func (l *LeaseStore) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	if err := l.client.Expire(ctx, l.key(key), ttl).Err(); err != nil {
		return fmt.Errorf("redis error refreshing lease %s: %w", key, err)
	}
	return nil
}

// Get returns the token currently stored under key.
func (l *LeaseStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := l.client.Get(ctx, l.key(key)).Result()
	if errors.Is(err, backend.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis error reading lease %s: %w", key, err)
	}
	return val, true, nil
}

// Release deletes the key if it still holds token.
func (l *LeaseStore) Release(ctx context.Context, key string, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(key)}, token).Err(); err != nil && !errors.Is(err, backend.Nil) {
		return fmt.Errorf("redis error releasing lease %s: %w", key, err)
	}
	return nil
}
