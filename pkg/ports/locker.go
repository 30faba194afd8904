package ports

import (
	"context"
	"time"
)

// LeaseStore is the key/value capability behind the distributed read/write
// locks that guard live graph edits.
// Leases are TTL bound: a crashed holder cannot wedge a key forever.
type LeaseStore interface {
	// TryAcquire sets key to token with the given TTL if the key is absent.
	// It never waits: false means another party holds the lease.
	TryAcquire(ctx context.Context, key string, ttl time.Duration, token string) (bool, error)

	// Refresh extends the TTL of an existing lease.
	Refresh(ctx context.Context, key string, ttl time.Duration) error

	// Get returns the token stored under key and whether the lease exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Release deletes the lease if it still holds token.
	Release(ctx context.Context, key string, token string) error
}
