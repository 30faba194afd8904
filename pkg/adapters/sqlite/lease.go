package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LeaseStore implements ports.LeaseStore on a SQL table. Expired rows are
// ignored on read and replaced on acquire.
type LeaseStore struct {
	db  *sql.DB
	now func() time.Time
}

// LeaseOption configures a LeaseStore.
type LeaseOption func(*LeaseStore)

// WithClock overrides the time source used to expire leases.
func WithClock(now func() time.Time) LeaseOption {
	return func(l *LeaseStore) {
		l.now = now
	}
}

// NewLeaseStore initializes the lease table in db.
func NewLeaseStore(ctx context.Context, db *sql.DB, opts ...LeaseOption) (*LeaseStore, error) {
	l := &LeaseStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lease (
			key TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lease table: %w", err)
	}
	return l, nil
}

func (l *LeaseStore) deadline(ttl time.Duration) int64 {
	return l.now().Add(ttl).UnixNano()
}

// TryAcquire inserts the lease row unless a live one exists.
func (l *LeaseStore) TryAcquire(ctx context.Context, key string, ttl time.Duration, token string) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO lease (key, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		WHERE lease.expires_at <= ?`,
		key, token, l.deadline(ttl), l.now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite error acquiring lease %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Refresh extends a live lease. Missing or expired leases are ignored.
func (l *LeaseStore) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE lease SET expires_at = ? WHERE key = ? AND expires_at > ?`,
		l.deadline(ttl), key, l.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite error refreshing lease %s: %w", key, err)
	}
	return nil
}

// Get returns the token of a live lease.
func (l *LeaseStore) Get(ctx context.Context, key string) (string, bool, error) {
	var token string
	err := l.db.QueryRowContext(ctx, `
		SELECT token FROM lease WHERE key = ? AND expires_at > ?`,
		key, l.now().UnixNano(),
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite error reading lease %s: %w", key, err)
	}
	return token, true, nil
}

// Release deletes the lease if it still holds token.
func (l *LeaseStore) Release(ctx context.Context, key string, token string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM lease WHERE key = ? AND token = ?`, key, token); err != nil {
		return fmt.Errorf("sqlite error releasing lease %s: %w", key, err)
	}
	return nil
}
