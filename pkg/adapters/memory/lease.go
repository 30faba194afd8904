package memory

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	token     string
	expiresAt time.Time
}

// LeaseStore implements ports.LeaseStore in process memory.
// It is meant for single-process deployments and tests; leases are not
// shared between engine processes.
type LeaseStore struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

// LeaseOption configures a LeaseStore.
type LeaseOption func(*LeaseStore)

// WithClock overrides the time source used to expire leases.
func WithClock(now func() time.Time) LeaseOption {
	return func(s *LeaseStore) {
		s.now = now
	}
}

// NewLeaseStore creates an empty lease store.
func NewLeaseStore(opts ...LeaseOption) *LeaseStore {
	s := &LeaseStore{
		leases: make(map[string]lease),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live returns the lease under key, evicting it when expired. Caller holds mu.
func (s *LeaseStore) live(key string) (lease, bool) {
	l, ok := s.leases[key]
	if !ok {
		return lease{}, false
	}
	if !s.now().Before(l.expiresAt) {
		delete(s.leases, key)
		return lease{}, false
	}
	return l, true
}

// TryAcquire sets key to token if no live lease exists.
func (s *LeaseStore) TryAcquire(ctx context.Context, key string, ttl time.Duration, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.leases[key] = lease{token: token, expiresAt: s.now().Add(ttl)}
	return true, nil
}

// Refresh extends a live lease. Missing leases are ignored.
func (s *LeaseStore) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.live(key)
	if !ok {
		return nil
	}
	l.expiresAt = s.now().Add(ttl)
	s.leases[key] = l
	return nil
}

// Get returns the token of a live lease.
func (s *LeaseStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.live(key)
	return l.token, ok, nil
}

// Release deletes the lease when it still holds token.
func (s *LeaseStore) Release(ctx context.Context, key string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.live(key); ok && l.token == token {
		delete(s.leases, key)
	}
	return nil
}
