package lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of a lease that is not released explicitly.
const DefaultTTL = 15 * time.Second

const (
	writePrefix = "WRITE#"
	readPrefix  = "READ#"
)

// WriteKey returns the write lease key of a process instance.
func WriteKey(processInstanceID string) string { return writePrefix + processInstanceID }

// ReadKey returns the read lease key of a process instance.
func ReadKey(processInstanceID string) string { return readPrefix + processInstanceID }

// Token builds the value stored in a lease: the requester id and the
// acquisition time in unix milliseconds, joined by a colon.
func Token(requester string, at time.Time) string {
	return requester + ":" + strconv.FormatInt(at.UnixMilli(), 10)
}

// ParseToken splits a lease value built by Token. Values written by other
// tools are reported as not ok.
func ParseToken(token string) (requester string, acquiredAt time.Time, ok bool) {
	i := strings.LastIndexByte(token, ':')
	if i <= 0 {
		return "", time.Time{}, false
	}
	ms, err := strconv.ParseInt(token[i+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return token[:i], time.UnixMilli(ms), true
}

// DefaultRequester identifies this process: the host name and a random
// suffix, so that two guards never share tokens.
func DefaultRequester() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// Guard runs functions under the read or write lease of a process instance.
type Guard struct {
	store     ports.LeaseStore
	ttl       time.Duration
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	requester string
	now       func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithLogger configures a logger for release failures and conflicts.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithHooks registers callbacks fired on lease conflicts.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Guard) {
		g.hooks = hooks
	}
}

// WithRequester sets the requester id written into lease tokens.
// It must be unique among the guards sharing a lease store.
func WithRequester(id string) Option {
	return func(g *Guard) {
		if id != "" {
			g.requester = id
		}
	}
}

// WithClock replaces the clock used to stamp tokens.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates a guard on top of a lease store.
func NewGuard(store ports.LeaseStore, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		ttl:    DefaultTTL,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.requester == "" {
		g.requester = DefaultRequester()
	}
	return g
}

// TTL returns the lease lifetime used by the guard.
func (g *Guard) TTL() time.Duration { return g.ttl }

// Requester returns the id this guard writes into its tokens.
func (g *Guard) Requester() string { return g.requester }

func (g *Guard) newToken() string { return Token(g.requester, g.now()) }

// WithWriteLock runs fn while holding the exclusive write lease.
// It fails when any read or write lease exists on the instance.
func (g *Guard) WithWriteLock(ctx context.Context, processInstanceID string, fn func(context.Context) error) error {
	writeKey := WriteKey(processInstanceID)

	if err := g.ensureAbsent(ctx, processInstanceID, writeKey); err != nil {
		return err
	}
	if err := g.ensureAbsent(ctx, processInstanceID, ReadKey(processInstanceID)); err != nil {
		return err
	}

	token := g.newToken()
	ok, err := g.store.TryAcquire(ctx, writeKey, g.ttl, token)
	if err != nil {
		return err
	}
	if !ok {
		return g.conflict(ctx, processInstanceID, writeKey, "")
	}
	defer g.release(ctx, writeKey, token)

	return fn(ctx)
}

// WithReadLock runs fn while holding a shared read lease.
// Concurrent readers share the lease; only the reader that created it
// releases it, the others merely refresh its TTL.
func (g *Guard) WithReadLock(ctx context.Context, processInstanceID string, fn func(context.Context) error) error {
	if err := g.ensureAbsent(ctx, processInstanceID, WriteKey(processInstanceID)); err != nil {
		return err
	}

	readKey := ReadKey(processInstanceID)
	token := g.newToken()
	created, err := g.store.TryAcquire(ctx, readKey, g.ttl, token)
	if err != nil {
		return err
	}
	if created {
		defer g.release(ctx, readKey, token)
	} else if err := g.store.Refresh(ctx, readKey, g.ttl); err != nil {
		return err
	}

	return fn(ctx)
}

func (g *Guard) ensureAbsent(ctx context.Context, processInstanceID, key string) error {
	holder, held, err := g.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if held {
		return g.conflict(ctx, processInstanceID, key, holder)
	}
	return nil
}

func (g *Guard) conflict(ctx context.Context, processInstanceID, key, holder string) error {
	g.logger.Debug("lease conflict", "key", key, "holder", holder)
	if g.hooks.OnLeaseConflict != nil {
		base := domain.NewEventBase(domain.EventLeaseConflict, nil)
		base.ProcessInstanceID = processInstanceID
		g.hooks.OnLeaseConflict(ctx, &domain.LeaseEvent{EventBase: base, Key: key})
	}
	return &domain.LockUnavailableError{Key: key, Holder: holder}
}

func (g *Guard) release(ctx context.Context, key, token string) {
	// Release even when ctx was cancelled by the guarded function.
	if err := g.store.Release(context.WithoutCancel(ctx), key, token); err != nil {
		g.logger.Warn("Failed to release lease (will expire via TTL)",
			"key", key,
			"err", err,
		)
	}
}
