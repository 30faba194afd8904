package command

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/internal/mutation"
	"github.com/fangliji/flowable-engine/internal/runtime"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/google/uuid"
)

const (
	// DefaultLeaseTTL bounds how long a crashed node can hold an instance.
	DefaultLeaseTTL = 30 * time.Second
	// DefaultPollInterval is the wait between two distributed acquire attempts.
	DefaultPollInterval = 100 * time.Millisecond

	commandPrefix = "CMD#"
)

// CommandKey returns the lease key serializing commands of a process instance.
func CommandKey(processInstanceID string) string { return commandPrefix + processInstanceID }

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Dispatcher runs engine and mutation commands one at a time per process
// instance. Unused locks are garbage collected through reference counting.
type Dispatcher struct {
	engine  *runtime.Engine
	mutator *mutation.Mutator

	mu    sync.Mutex
	locks map[string]*lockEntry

	leases   ports.LeaseStore
	ttl      time.Duration
	interval time.Duration
	newToken func() string
	logger   *slog.Logger
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithLeases serializes commands across engine processes through a lease
// store, on top of the in-process mutex.
func WithLeases(store ports.LeaseStore, ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.leases = store
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithLogger configures a logger for the Dispatcher.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher in front of an engine and a mutator.
func NewDispatcher(engine *runtime.Engine, mutator *mutation.Mutator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		engine:   engine,
		mutator:  mutator,
		locks:    make(map[string]*lockEntry),
		ttl:      DefaultLeaseTTL,
		interval: DefaultPollInterval,
		newToken: uuid.NewString,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the wrapped engine, for read-only queries.
func (d *Dispatcher) Engine() *runtime.Engine { return d.engine }

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release after unlocking.
func (d *Dispatcher) acquire(processInstanceID string) *lockEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, exists := d.locks[processInstanceID]
	if !exists {
		entry = &lockEntry{}
		d.locks[processInstanceID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (d *Dispatcher) release(processInstanceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, exists := d.locks[processInstanceID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(d.locks, processInstanceID)
	}
}

// WithLock executes fn while holding the command lock of a process instance.
func (d *Dispatcher) WithLock(ctx context.Context, processInstanceID string, fn func(context.Context) error) error {
	entry := d.acquire(processInstanceID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		d.release(processInstanceID)
	}()

	if d.leases != nil {
		key := CommandKey(processInstanceID)
		token, err := d.lease(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to acquire command lease for %s: %w", processInstanceID, err)
		}
		defer func() {
			if err := d.leases.Release(context.WithoutCancel(ctx), key, token); err != nil {
				d.logger.Warn("Failed to release command lease (will expire via TTL)",
					"process_instance_id", processInstanceID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// lease polls the lease store until key is acquired or ctx is done.
func (d *Dispatcher) lease(ctx context.Context, key string) (string, error) {
	token := d.newToken()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		ok, err := d.leases.TryAcquire(ctx, key, d.ttl, token)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) byTask(ctx context.Context, taskID string, fn func(context.Context) error) error {
	task, err := d.engine.Task(ctx, taskID)
	if err != nil {
		return err
	}
	return d.WithLock(ctx, task.ProcessInstanceID, fn)
}

func (d *Dispatcher) byExecution(ctx context.Context, executionID string, fn func(context.Context) error) error {
	exec, err := d.engine.Execution(ctx, executionID)
	if err != nil {
		return err
	}
	return d.WithLock(ctx, exec.ProcessInstanceID, fn)
}

// StartProcessInstanceByKey starts the latest definition of key.
// A new instance has no concurrent commands yet, so no lock is taken.
func (d *Dispatcher) StartProcessInstanceByKey(ctx context.Context, key, tenantID string, vars map[string]any) (*domain.Execution, error) {
	return d.engine.StartProcessInstanceByKey(ctx, key, tenantID, vars)
}

// StartProcessInstance starts a definition by id.
func (d *Dispatcher) StartProcessInstance(ctx context.Context, definitionID string, vars map[string]any) (*domain.Execution, error) {
	return d.engine.StartProcessInstance(ctx, definitionID, vars)
}

// CompleteTask completes a task under the lock of its process instance.
func (d *Dispatcher) CompleteTask(ctx context.Context, taskID string, vars map[string]any) error {
	return d.byTask(ctx, taskID, func(ctx context.Context) error {
		return d.engine.CompleteTask(ctx, taskID, vars)
	})
}

// AddSignature adds approvers to a running multi-instance activity.
func (d *Dispatcher) AddSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	var out []string
	err := d.byExecution(ctx, executionID, func(ctx context.Context) error {
		var err error
		out, err = d.engine.AddSignature(ctx, executionID, candidates)
		return err
	})
	return out, err
}

// RemoveSignature removes approvers from a running multi-instance activity.
func (d *Dispatcher) RemoveSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	var out []string
	err := d.byExecution(ctx, executionID, func(ctx context.Context) error {
		var err error
		out, err = d.engine.RemoveSignature(ctx, executionID, candidates)
		return err
	})
	return out, err
}

// InsertTask inserts a user task next to anchorKey.
func (d *Dispatcher) InsertTask(ctx context.Context, processInstanceID, anchorKey string, position mutation.Position, name string, candidateUsers []string) (string, error) {
	var id string
	err := d.WithLock(ctx, processInstanceID, func(ctx context.Context) error {
		var err error
		id, err = d.mutator.InsertTask(ctx, processInstanceID, anchorKey, position, name, candidateUsers)
		return err
	})
	return id, err
}

// DeleteTask soft deletes a user task.
func (d *Dispatcher) DeleteTask(ctx context.Context, processInstanceID, taskKey, taskID string) error {
	return d.WithLock(ctx, processInstanceID, func(ctx context.Context) error {
		return d.mutator.DeleteTask(ctx, processInstanceID, taskKey, taskID)
	})
}

// UpdateTask changes the candidate users of a user task.
func (d *Dispatcher) UpdateTask(ctx context.Context, processInstanceID, taskKey string, candidateUsers []string, mode mutation.UpdateMode) error {
	return d.WithLock(ctx, processInstanceID, func(ctx context.Context) error {
		return d.mutator.UpdateTask(ctx, processInstanceID, taskKey, candidateUsers, mode)
	})
}

// UpgradeInstance moves an instance to the latest definition of its key.
func (d *Dispatcher) UpgradeInstance(ctx context.Context, processInstanceID, definitionID string) (string, error) {
	var id string
	err := d.WithLock(ctx, processInstanceID, func(ctx context.Context) error {
		var err error
		id, err = d.mutator.UpgradeInstance(ctx, processInstanceID, definitionID)
		return err
	})
	return id, err
}
