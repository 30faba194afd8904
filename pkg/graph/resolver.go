package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/lock"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

// Resolver loads the graph an instance executes on.
type Resolver struct {
	graphs ports.GraphStore
	defs   ports.DefinitionRepository
	guard  *lock.Guard
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.Graph
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGuard enables the read lease on Read.
func WithGuard(guard *lock.Guard) Option {
	return func(r *Resolver) {
		r.guard = guard
	}
}

// WithLogger configures a logger for the Resolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver over the per-instance graph store and the
// definition repository.
func NewResolver(graphs ports.GraphStore, defs ports.DefinitionRepository, opts ...Option) *Resolver {
	r := &Resolver{
		graphs: graphs,
		defs:   defs,
		logger: logging.NewNop(),
		cache:  make(map[string]*domain.Graph),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns a private copy of the graph of an instance: its override
// graph when one was saved, else the static graph of definitionID.
// fromCanonicalStore bypasses the definition cache.
// Load takes no lease; callers holding the write lease use it directly.
func (r *Resolver) Load(ctx context.Context, processInstanceID, definitionID string, fromCanonicalStore bool) (*domain.Graph, error) {
	if processInstanceID != "" {
		g, err := r.graphs.Load(ctx, processInstanceID)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, domain.ErrGraphNotFound) {
			return nil, fmt.Errorf("failed to load graph of instance %s: %w", processInstanceID, err)
		}
	}
	return r.Definition(ctx, definitionID, fromCanonicalStore)
}

// Read is Load under the shared read lease of the instance.
func (r *Resolver) Read(ctx context.Context, processInstanceID, definitionID string) (*domain.Graph, error) {
	if r.guard == nil || processInstanceID == "" {
		return r.Load(ctx, processInstanceID, definitionID, false)
	}

	var g *domain.Graph
	err := r.guard.WithReadLock(ctx, processInstanceID, func(ctx context.Context) error {
		var err error
		g, err = r.Load(ctx, processInstanceID, definitionID, false)
		return err
	})
	return g, err
}

// Definition returns a copy of the static graph of a definition.
func (r *Resolver) Definition(ctx context.Context, definitionID string, fromCanonicalStore bool) (*domain.Graph, error) {
	if !fromCanonicalStore {
		r.mu.RLock()
		g, ok := r.cache[definitionID]
		r.mu.RUnlock()
		if ok {
			return g.Clone(), nil
		}
	}

	g, err := r.defs.Graph(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[definitionID] = g.Clone()
	r.mu.Unlock()
	r.logger.Debug("definition graph cached", "definition_id", definitionID)

	return g, nil
}

// Save persists g as the override graph of an instance.
func (r *Resolver) Save(ctx context.Context, processInstanceID string, g *domain.Graph) error {
	if err := r.graphs.Save(ctx, processInstanceID, g); err != nil {
		return fmt.Errorf("failed to save graph of instance %s: %w", processInstanceID, err)
	}
	return nil
}

// Invalidate drops a definition graph from the cache.
func (r *Resolver) Invalidate(definitionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, definitionID)
}
