package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/google/uuid"
)

type deployed struct {
	def   domain.ProcessDefinition
	graph *domain.Graph
}

// DefinitionRepository implements ports.DefinitionRepository in memory.
type DefinitionRepository struct {
	mu     sync.RWMutex
	byID   map[string]*deployed
	order  []string
	newIDs func() string
}

// NewDefinitionRepository creates an empty repository.
func NewDefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{
		byID:   make(map[string]*deployed),
		newIDs: func() string { return uuid.NewString() },
	}
}

// NewDefinitionRepositoryFromGraphs deploys each graph once, keyed by its id.
// Useful for tests and for bootstrapping a directory of definitions.
func NewDefinitionRepositoryFromGraphs(ctx context.Context, graphs ...*domain.Graph) (*DefinitionRepository, error) {
	repo := NewDefinitionRepository()
	for _, g := range graphs {
		if _, err := repo.Deploy(ctx, domain.ProcessDefinition{Key: g.ID, Name: g.Name}, g); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Deploy stores a new version of def. Versions count per key and tenant.
func (r *DefinitionRepository) Deploy(ctx context.Context, def domain.ProcessDefinition, graph *domain.Graph) (*domain.ProcessDefinition, error) {
	if def.Key == "" {
		return nil, domain.IllegalArgument("process definition key is required")
	}
	if graph == nil {
		return nil, domain.IllegalArgument("process definition %s has no graph", def.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	def.Version = 1
	if latest := r.latest(def.Key, def.TenantID); latest != nil {
		def.Version = latest.def.Version + 1
	}
	if def.DeploymentID == "" {
		def.DeploymentID = r.newIDs()
	}
	def.ID = fmt.Sprintf("%s:%d:%s", def.Key, def.Version, r.newIDs())

	r.byID[def.ID] = &deployed{def: def, graph: graph.Clone()}
	r.order = append(r.order, def.ID)

	out := def
	return &out, nil
}

// FindByID returns the definition with the given id.
func (r *DefinitionRepository) FindByID(ctx context.Context, id string) (*domain.ProcessDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, id)
	}
	out := d.def
	return &out, nil
}

// FindLatestByKey returns the highest version deployed for key and tenant.
func (r *DefinitionRepository) FindLatestByKey(ctx context.Context, key, tenantID string) (*domain.ProcessDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.latest(key, tenantID)
	if d == nil {
		return nil, fmt.Errorf("%w: key %s", domain.ErrDefinitionNotFound, key)
	}
	out := d.def
	return &out, nil
}

// Graph returns a copy of the static graph of a definition.
func (r *DefinitionRepository) Graph(ctx context.Context, definitionID string) (*domain.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[definitionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, definitionID)
	}
	return d.graph.Clone(), nil
}

// List returns every deployed definition in deployment order.
func (r *DefinitionRepository) List(ctx context.Context) ([]domain.ProcessDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ProcessDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].def)
	}
	return out, nil
}

func (r *DefinitionRepository) latest(key, tenantID string) *deployed {
	var best *deployed
	for _, id := range r.order {
		d := r.byID[id]
		if d.def.Key != key || d.def.TenantID != tenantID {
			continue
		}
		if best == nil || d.def.Version > best.def.Version {
			best = d
		}
	}
	return best
}
