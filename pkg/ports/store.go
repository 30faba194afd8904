package ports

import (
	"context"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// GraphStore persists the per-instance override graph of a process instance.
// An instance only has an override once its graph was edited at runtime.
type GraphStore interface {
	// Load returns domain.ErrGraphNotFound when the instance has no override.
	Load(ctx context.Context, processInstanceID string) (*domain.Graph, error)

	// Save creates or replaces the override graph.
	Save(ctx context.Context, processInstanceID string, graph *domain.Graph) error

	// Delete removes the override graph.
	Delete(ctx context.Context, processInstanceID string) error
}

// DefinitionRepository holds deployed process definitions and their static graphs.
type DefinitionRepository interface {
	// Deploy stores a new version of the definition and returns it with
	// ID and Version assigned.
	Deploy(ctx context.Context, def domain.ProcessDefinition, graph *domain.Graph) (*domain.ProcessDefinition, error)

	// FindByID returns domain.ErrDefinitionNotFound for unknown ids.
	FindByID(ctx context.Context, id string) (*domain.ProcessDefinition, error)

	// FindLatestByKey returns the highest version sharing key and tenant.
	FindLatestByKey(ctx context.Context, key, tenantID string) (*domain.ProcessDefinition, error)

	// Graph returns a copy of the static graph of a definition.
	Graph(ctx context.Context, definitionID string) (*domain.Graph, error)
}

// ExecutionStore persists execution tree nodes.
// Implementations must hand out copies: callers save explicitly.
type ExecutionStore interface {
	Save(ctx context.Context, exec *domain.Execution) error

	// Get returns domain.ErrExecutionNotFound for unknown or deleted ids.
	Get(ctx context.Context, id string) (*domain.Execution, error)

	// Children returns the direct children of an execution in creation order.
	Children(ctx context.Context, parentID string) ([]*domain.Execution, error)

	// ByProcessInstance returns every execution of an instance, root included.
	ByProcessInstance(ctx context.Context, processInstanceID string) ([]*domain.Execution, error)

	Delete(ctx context.Context, id string) error
}
