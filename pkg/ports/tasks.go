package ports

import (
	"context"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// TaskService stores human tasks and their identity links.
type TaskService interface {
	CreateTask(ctx context.Context, task *domain.Task) error

	// GetTask returns domain.ErrTaskNotFound for unknown ids.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	FindByExecution(ctx context.Context, executionID string) ([]*domain.Task, error)
	FindByProcessInstance(ctx context.Context, processInstanceID string) ([]*domain.Task, error)

	// DeleteTask removes the task and its identity links.
	DeleteTask(ctx context.Context, id string, reason string) error

	AddIdentityLinks(ctx context.Context, links ...*domain.IdentityLink) error
	IdentityLinks(ctx context.Context, taskID string) ([]*domain.IdentityLink, error)
	DeleteIdentityLinks(ctx context.Context, taskID string) error
}

// HistoryService keeps the audit record of process instances.
type HistoryService interface {
	Record(ctx context.Context, h *domain.HistoricProcessInstance) error

	// Get returns domain.ErrExecutionNotFound for unknown instances.
	Get(ctx context.Context, processInstanceID string) (*domain.HistoricProcessInstance, error)
}
