package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// ExecutionStore implements ports.ExecutionStore in memory.
// Executions are copied on the way in and out.
type ExecutionStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Execution
	order []string
}

// NewExecutionStore creates an empty execution store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{data: make(map[string]*domain.Execution)}
}

func (s *ExecutionStore) Save(ctx context.Context, exec *domain.Execution) error {
	if exec.ID == "" {
		return domain.IllegalArgument("execution id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[exec.ID]; !ok {
		s.order = append(s.order, exec.ID)
	}
	s.data[exec.ID] = exec.Clone()
	return nil
}

func (s *ExecutionStore) Get(ctx context.Context, id string) (*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExecutionNotFound, id)
	}
	return e.Clone(), nil
}

func (s *ExecutionStore) Children(ctx context.Context, parentID string) ([]*domain.Execution, error) {
	return s.filter(func(e *domain.Execution) bool { return e.ParentID == parentID }), nil
}

func (s *ExecutionStore) ByProcessInstance(ctx context.Context, processInstanceID string) ([]*domain.Execution, error) {
	return s.filter(func(e *domain.Execution) bool { return e.ProcessInstanceID == processInstanceID }), nil
}

func (s *ExecutionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return nil
	}
	delete(s.data, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ExecutionStore) filter(keep func(*domain.Execution) bool) []*domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Execution
	for _, id := range s.order {
		if e := s.data[id]; keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}
