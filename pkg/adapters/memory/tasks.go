package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// TaskService implements ports.TaskService in memory.
type TaskService struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
	links map[string][]*domain.IdentityLink
}

// NewTaskService creates an empty task service.
func NewTaskService() *TaskService {
	return &TaskService{
		tasks: make(map[string]*domain.Task),
		links: make(map[string][]*domain.IdentityLink),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		return domain.IllegalArgument("task id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	c := *task
	s.tasks[task.ID] = &c
	return nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	c := *t
	return &c, nil
}

func (s *TaskService) FindByExecution(ctx context.Context, executionID string) ([]*domain.Task, error) {
	return s.filter(func(t *domain.Task) bool { return t.ExecutionID == executionID }), nil
}

func (s *TaskService) FindByProcessInstance(ctx context.Context, processInstanceID string) ([]*domain.Task, error) {
	return s.filter(func(t *domain.Task) bool { return t.ProcessInstanceID == processInstanceID }), nil
}

// DeleteTask removes the task and its identity links. The reason is only
// meaningful to persistent backends keeping task history.
func (s *TaskService) DeleteTask(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, id)
	delete(s.links, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskService) AddIdentityLinks(ctx context.Context, links ...*domain.IdentityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range links {
		if _, ok := s.tasks[l.TaskID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, l.TaskID)
		}
		c := *l
		s.links[l.TaskID] = append(s.links[l.TaskID], &c)
	}
	return nil
}

func (s *TaskService) IdentityLinks(ctx context.Context, taskID string) ([]*domain.IdentityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.IdentityLink, 0, len(s.links[taskID]))
	for _, l := range s.links[taskID] {
		c := *l
		out = append(out, &c)
	}
	return out, nil
}

func (s *TaskService) DeleteIdentityLinks(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, taskID)
	return nil
}

func (s *TaskService) filter(keep func(*domain.Task) bool) []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Task
	for _, id := range s.order {
		if t := s.tasks[id]; keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	return out
}
