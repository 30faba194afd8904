package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// HistoryService implements ports.HistoryService in memory.
type HistoryService struct {
	mu   sync.RWMutex
	data map[string]domain.HistoricProcessInstance
}

func NewHistoryService() *HistoryService {
	return &HistoryService{data: make(map[string]domain.HistoricProcessInstance)}
}

func (s *HistoryService) Record(ctx context.Context, h *domain.HistoricProcessInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[h.ID] = *h
	return nil
}

func (s *HistoryService) Get(ctx context.Context, processInstanceID string) (*domain.HistoricProcessInstance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[processInstanceID]
	if !ok {
		return nil, fmt.Errorf("%w: history of %s", domain.ErrExecutionNotFound, processInstanceID)
	}
	return &h, nil
}
