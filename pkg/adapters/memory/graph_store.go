package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// GraphStore implements ports.GraphStore in memory.
// Safe for concurrent use.
type GraphStore struct {
	data map[string]*domain.Graph
	mu   sync.RWMutex
}

// NewGraphStore creates a new in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		data: make(map[string]*domain.Graph),
	}
}

// Save persists a copy of the graph.
func (s *GraphStore) Save(ctx context.Context, processInstanceID string, graph *domain.Graph) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := graph.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[processInstanceID] = copied
	return nil
}

// Load retrieves a copy of the graph.
func (s *GraphStore) Load(ctx context.Context, processInstanceID string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.data[processInstanceID]
	if !ok {
		return nil, domain.ErrGraphNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return graph.Clone(), nil
}

// Delete removes the graph.
func (s *GraphStore) Delete(ctx context.Context, processInstanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, processInstanceID)
	return nil
}

// List returns the instances that own an override graph.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
