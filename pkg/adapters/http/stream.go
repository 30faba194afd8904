package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
)

// StreamManager fans lifecycle events out to SSE subscribers, per process
// instance.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // ProcessInstanceID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for one instance. The returned
// function unregisters and closes it.
func (sm *StreamManager) Subscribe(processInstanceID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[processInstanceID]; !ok {
		sm.subscribers[processInstanceID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[processInstanceID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[processInstanceID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, processInstanceID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of the instance without blocking.
func (sm *StreamManager) Broadcast(processInstanceID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[processInstanceID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "process_instance_id", processInstanceID)
			}
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every event as JSON.
// Register them on the engine so that /events streams have content.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivityCompleted: func(_ context.Context, e *domain.ActivityEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnFlowTaken: func(_ context.Context, e *domain.FlowEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnMultiInstanceCompleted: func(_ context.Context, e *domain.MultiInstanceEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnTaskCreated: func(_ context.Context, e *domain.TaskEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnTaskCompleted: func(_ context.Context, e *domain.TaskEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnGraphMutated: func(_ context.Context, e *domain.MutationEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
		OnLeaseConflict: func(_ context.Context, e *domain.LeaseEvent) {
			sm.publish(e.ProcessInstanceID, e)
		},
	}
}

func (sm *StreamManager) publish(processInstanceID string, event any) {
	if processInstanceID == "" {
		return
	}
	bytes, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: failed to encode event", "err", err)
		return
	}
	sm.Broadcast(processInstanceID, string(bytes))
}
