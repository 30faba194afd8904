package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventActivityCompleted                   EventType = "activity_completed"
	EventFlowTaken                           EventType = "flow_taken"
	EventMultiInstanceCompleted              EventType = "multi_instance_completed"
	EventMultiInstanceCompletedWithCondition EventType = "multi_instance_completed_with_condition"
	EventTaskCreated                         EventType = "task_created"
	EventTaskCompleted                       EventType = "task_completed"
	EventGraphMutated                        EventType = "graph_mutated"
	EventLeaseConflict                       EventType = "lease_conflict"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp         time.Time `json:"timestamp"`
	Type              EventType `json:"type"`
	ProcessInstanceID string    `json:"process_instance_id,omitempty"`
	ExecutionID       string    `json:"execution_id,omitempty"`
}

// NewEventBase stamps an event of the given type.
func NewEventBase(t EventType, exec *Execution) EventBase {
	base := EventBase{Timestamp: time.Now(), Type: t}
	if exec != nil {
		base.ProcessInstanceID = exec.ProcessInstanceID
		base.ExecutionID = exec.ID
	}
	return base
}

// ActivityEvent is emitted when an activity or gateway completes.
type ActivityEvent struct {
	EventBase
	ActivityID   string      `json:"activity_id"`
	ActivityName string      `json:"activity_name,omitempty"`
	ActivityType ElementType `json:"activity_type"`
}

// FlowEvent is emitted when a sequence flow is taken.
type FlowEvent struct {
	EventBase
	FlowID   string `json:"flow_id"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// MultiInstanceEvent is emitted when a multi-instance activity completes.
type MultiInstanceEvent struct {
	EventBase
	ActivityID             string `json:"activity_id"`
	ActivityName           string `json:"activity_name,omitempty"`
	NrOfInstances          int    `json:"nr_of_instances"`
	NrOfActiveInstances    int    `json:"nr_of_active_instances"`
	NrOfCompletedInstances int    `json:"nr_of_completed_instances"`
}

// TaskEvent is emitted when a user task is created or completed.
type TaskEvent struct {
	EventBase
	TaskID            string `json:"task_id"`
	TaskDefinitionKey string `json:"task_definition_key"`
}

// MutationEvent is emitted after a graph mutation is committed.
type MutationEvent struct {
	EventBase
	Operation string `json:"operation"`
	ElementID string `json:"element_id"`
}

// LeaseEvent is emitted when a lease could not be acquired.
type LeaseEvent struct {
	EventBase
	Key string `json:"key"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnActivityCompleted      func(context.Context, *ActivityEvent)
	OnFlowTaken              func(context.Context, *FlowEvent)
	OnMultiInstanceCompleted func(context.Context, *MultiInstanceEvent)
	OnTaskCreated            func(context.Context, *TaskEvent)
	OnTaskCompleted          func(context.Context, *TaskEvent)
	OnGraphMutated           func(context.Context, *MutationEvent)
	OnLeaseConflict          func(context.Context, *LeaseEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnActivityCompleted:      chain(h.OnActivityCompleted, other.OnActivityCompleted),
		OnFlowTaken:              chain(h.OnFlowTaken, other.OnFlowTaken),
		OnMultiInstanceCompleted: chain(h.OnMultiInstanceCompleted, other.OnMultiInstanceCompleted),
		OnTaskCreated:            chain(h.OnTaskCreated, other.OnTaskCreated),
		OnTaskCompleted:          chain(h.OnTaskCompleted, other.OnTaskCompleted),
		OnGraphMutated:           chain(h.OnGraphMutated, other.OnGraphMutated),
		OnLeaseConflict:          chain(h.OnLeaseConflict, other.OnLeaseConflict),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
