package observability

import (
	"context"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	activities     *prometheus.CounterVec
	flows          *prometheus.CounterVec
	multiInstances *prometheus.CounterVec
	instanceSize   prometheus.Histogram
	tasksCreated   *prometheus.CounterVec
	tasksCompleted *prometheus.CounterVec
	mutations      *prometheus.CounterVec
	leaseConflicts *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		activities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_activities_completed_total",
				Help: "Activities and gateways left by an execution",
			},
			[]string{"activity_type"},
		),
		flows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_flows_taken_total",
				Help: "Sequence flows taken, by source element",
			},
			[]string{"source_id"},
		),
		multiInstances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_multi_instance_completed_total",
				Help: "Multi-instance activities completed",
			},
			[]string{"activity_id", "reason"},
		),
		instanceSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowable_multi_instance_size",
				Help:    "Number of instances of a completed multi-instance activity",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		tasksCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_tasks_created_total",
				Help: "User tasks created",
			},
			[]string{"task_definition_key"},
		),
		tasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_tasks_completed_total",
				Help: "User tasks completed",
			},
			[]string{"task_definition_key"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_graph_mutations_total",
				Help: "Graph mutations committed",
			},
			[]string{"operation"},
		),
		leaseConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowable_lease_conflicts_total",
				Help: "Lease acquisitions refused because of a conflicting lease",
			},
			[]string{"lease"},
		),
	}
	reg.MustRegister(
		m.activities,
		m.flows,
		m.multiInstances,
		m.instanceSize,
		m.tasksCreated,
		m.tasksCompleted,
		m.mutations,
		m.leaseConflicts,
	)
	return m
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivityCompleted: func(_ context.Context, e *domain.ActivityEvent) {
			m.activities.WithLabelValues(string(e.ActivityType)).Inc()
		},
		OnFlowTaken: func(_ context.Context, e *domain.FlowEvent) {
			m.flows.WithLabelValues(e.SourceID).Inc()
		},
		OnMultiInstanceCompleted: func(_ context.Context, e *domain.MultiInstanceEvent) {
			reason := "all"
			if e.Type == domain.EventMultiInstanceCompletedWithCondition {
				reason = "condition"
			}
			m.multiInstances.WithLabelValues(e.ActivityID, reason).Inc()
			m.instanceSize.Observe(float64(e.NrOfInstances))
		},
		OnTaskCreated: func(_ context.Context, e *domain.TaskEvent) {
			m.tasksCreated.WithLabelValues(e.TaskDefinitionKey).Inc()
		},
		OnTaskCompleted: func(_ context.Context, e *domain.TaskEvent) {
			m.tasksCompleted.WithLabelValues(e.TaskDefinitionKey).Inc()
		},
		OnGraphMutated: func(_ context.Context, e *domain.MutationEvent) {
			m.mutations.WithLabelValues(e.Operation).Inc()
		},
		OnLeaseConflict: func(_ context.Context, e *domain.LeaseEvent) {
			m.leaseConflicts.WithLabelValues(leaseKind(e.Key)).Inc()
		},
	}
}

// leaseKind strips the process instance id from a lease key.
func leaseKind(key string) string {
	kind, _, ok := strings.Cut(key, "#")
	if !ok {
		return "unknown"
	}
	return strings.ToLower(kind)
}
