package observability_test

import (
	"context"
	"testing"

	"github.com/fangliji/flowable-engine/internal/mutation"
	"github.com/fangliji/flowable-engine/internal/runtime"
	"github.com/fangliji/flowable-engine/internal/testutils"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the counter or histogram sample count of the series of name
// matching labels.
func value(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue series
				}
			}
			if h := metric.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_FedByHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	g := testutils.NewGraph("countersign").
		Start("start").
		UserTask("approve", "alice,bob").
		End("end").
		Flow("f1", "start", "approve").
		Flow("f2", "approve", "end").
		Loop("approve", domain.LoopCharacteristics{}).
		Build()
	h := testutils.NewHarness(t, []*domain.Graph{g}, runtime.WithLifecycleHooks(m.Hooks()))
	mut := mutation.NewMutator(h.Engine, h.Resolver, h.Defs, h.Guard, mutation.WithHooks(m.Hooks()))

	pi := h.Start(t, "countersign", nil)
	_, err := mut.InsertTask(context.Background(), pi.ID, "approve", mutation.After, "Archive", []string{"clerk"})
	require.NoError(t, err)

	h.Complete(t, pi.ID, "alice", nil)
	h.Complete(t, pi.ID, "bob", nil)

	assert.Equal(t, 2.0, value(t, reg, "flowable_tasks_created_total", map[string]string{"task_definition_key": "approve"}))
	assert.Equal(t, 2.0, value(t, reg, "flowable_tasks_completed_total", map[string]string{"task_definition_key": "approve"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_tasks_created_total", map[string]string{"task_definition_key": "dynamicTask1"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_multi_instance_completed_total", map[string]string{"activity_id": "approve", "reason": "all"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_multi_instance_size", nil))
	assert.Equal(t, 1.0, value(t, reg, "flowable_graph_mutations_total", map[string]string{"operation": "insert_task"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_flows_taken_total", map[string]string{"source_id": "start"}))
}

func TestMetrics_LeaseConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := observability.NewMetrics(reg).Hooks()
	ctx := context.Background()

	hooks.OnLeaseConflict(ctx, &domain.LeaseEvent{Key: "WRITE#pi-1"})
	hooks.OnLeaseConflict(ctx, &domain.LeaseEvent{Key: "READ#pi-1"})
	hooks.OnLeaseConflict(ctx, &domain.LeaseEvent{Key: "WRITE#pi-2"})
	hooks.OnLeaseConflict(ctx, &domain.LeaseEvent{Key: "orphan"})

	assert.Equal(t, 2.0, value(t, reg, "flowable_lease_conflicts_total", map[string]string{"lease": "write"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_lease_conflicts_total", map[string]string{"lease": "read"}))
	assert.Equal(t, 1.0, value(t, reg, "flowable_lease_conflicts_total", map[string]string{"lease": "unknown"}))
}
