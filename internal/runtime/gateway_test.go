package runtime_test

import (
	"context"
	"testing"

	"github.com/fangliji/flowable-engine/internal/runtime"
	"github.com/fangliji/flowable-engine/internal/testutils"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routingGraph(defaultFlow string, flows ...func(*testutils.GraphBuilder) *testutils.GraphBuilder) *domain.Graph {
	b := testutils.NewGraph("routing").
		Start("start").
		Gateway("gw", defaultFlow).
		UserTask("high", "boss").
		UserTask("mid", "lead").
		UserTask("low", "clerk").
		End("end").
		Flow("f0", "start", "gw").
		Flow("f9", "high", "end").
		Flow("f8", "mid", "end").
		Flow("f7", "low", "end")
	for _, f := range flows {
		b = f(b)
	}
	return b.Build()
}

func TestGateway_Routing(t *testing.T) {
	conditional := func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.
			Flow("toHigh", "gw", "high", testutils.Condition("${amount > 1000}")).
			Flow("toMid", "gw", "mid", testutils.Condition("${amount > 100}")).
			Flow("toLow", "gw", "low")
	}

	tests := []struct {
		name   string
		graph  *domain.Graph
		vars   map[string]any
		expect string
	}{
		{
			name:   "first true condition wins",
			graph:  routingGraph("toLow", conditional),
			vars:   map[string]any{"amount": 5000},
			expect: "boss",
		},
		{
			name:   "falls through to later condition",
			graph:  routingGraph("toLow", conditional),
			vars:   map[string]any{"amount": 500},
			expect: "lead",
		},
		{
			name:   "default flow when nothing matches",
			graph:  routingGraph("toLow", conditional),
			vars:   map[string]any{"amount": 5},
			expect: "clerk",
		},
		{
			name: "lowest priority among true conditions",
			graph: routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
				return b.
					Flow("toHigh", "gw", "high", testutils.Condition("${true}"), testutils.Priority("3")).
					Flow("toMid", "gw", "mid", testutils.Condition("${true}"), testutils.Priority("1")).
					Flow("toLow", "gw", "low", testutils.Condition("${false}"), testutils.Priority("0"))
			}),
			expect: "lead",
		},
		{
			name: "priority ties keep the earliest flow",
			graph: routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
				return b.
					Flow("toHigh", "gw", "high", testutils.Condition("${true}"), testutils.Priority("2")).
					Flow("toMid", "gw", "mid", testutils.Condition("${true}"), testutils.Priority("2"))
			}),
			expect: "boss",
		},
		{
			name: "unprioritized true flow is taken at once",
			graph: routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
				return b.
					Flow("toHigh", "gw", "high", testutils.Condition("${true}"), testutils.Priority("1")).
					Flow("toMid", "gw", "mid", testutils.Condition("${true}")).
					Flow("toLow", "gw", "low", testutils.Condition("${true}"), testutils.Priority("0"))
			}),
			expect: "lead",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testutils.NewHarness(t, []*domain.Graph{tt.graph})
			pi := h.Start(t, "routing", tt.vars)
			assert.Equal(t, []string{tt.expect}, h.AllCandidates(t, pi.ID))
		})
	}
}

func TestGateway_SkipExpressionShortCircuits(t *testing.T) {
	g := routingGraph("toLow", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.
			Flow("toHigh", "gw", "high", testutils.Condition("${true}"), testutils.Priority("0")).
			Flow("toMid", "gw", "mid", testutils.Condition("${false}"), testutils.SkipExpression("${fast}")).
			Flow("toLow", "gw", "low")
	})

	h := testutils.NewHarness(t, []*domain.Graph{g}, runtime.WithSkipExpressions(true))
	pi := h.Start(t, "routing", map[string]any{"fast": true})
	assert.Equal(t, []string{"lead"}, h.AllCandidates(t, pi.ID), "a true skip expression wins over priorities and conditions")

	pi = h.Start(t, "routing", map[string]any{"fast": false})
	assert.Equal(t, []string{"boss"}, h.AllCandidates(t, pi.ID))
}

func TestGateway_FalseSkipExpressionPassesFlowOver(t *testing.T) {
	g := routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.
			Flow("toMid", "gw", "mid", testutils.Condition("${true}"), testutils.SkipExpression("${fast}")).
			Flow("toHigh", "gw", "high", testutils.Condition("${true}"))
	})

	t.Run("enabled", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g}, runtime.WithSkipExpressions(true))
		pi := h.Start(t, "routing", map[string]any{"fast": false})
		assert.Equal(t, []string{"boss"}, h.AllCandidates(t, pi.ID), "the condition of a flow under a false skip expression is ignored")
	})

	t.Run("disabled", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		pi := h.Start(t, "routing", map[string]any{"fast": false})
		assert.Equal(t, []string{"lead"}, h.AllCandidates(t, pi.ID))
	})

	t.Run("only flow", func(t *testing.T) {
		only := routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
			return b.Flow("toMid", "gw", "mid", testutils.Condition("${true}"), testutils.SkipExpression("${fast}"))
		})
		h := testutils.NewHarness(t, []*domain.Graph{only}, runtime.WithSkipExpressions(true))
		_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "routing", "", map[string]any{"fast": false})
		assert.ErrorIs(t, err, domain.ErrNoOutgoingFlow)
	})
}

func TestTakeOutgoingFlows_FalseSkipExpressionPassesFlowOver(t *testing.T) {
	g := testutils.NewGraph("fork").
		Start("start").
		UserTask("first", "alice").
		UserTask("fast", "lead").
		UserTask("slow", "boss").
		End("end").
		Flow("f0", "start", "first").
		Flow("toFast", "first", "fast", testutils.SkipExpression("${quick}")).
		Flow("toSlow", "first", "slow").
		Flow("f8", "fast", "end").
		Flow("f9", "slow", "end").
		Build()

	h := testutils.NewHarness(t, []*domain.Graph{g}, runtime.WithSkipExpressions(true))

	pi := h.Start(t, "fork", map[string]any{"quick": false})
	h.Complete(t, pi.ID, "alice", nil)
	assert.Equal(t, []string{"boss"}, h.AllCandidates(t, pi.ID))

	pi = h.Start(t, "fork", map[string]any{"quick": true})
	h.Complete(t, pi.ID, "alice", nil)
	assert.Equal(t, []string{"lead"}, h.AllCandidates(t, pi.ID))
}

func TestGateway_NoOutgoingFlow(t *testing.T) {
	g := routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.Flow("toHigh", "gw", "high", testutils.Condition("${amount > 1000}"))
	})
	h := testutils.NewHarness(t, []*domain.Graph{g})

	_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "routing", "", map[string]any{"amount": 1})
	require.ErrorIs(t, err, domain.ErrNoOutgoingFlow)

	var noFlow *domain.NoOutgoingFlowError
	require.ErrorAs(t, err, &noFlow)
	assert.Equal(t, "gw", noFlow.GatewayID)
}

func TestGateway_NonBooleanCondition(t *testing.T) {
	g := routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.Flow("toHigh", "gw", "high", testutils.Condition("${amount}"))
	})
	h := testutils.NewHarness(t, []*domain.Graph{g})

	_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "routing", "", map[string]any{"amount": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidExpression)
}

func TestGateway_ActivityEventBeforeFlow(t *testing.T) {
	var order []domain.EventType
	hooks := domain.LifecycleHooks{
		OnActivityCompleted: func(_ context.Context, e *domain.ActivityEvent) {
			if e.ActivityID == "gw" {
				order = append(order, e.Type)
			}
		},
		OnFlowTaken: func(_ context.Context, e *domain.FlowEvent) {
			if e.SourceID == "gw" {
				order = append(order, e.Type)
			}
		},
	}
	g := routingGraph("", func(b *testutils.GraphBuilder) *testutils.GraphBuilder {
		return b.Flow("toLow", "gw", "low")
	})
	h := testutils.NewHarness(t, []*domain.Graph{g}, runtime.WithLifecycleHooks(hooks))
	h.Start(t, "routing", nil)

	assert.Equal(t, []domain.EventType{domain.EventActivityCompleted, domain.EventFlowTaken}, order)
}
