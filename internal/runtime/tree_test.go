package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/adapters/expression"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func newTestTree() *Tree {
	return NewTree(memory.NewExecutionStore(), memory.NewTaskService(), sequentialIDs(), time.Now)
}

func newTestContext(t *testing.T, g *domain.Graph) (*EngineContext, *domain.ProcessDefinition) {
	t.Helper()
	defs, err := memory.NewDefinitionRepositoryFromGraphs(context.Background(), g)
	require.NoError(t, err)
	def, err := defs.FindLatestByKey(context.Background(), g.ID, "")
	require.NoError(t, err)

	tasks := memory.NewTaskService()
	return &EngineContext{
		Tree:      NewTree(memory.NewExecutionStore(), tasks, sequentialIDs(), time.Now),
		Tasks:     tasks,
		History:   memory.NewHistoryService(),
		Graphs:    graph.NewResolver(memory.NewGraphStore(), defs),
		Evaluator: expression.New(),
		Agenda:    NewAgenda(),
		Logger:    logging.NewNop(),
		newID:     sequentialIDs(),
	}, def
}

func TestTree_GetLocalVariableStopsAfterTwoLevels(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree()

	pi, err := tree.NewProcessInstance(ctx, &domain.ProcessDefinition{ID: "d"})
	require.NoError(t, err)
	require.NoError(t, tree.SetLocalVariable(ctx, pi, "deep", "pi"))
	a, err := tree.CreateChild(ctx, pi, "x")
	require.NoError(t, err)
	b, err := tree.CreateChild(ctx, a, "x")
	require.NoError(t, err)
	c, err := tree.CreateChild(ctx, b, "x")
	require.NoError(t, err)

	_, ok, err := tree.GetLocalVariable(ctx, c, "deep")
	require.NoError(t, err)
	assert.False(t, ok, "three levels up is out of reach")

	v, ok, err := tree.GetVariable(ctx, c, "deep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pi", v)

	v, ok, err = tree.GetLocalVariable(ctx, b, "deep")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pi", v)
}

func TestTree_GetLocalVariableStopsAtMultiInstanceRoot(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree()

	pi, err := tree.NewProcessInstance(ctx, &domain.ProcessDefinition{ID: "d"})
	require.NoError(t, err)
	require.NoError(t, tree.SetLocalVariable(ctx, pi, domain.VarLoopCounter, 9))
	root, err := tree.CreateChild(ctx, pi, "x")
	require.NoError(t, err)
	root.IsMultiInstanceRoot = true
	require.NoError(t, tree.Save(ctx, root))

	_, ok, err := tree.GetLocalVariable(ctx, root, domain.VarLoopCounter)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTree_SetVariableTargetsDefiningScope(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree()

	pi, err := tree.NewProcessInstance(ctx, &domain.ProcessDefinition{ID: "d"})
	require.NoError(t, err)
	mid, err := tree.CreateChild(ctx, pi, "x")
	require.NoError(t, err)
	require.NoError(t, tree.SetLocalVariable(ctx, mid, "owned", 1))
	leaf, err := tree.CreateChild(ctx, mid, "x")
	require.NoError(t, err)

	require.NoError(t, tree.SetVariable(ctx, leaf, "owned", 2))
	require.NoError(t, tree.SetVariable(ctx, leaf, "fresh", true))

	mid, err = tree.Get(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, mid.Variables["owned"])

	pi, err = tree.Get(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, true, pi.Variables["fresh"])
}

func TestTree_DeleteSubtreeKeepsExcluded(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree()

	pi, err := tree.NewProcessInstance(ctx, &domain.ProcessDefinition{ID: "d"})
	require.NoError(t, err)
	root, err := tree.CreateChild(ctx, pi, "x")
	require.NoError(t, err)
	keep, err := tree.CreateChild(ctx, root, "x")
	require.NoError(t, err)
	drop, err := tree.CreateChild(ctx, root, "x")
	require.NoError(t, err)

	require.NoError(t, tree.DeleteSubtree(ctx, root, []string{keep.ID}, domain.DeleteReasonMultiInstanceEnd))

	_, err = tree.Get(ctx, keep.ID)
	assert.NoError(t, err)
	_, err = tree.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, domain.ErrStaleNode)
	_, err = tree.Get(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrStaleNode)
}

func TestTree_LockFirstScopeBumpsRevision(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree()

	pi, err := tree.NewProcessInstance(ctx, &domain.ProcessDefinition{ID: "d"})
	require.NoError(t, err)
	child, err := tree.CreateChild(ctx, pi, "x")
	require.NoError(t, err)

	require.NoError(t, tree.LockFirstScope(ctx, child))
	pi, err = tree.Get(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pi.Revision)
}

func TestMultiInstance_CleanupRootIsIdempotent(t *testing.T) {
	g := &domain.Graph{ID: "p", Nodes: []*domain.FlowNode{
		{ID: "start", Type: domain.ElementStartEvent, Outgoing: []string{"f1"}},
		{ID: "a", Type: domain.ElementUserTask, Incoming: []string{"f1"}, Outgoing: []string{"f2"}, Loop: &domain.LoopCharacteristics{}},
		{ID: "end", Type: domain.ElementEndEvent, Incoming: []string{"f2"}},
	}, Flows: []*domain.SequenceFlow{
		{ID: "f1", SourceRef: "start", TargetRef: "a"},
		{ID: "f2", SourceRef: "a", TargetRef: "end"},
	}}
	ec, def := newTestContext(t, g)
	ctx := context.Background()

	pi, err := ec.Tree.NewProcessInstance(ctx, def)
	require.NoError(t, err)
	root, err := ec.Tree.CreateChild(ctx, pi, "a")
	require.NoError(t, err)
	root.IsMultiInstanceRoot = true
	require.NoError(t, ec.Tree.Save(ctx, root))
	child, err := ec.Tree.CreateChild(ctx, root, "a")
	require.NoError(t, err)

	mi := NewParallel(g.Node("a"), innerFor(g.Node("a")))
	require.NoError(t, mi.CleanupRoot(ctx, ec, child))
	require.NoError(t, mi.CleanupRoot(ctx, ec, child))
	require.NoError(t, mi.CleanupRoot(ctx, ec, root))

	children, err := ec.Tree.Children(ctx, pi.ID)
	require.NoError(t, err)
	require.Len(t, children, 1, "a single fresh execution replaces the root")
	assert.False(t, children[0].IsMultiInstanceRoot)
	assert.Equal(t, 1, ec.Agenda.Len())
}

func TestMultiInstance_ResolveLoopCardinality(t *testing.T) {
	node := &domain.FlowNode{ID: "a", Type: domain.ElementUserTask, Loop: &domain.LoopCharacteristics{}}
	g := &domain.Graph{ID: "p", Nodes: []*domain.FlowNode{{ID: "start", Type: domain.ElementStartEvent}, node}}
	ec, def := newTestContext(t, g)
	ctx := context.Background()
	pi, err := ec.Tree.NewProcessInstance(ctx, def)
	require.NoError(t, err)

	cases := []struct {
		expr    string
		want    int
		wantErr bool
	}{
		{expr: "3", want: 3},
		{expr: "${2 + 2}", want: 4},
		{expr: "${'5'}", want: 5},
		{expr: "${1.5}", wantErr: true},
		{expr: "many", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			node.Loop.LoopCardinality = tc.expr
			n, err := NewParallel(node, innerFor(node)).ResolveLoopCardinality(ctx, ec, pi)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrIllegalArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestAgenda_FIFO(t *testing.T) {
	a := NewAgenda()
	a.PlanContinueProcess("a")
	a.PlanTakeOutgoingFlows("b")
	a.PlanContinueMultiInstance("c", "root", 2)
	require.Equal(t, 3, a.Len())

	op, ok := a.next()
	require.True(t, ok)
	assert.Equal(t, opContinueProcess, op.kind)
	op, _ = a.next()
	assert.Equal(t, "b", op.executionID)
	op, _ = a.next()
	assert.Equal(t, opContinueMultiInstance, op.kind)
	assert.Equal(t, 2, op.loopCounter)

	_, ok = a.next()
	assert.False(t, ok)
}
