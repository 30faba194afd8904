package mutation_test

import (
	"context"
	"testing"

	"github.com/fangliji/flowable-engine/internal/mutation"
	"github.com/fangliji/flowable-engine/internal/testutils"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain() *domain.Graph {
	return testutils.NewGraph("chain").
		Start("start").
		UserTask("a", "alice").
		UserTask("b", "bob").
		End("end").
		Flow("f1", "start", "a").
		Flow("f2", "a", "b").
		Flow("f3", "b", "end").
		Build()
}

func setup(t *testing.T, graphs ...*domain.Graph) (*testutils.Harness, *mutation.Mutator) {
	t.Helper()
	if len(graphs) == 0 {
		graphs = []*domain.Graph{chain()}
	}
	h := testutils.NewHarness(t, graphs)
	m := mutation.NewMutator(h.Engine, h.Resolver, h.Defs, h.Guard, mutation.WithHooks(h.Events.Hooks()))
	return h, m
}

func TestMutator_InsertAfter(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	id, err := m.InsertTask(ctx, pi.ID, "a", mutation.After, "Review", []string{"carol"})
	require.NoError(t, err)
	assert.Equal(t, "dynamicTask1", id)
	assert.Equal(t, []string{"alice"}, h.AllCandidates(t, pi.ID), "the open task is untouched")

	h.Complete(t, pi.ID, "alice", nil)
	tasks := h.OpenTasks(t, pi.ID)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].TaskDefinitionKey)
	assert.Equal(t, "Review", tasks[0].Name)
	assert.Equal(t, 6, tasks[0].Priority)

	h.Complete(t, pi.ID, "carol", nil)
	assert.Equal(t, []string{"bob"}, h.AllCandidates(t, pi.ID))

	saved, err := h.Graphs.Load(ctx, pi.ID)
	require.NoError(t, err)
	node := saved.Node(id)
	require.NotNil(t, node)
	assert.Equal(t, domain.EditStateEdited, node.EditState)
	assert.Equal(t, []string{"f2"}, node.Incoming)
	assert.Equal(t, []string{"dynamicFlow1"}, saved.Node("b").Incoming)
	assert.Equal(t, 1, h.Events.Count(domain.EventGraphMutated))
}

func TestMutator_InsertBeforeLiveTaskMovesExecution(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	id, err := m.InsertTask(ctx, pi.ID, "a", mutation.Before, "Pre check", []string{"carol"})
	require.NoError(t, err)

	tasks := h.OpenTasks(t, pi.ID)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].TaskDefinitionKey)
	assert.Equal(t, []string{"carol"}, h.Candidates(t, tasks[0].ID))

	h.Complete(t, pi.ID, "carol", nil)
	assert.Equal(t, []string{"alice"}, h.AllCandidates(t, pi.ID))
}

func TestMutator_InsertIDsAreUnique(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	first, err := m.InsertTask(ctx, pi.ID, "b", mutation.Before, "one", []string{"x"})
	require.NoError(t, err)
	second, err := m.InsertTask(ctx, pi.ID, "b", mutation.Before, "two", []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, "dynamicTask1", first)
	assert.Equal(t, "dynamicTask2", second)

	h.Complete(t, pi.ID, "alice", nil)
	assert.Equal(t, []string{"x"}, h.AllCandidates(t, pi.ID))
	h.Complete(t, pi.ID, "x", nil)
	assert.Equal(t, []string{"y"}, h.AllCandidates(t, pi.ID))
	h.Complete(t, pi.ID, "y", nil)
	assert.Equal(t, []string{"bob"}, h.AllCandidates(t, pi.ID))
}

func TestMutator_InsertErrors(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	_, err := m.InsertTask(ctx, pi.ID, "missing", mutation.After, "x", nil)
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = m.InsertTask(ctx, pi.ID, "end", mutation.After, "x", nil)
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = h.Graphs.Load(ctx, pi.ID)
	assert.ErrorIs(t, err, domain.ErrGraphNotFound, "failed edits are not saved")
}

func TestMutator_FailsWhileGraphIsRead(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	err := h.Guard.WithReadLock(ctx, pi.ID, func(ctx context.Context) error {
		_, err := m.InsertTask(ctx, pi.ID, "a", mutation.After, "x", []string{"x"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrLockUnavailable)

	_, err = h.Graphs.Load(ctx, pi.ID)
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)

	_, err = m.InsertTask(ctx, pi.ID, "a", mutation.After, "x", []string{"x"})
	assert.NoError(t, err, "the read lease was released")
}

func TestMutator_DeleteTask(t *testing.T) {
	t.Run("pending node is skipped", func(t *testing.T) {
		h, m := setup(t)
		ctx := context.Background()
		pi := h.Start(t, "chain", nil)

		require.NoError(t, m.DeleteTask(ctx, pi.ID, "b", ""))
		h.Complete(t, pi.ID, "alice", nil)
		assert.True(t, h.Ended(t, pi.ID))

		saved, err := h.Graphs.Load(ctx, pi.ID)
		require.NoError(t, err)
		b := saved.Node("b")
		require.NotNil(t, b, "deletion is soft")
		assert.Equal(t, domain.EditStatePendingDelete, b.EditState)
		assert.Equal(t, "${true}", b.SkipExpression)
		assert.Equal(t, []string{"f2"}, b.Incoming)
	})

	t.Run("live task is advanced", func(t *testing.T) {
		h, m := setup(t)
		ctx := context.Background()
		pi := h.Start(t, "chain", nil)
		task := h.TaskFor(t, pi.ID, "alice")

		require.NoError(t, m.DeleteTask(ctx, pi.ID, "a", task.ID))
		assert.Equal(t, []string{"bob"}, h.AllCandidates(t, pi.ID))
	})

	t.Run("not a task", func(t *testing.T) {
		h, m := setup(t)
		pi := h.Start(t, "chain", nil)
		err := m.DeleteTask(context.Background(), pi.ID, "start", "")
		assert.ErrorIs(t, err, domain.ErrIllegalArgument)
	})

	t.Run("unknown live task", func(t *testing.T) {
		h, m := setup(t)
		pi := h.Start(t, "chain", nil)
		err := m.DeleteTask(context.Background(), pi.ID, "a", "nope")
		assert.ErrorIs(t, err, domain.ErrIllegalArgument)
	})
}

func TestMutator_UpdateTaskRefreshesLiveAssignment(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)

	require.NoError(t, m.UpdateTask(ctx, pi.ID, "a", []string{"dave", "alice"}, mutation.Append))
	assert.Equal(t, []string{"alice", "dave"}, h.AllCandidates(t, pi.ID))

	require.NoError(t, m.UpdateTask(ctx, pi.ID, "a", []string{"erin"}, mutation.Replace))
	assert.Equal(t, []string{"erin"}, h.AllCandidates(t, pi.ID))

	require.NoError(t, m.UpdateTask(ctx, pi.ID, "b", []string{"frank"}, mutation.Replace))
	h.Complete(t, pi.ID, "erin", nil)
	assert.Equal(t, []string{"frank"}, h.AllCandidates(t, pi.ID))
}

func TestMutator_UpgradeInstance(t *testing.T) {
	h, m := setup(t)
	ctx := context.Background()
	pi := h.Start(t, "chain", nil)
	require.NoError(t, m.UpdateTask(ctx, pi.ID, "a", []string{"zoe"}, mutation.Replace))

	id, err := m.UpgradeInstance(ctx, pi.ID, "")
	require.NoError(t, err)
	assert.Empty(t, id, "already on the latest definition")

	v2 := testutils.NewGraph("chain").
		Start("start").
		UserTask("a", "alice").
		UserTask("c", "carol").
		UserTask("b", "bob").
		End("end").
		Flow("f1", "start", "a").
		Flow("f2", "a", "c").
		Flow("f4", "c", "b").
		Flow("f3", "b", "end").
		Build()
	def, err := h.Defs.Deploy(ctx, domain.ProcessDefinition{Key: "chain"}, v2)
	require.NoError(t, err)

	id, err = m.UpgradeInstance(ctx, pi.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	root, err := h.Engine.Execution(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, root.ProcessDefinitionID)
	assert.Equal(t, 2, root.ProcessDefinitionVersion)

	hist, err := h.Engine.History(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, hist.ProcessDefinitionID)

	assert.Equal(t, []string{"zoe"}, h.AllCandidates(t, pi.ID), "edited node carried over and instance restarted")
	h.Complete(t, pi.ID, "zoe", nil)
	assert.Equal(t, []string{"carol"}, h.AllCandidates(t, pi.ID), "new wiring is kept")
}

func TestParsers(t *testing.T) {
	p, err := mutation.ParsePosition("before")
	require.NoError(t, err)
	assert.Equal(t, mutation.Before, p)
	_, err = mutation.ParsePosition("middle")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	mode, err := mutation.ParseUpdateMode("replace")
	require.NoError(t, err)
	assert.Equal(t, mutation.Replace, mode)
	_, err = mutation.ParseUpdateMode("merge")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)
}
