package runtime_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fangliji/flowable-engine/internal/testutils"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiApproval(sequential bool, condition string, candidates ...string) *domain.Graph {
	return testutils.NewGraph("countersign").
		Start("start").
		UserTask("approve", candidates...).
		UserTask("archive", "clerk").
		End("end").
		Flow("f1", "start", "approve").
		Flow("f2", "approve", "archive").
		Flow("f3", "archive", "end").
		Loop("approve", domain.LoopCharacteristics{Sequential: sequential, CompletionCondition: condition}).
		Build()
}

func assertCounters(t *testing.T, h *testutils.Harness, pi string, total, active, completed int) {
	t.Helper()
	gotTotal, gotActive, gotCompleted := h.Counters(t, pi)
	assert.Equal(t, total, gotTotal, "nrOfInstances")
	assert.Equal(t, active, gotActive, "nrOfActiveInstances")
	assert.Equal(t, completed, gotCompleted, "nrOfCompletedInstances")
	assert.LessOrEqual(t, gotActive+gotCompleted, gotTotal)
}

func TestMultiInstance_ParallelCandidates(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice, bob,carol")})
	pi := h.Start(t, "countersign", nil)

	assert.Equal(t, []string{"alice", "bob", "carol"}, h.AllCandidates(t, pi.ID))
	assertCounters(t, h, pi.ID, 3, 3, 0)

	root := h.MultiInstanceRoot(t, pi.ID)
	assert.False(t, root.IsActive)
	assert.Equal(t, "alice,bob,carol", root.Variables[domain.VarCachedCandidates])
	assert.Equal(t, 3, root.Variables[domain.VarNrOfCandidateUsers])

	h.Complete(t, pi.ID, "bob", nil)
	assertCounters(t, h, pi.ID, 3, 2, 1)
	h.Complete(t, pi.ID, "alice", nil)
	assertCounters(t, h, pi.ID, 3, 1, 2)
	h.Complete(t, pi.ID, "carol", nil)

	assert.Nil(t, h.MultiInstanceRoot(t, pi.ID))
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))

	events := h.Events.MultiInstance()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventMultiInstanceCompleted, events[0].Type)
	assert.Equal(t, 3, events[0].NrOfCompletedInstances)
}

func TestMultiInstance_ParallelCompletionCondition(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{
		multiApproval(false, "${nrOfCompletedInstances >= 2}", "alice,bob,carol"),
	})
	pi := h.Start(t, "countersign", nil)

	h.Complete(t, pi.ID, "alice", nil)
	assert.Len(t, h.OpenTasks(t, pi.ID), 2)
	h.Complete(t, pi.ID, "carol", nil)

	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID), "bob's task is withdrawn")
	events := h.Events.MultiInstance()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventMultiInstanceCompletedWithCondition, events[0].Type)
}

func TestMultiInstance_CompletionConditionMustBeBoolean(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "${nrOfCompletedInstances}", "alice,bob")})
	pi := h.Start(t, "countersign", nil)

	task := h.TaskFor(t, pi.ID, "alice")
	err := h.Engine.CompleteTask(context.Background(), task.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidExpression)
}

func TestMultiInstance_SequentialCandidates(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(true, "", "alice,bob,carol")})
	pi := h.Start(t, "countersign", nil)

	for i, user := range []string{"alice", "bob", "carol"} {
		assert.Equal(t, []string{user}, h.AllCandidates(t, pi.ID))
		assertCounters(t, h, pi.ID, 3, 1, i)
		h.Complete(t, pi.ID, user, nil)
	}
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_SingleCandidateBypassesLoop(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice")})
	pi := h.Start(t, "countersign", nil)

	assert.Nil(t, h.MultiInstanceRoot(t, pi.ID))
	tasks := h.OpenTasks(t, pi.ID)
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"alice"}, h.Candidates(t, tasks[0].ID))

	exec, err := h.Engine.Execution(context.Background(), tasks[0].ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, 1, exec.Variables[domain.VarNrOfCandidateUsers])

	h.Complete(t, pi.ID, "alice", nil)
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_LoopCardinality(t *testing.T) {
	g := multiApproval(false, "", "alice")
	g.Node("approve").Loop.LoopCardinality = "${copies}"

	t.Run("numeric", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		pi := h.Start(t, "countersign", map[string]any{"copies": "2"})
		assert.Len(t, h.OpenTasks(t, pi.ID), 2)
		assertCounters(t, h, pi.ID, 2, 2, 0)
	})

	t.Run("zero skips the activity", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		pi := h.Start(t, "countersign", map[string]any{"copies": 0})
		assert.Nil(t, h.MultiInstanceRoot(t, pi.ID))
		assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
	})

	t.Run("not a number", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "countersign", "", map[string]any{"copies": "many"})
		assert.ErrorIs(t, err, domain.ErrIllegalArgument)
	})

	for _, copies := range []any{-1, "-3"} {
		t.Run(fmt.Sprintf("negative %v", copies), func(t *testing.T) {
			h := testutils.NewHarness(t, []*domain.Graph{g})
			_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "countersign", "", map[string]any{"copies": copies})
			assert.ErrorIs(t, err, domain.ErrIllegalArgument)
			assert.Zero(t, h.Events.Count(domain.EventTaskCreated), "no task is created for a negative cardinality")
		})
	}
}

func TestMultiInstance_Collection(t *testing.T) {
	g := testutils.NewGraph("review").
		Start("start").
		Node(&domain.FlowNode{
			ID:       "review",
			Type:     domain.ElementUserTask,
			UserTask: &domain.UserTask{Assignee: "${reviewer}"},
		}).
		End("end").
		Flow("f1", "start", "review").
		Flow("f2", "review", "end").
		Loop("review", domain.LoopCharacteristics{Collection: "reviewers", ElementVariable: "reviewer"}).
		Build()

	t.Run("variable name", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		pi := h.Start(t, "review", map[string]any{"reviewers": []string{"x", "y"}})

		tasks := h.OpenTasks(t, pi.ID)
		require.Len(t, tasks, 2)
		assert.Equal(t, "x", tasks[0].Assignee)
		assert.Equal(t, "y", tasks[1].Assignee)

		for _, task := range tasks {
			require.NoError(t, h.Engine.CompleteTask(context.Background(), task.ID, nil))
		}
		assert.True(t, h.Ended(t, pi.ID))
	})

	t.Run("missing variable", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "review", "", nil)
		require.ErrorIs(t, err, domain.ErrIllegalArgument)
		assert.Contains(t, err.Error(), "Variable 'reviewers' was not found")
	})

	t.Run("not a collection", func(t *testing.T) {
		h := testutils.NewHarness(t, []*domain.Graph{g})
		_, err := h.Engine.StartProcessInstanceByKey(context.Background(), "review", "", map[string]any{"reviewers": 7})
		require.ErrorIs(t, err, domain.ErrIllegalArgument)
		assert.Contains(t, err.Error(), "is not a Collection")
	})
}

func TestMultiInstance_ParallelAddSignature(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice,bob")})
	ctx := context.Background()
	pi := h.Start(t, "countersign", nil)
	root := h.MultiInstanceRoot(t, pi.ID)

	added, err := h.Engine.AddSignature(ctx, root.ID, "bob,dave")
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, added)
	assert.ElementsMatch(t, []string{"alice", "bob", "dave"}, h.AllCandidates(t, pi.ID))
	assertCounters(t, h, pi.ID, 3, 3, 0)

	_, err = h.Engine.AddSignature(ctx, root.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = h.Engine.AddSignature(ctx, root.ID, "${nobody}")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	for _, user := range []string{"alice", "bob", "dave"} {
		h.Complete(t, pi.ID, user, nil)
	}
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_ParallelRemoveSignature(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice,bob,carol")})
	ctx := context.Background()
	pi := h.Start(t, "countersign", nil)
	root := h.MultiInstanceRoot(t, pi.ID)

	_, err := h.Engine.RemoveSignature(ctx, root.ID, "mallory")
	require.ErrorIs(t, err, domain.ErrIllegalArgument)
	assert.Contains(t, err.Error(), "alice,bob,carol")

	_, err = h.Engine.RemoveSignature(ctx, root.ID, "alice,bob,carol")
	require.ErrorIs(t, err, domain.ErrIllegalArgument)
	assert.Contains(t, err.Error(), "at least one approver must remain")

	removed, err := h.Engine.RemoveSignature(ctx, root.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, removed)
	assert.Equal(t, []string{"alice", "carol"}, h.AllCandidates(t, pi.ID))
	assertCounters(t, h, pi.ID, 2, 2, 0)

	h.Complete(t, pi.ID, "alice", nil)
	h.Complete(t, pi.ID, "carol", nil)
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_RemoveLastPendingCompletes(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice,bob")})
	ctx := context.Background()
	pi := h.Start(t, "countersign", nil)

	h.Complete(t, pi.ID, "alice", nil)
	root := h.MultiInstanceRoot(t, pi.ID)
	_, err := h.Engine.RemoveSignature(ctx, root.ID, "bob")
	require.NoError(t, err)

	assert.Nil(t, h.MultiInstanceRoot(t, pi.ID))
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_SequentialSignatures(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(true, "", "alice,bob,carol")})
	ctx := context.Background()
	pi := h.Start(t, "countersign", nil)
	root := h.MultiInstanceRoot(t, pi.ID)

	_, err := h.Engine.RemoveSignature(ctx, root.ID, "alice")
	require.ErrorIs(t, err, domain.ErrIllegalArgument, "alice already started")

	_, err = h.Engine.RemoveSignature(ctx, root.ID, "bob")
	require.NoError(t, err)
	assertCounters(t, h, pi.ID, 2, 1, 0)

	_, err = h.Engine.AddSignature(ctx, root.ID, "dave")
	require.NoError(t, err)
	assertCounters(t, h, pi.ID, 3, 1, 0)

	for _, user := range []string{"alice", "carol", "dave"} {
		assert.Equal(t, []string{user}, h.AllCandidates(t, pi.ID))
		h.Complete(t, pi.ID, user, nil)
	}
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}

func TestMultiInstance_SignatureOnPlainActivity(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{testutils.ApprovalGraph("leave", "alice")})
	pi := h.Start(t, "leave", nil)
	task := h.TaskFor(t, pi.ID, "alice")

	_, err := h.Engine.AddSignature(context.Background(), task.ExecutionID, "bob")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)
}

func TestMultiInstance_JumpOutOfLoop(t *testing.T) {
	h := testutils.NewHarness(t, []*domain.Graph{multiApproval(false, "", "alice,bob")})
	pi := h.Start(t, "countersign", nil)
	task := h.TaskFor(t, pi.ID, "alice")

	require.NoError(t, h.Engine.JumpTo(context.Background(), task.ExecutionID, "archive"))
	assert.Nil(t, h.MultiInstanceRoot(t, pi.ID))
	assert.Equal(t, []string{"clerk"}, h.AllCandidates(t, pi.ID))
}
