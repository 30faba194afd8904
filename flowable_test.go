package flowable_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fangliji/flowable-engine"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/adapters/redis"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/lock"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countersign = `
key: countersign
name: Countersign
nodes:
  - {id: start, type: startEvent}
  - id: approve
    type: userTask
    candidate_users: "u1,u2"
    loop:
      sequential: false
  - {id: archive, type: userTask, candidate_users: clerk}
  - {id: end, type: endEvent}
flows:
  - {id: f1, from: start, to: approve}
  - {id: f2, from: approve, to: archive}
  - {id: f3, from: archive, to: end}
`

func candidates(t *testing.T, eng *flowable.Engine, taskID string) []string {
	t.Helper()
	links, err := eng.IdentityLinks(context.Background(), taskID)
	require.NoError(t, err)
	var users []string
	for _, l := range links {
		if l.UserID != "" {
			users = append(users, l.UserID)
		}
	}
	return users
}

func completeOpen(t *testing.T, eng *flowable.Engine, pi string) {
	t.Helper()
	tasks, err := eng.Tasks(context.Background(), pi)
	require.NoError(t, err)
	require.NotEmpty(t, tasks)
	for _, task := range tasks {
		require.NoError(t, eng.CompleteTask(context.Background(), task.ID, nil))
	}
}

func TestEngine_LiveEditLifecycle(t *testing.T) {
	var created atomic.Int32
	eng, err := flowable.New(flowable.WithLifecycleHooks(domain.LifecycleHooks{
		OnTaskCreated: func(context.Context, *domain.TaskEvent) { created.Add(1) },
	}))
	require.NoError(t, err)
	ctx := context.Background()

	def, err := eng.Deploy(ctx, []byte(countersign))
	require.NoError(t, err)
	assert.Equal(t, 1, def.Version)

	pi, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)
	tasks, err := eng.Tasks(ctx, pi.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	id, err := eng.InsertTask(ctx, pi.ID, "archive", "before", "Audit", []string{"auditor"})
	require.NoError(t, err)

	g, err := eng.Graph(ctx, pi.ID)
	require.NoError(t, err)
	require.NotNil(t, g.Node(id), "the instance graph carries the inserted task")

	lease, err := eng.Lease(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, flowable.LeaseStatus{}, lease, "no lease outlives a command")

	completeOpen(t, eng, pi.ID)
	tasks, err = eng.Tasks(ctx, pi.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].TaskDefinitionKey)
	assert.Equal(t, []string{"auditor"}, candidates(t, eng, tasks[0].ID))

	completeOpen(t, eng, pi.ID)
	completeOpen(t, eng, pi.ID)

	h, err := eng.History(ctx, pi.ID)
	require.NoError(t, err)
	assert.NotNil(t, h.EndedAt)
	assert.EqualValues(t, 4, created.Load())
}

func TestEngine_DefinitionIsNotTouchedByLiveEdits(t *testing.T) {
	eng, err := flowable.New()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = eng.Deploy(ctx, []byte(countersign))
	require.NoError(t, err)

	first, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)
	require.NoError(t, eng.UpdateTask(ctx, first.ID, "archive", []string{"lead"}, "replace"))

	second, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)
	completeOpen(t, eng, first.ID)
	completeOpen(t, eng, second.ID)

	firstTasks, err := eng.Tasks(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, firstTasks, 1)
	assert.Equal(t, []string{"lead"}, candidates(t, eng, firstTasks[0].ID))

	secondTasks, err := eng.Tasks(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, secondTasks, 1)
	assert.Equal(t, []string{"clerk"}, candidates(t, eng, secondTasks[0].ID))
}

func TestEngine_Signatures(t *testing.T) {
	eng, err := flowable.New()
	require.NoError(t, err)
	ctx := context.Background()
	_, err = eng.Deploy(ctx, []byte(countersign))
	require.NoError(t, err)
	pi, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)

	tasks, err := eng.Tasks(ctx, pi.ID)
	require.NoError(t, err)
	added, err := eng.AddSignature(ctx, tasks[0].ExecutionID, "u2,u3")
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, added, "existing participants are not added twice")

	removed, err := eng.RemoveSignature(ctx, tasks[0].ExecutionID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, removed)

	tasks, err = eng.Tasks(ctx, pi.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestEngine_RejectsBadInput(t *testing.T) {
	eng, err := flowable.New()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.Deploy(ctx, []byte("name: nameless"))
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = eng.Deploy(ctx, []byte("key: broken\nnodes:\n  - {id: start, type: startEvent}\nflows:\n  - {id: f1, from: start, to: nowhere}\n"))
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = eng.Deploy(ctx, []byte(countersign))
	require.NoError(t, err)
	pi, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)

	_, err = eng.InsertTask(ctx, pi.ID, "archive", "sideways", "x", nil)
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)
	err = eng.UpdateTask(ctx, pi.ID, "archive", nil, "merge")
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)

	_, err = eng.StartProcessInstance(ctx, "missing", "", nil)
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	_, err = flowable.New(flowable.WithLockTTL(-time.Second))
	assert.Error(t, err)
}

func TestEngine_LeaseShowsHolder(t *testing.T) {
	leases := memory.NewLeaseStore()
	eng, err := flowable.New(flowable.WithLeaseStore(leases), flowable.WithLeaseRequester("node-a"))
	require.NoError(t, err)
	ctx := context.Background()

	since := time.UnixMilli(1_700_000_000_000)
	ok, err := leases.TryAcquire(ctx, lock.WriteKey("pi-1"), time.Minute, lock.Token("node-b", since))
	require.NoError(t, err)
	require.True(t, ok)

	st, err := eng.Lease(ctx, "pi-1")
	require.NoError(t, err)
	assert.True(t, st.WriteHeld)
	assert.Equal(t, "node-b", st.WriteHolder)
	require.NotNil(t, st.WriteSince)
	assert.True(t, since.Equal(*st.WriteSince))
	assert.False(t, st.ReadHeld)
	assert.Nil(t, st.ReadSince)
}

func TestEngine_RedisStores(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	eng, err := flowable.New(
		flowable.WithGraphStore(redis.NewFromClient(client)),
		flowable.WithLeaseStore(redis.NewLeaseStore(client, "flowable:")),
		flowable.WithDistributedCommands(true),
		flowable.WithLockTTL(5*time.Second),
	)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, eng.LockTTL())
	ctx := context.Background()

	_, err = eng.Deploy(ctx, []byte(countersign))
	require.NoError(t, err)
	pi, err := eng.StartProcessInstance(ctx, "countersign", "", nil)
	require.NoError(t, err)

	require.NoError(t, eng.UpdateTask(ctx, pi.ID, "archive", []string{"lead"}, "append"))
	assert.True(t, mr.Exists("flowable:graph:"+pi.ID), "the override graph lives in redis")

	completeOpen(t, eng, pi.ID)
	tasks, err := eng.Tasks(ctx, pi.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.ElementsMatch(t, []string{"clerk", "lead"}, candidates(t, eng, tasks[0].ID))

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "WRITE#", "leases are released after the edit")
	}
}
