package ports

import (
	"context"
	"testing"
	"time"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore
// implementation adheres to the defined interface contract.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	ctx := context.Background()
	instanceID := "contract-instance-" + time.Now().Format("20060102150405")

	graph := &domain.Graph{
		ID: "approval",
		Nodes: []*domain.FlowNode{
			{ID: "start", Type: domain.ElementStartEvent, Outgoing: []string{"f1"}},
			{ID: "review", Type: domain.ElementUserTask, Incoming: []string{"f1"}, Outgoing: []string{"f2"},
				EditState: domain.EditStateEdited,
				UserTask:  &domain.UserTask{CandidateUsers: []string{"alice, bob"}}},
			{ID: "end", Type: domain.ElementEndEvent, Incoming: []string{"f2"}},
		},
		Flows: []*domain.SequenceFlow{
			{ID: "f1", SourceRef: "start", TargetRef: "review"},
			{ID: "f2", SourceRef: "review", TargetRef: "end", Priority: "1"},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, instanceID, graph)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, graph.ID, loaded.ID)
		require.Len(t, loaded.Nodes, 3)
		review := loaded.Node("review")
		require.NotNil(t, review)
		assert.Equal(t, domain.EditStateEdited, review.EditState)
		assert.Equal(t, []string{"alice, bob"}, review.UserTask.CandidateUsers)
		assert.Equal(t, "1", loaded.Flow("f2").Priority)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		updated := graph.Clone()
		updated.Node("review").Name = "Second review"
		require.NoError(t, store.Save(ctx, instanceID, updated))

		loaded, err := store.Load(ctx, instanceID)
		require.NoError(t, err)
		assert.Equal(t, "Second review", loaded.Node("review").Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+instanceID)
		assert.ErrorIs(t, err, domain.ErrGraphNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, instanceID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, instanceID)
		assert.ErrorIs(t, err, domain.ErrGraphNotFound, "Load after Delete should return ErrGraphNotFound")
	})
}

// RunLeaseStoreContract verifies a LeaseStore implementation. advance must
// move the store's notion of time forward so that TTLs can elapse.
func RunLeaseStoreContract(t *testing.T, store LeaseStore, advance func(time.Duration)) {
	ctx := context.Background()
	key := "WRITE#contract-" + time.Now().Format("20060102150405")

	t.Run("Acquire Once", func(t *testing.T) {
		ok, err := store.TryAcquire(ctx, key, 15*time.Second, "first")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.TryAcquire(ctx, key, 15*time.Second, "second")
		require.NoError(t, err)
		assert.False(t, ok, "second acquire must fail while the lease is held")

		token, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "first", token)
	})

	t.Run("Release Checks Token", func(t *testing.T) {
		require.NoError(t, store.Release(ctx, key, "second"))
		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found, "release with a foreign token must not delete the lease")

		require.NoError(t, store.Release(ctx, key, "first"))
		_, found, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Expiry And Refresh", func(t *testing.T) {
		ok, err := store.TryAcquire(ctx, key, 15*time.Second, "ttl")
		require.NoError(t, err)
		require.True(t, ok)

		advance(10 * time.Second)
		require.NoError(t, store.Refresh(ctx, key, 15*time.Second))
		advance(10 * time.Second)

		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found, "refresh must extend the lease")

		advance(16 * time.Second)
		_, found, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "lease must expire without refresh")

		ok, err = store.TryAcquire(ctx, key, 15*time.Second, "after-expiry")
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, store.Release(ctx, key, "after-expiry"))
	})
}
