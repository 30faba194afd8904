package memory_test

import (
	"context"
	"testing"

	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGraphStore_Contract(t *testing.T) {
	store := memory.NewGraphStore()
	ports.RunGraphStoreContract(t, store)
}

func TestMemoryGraphStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewGraphStore()

	graph := &domain.Graph{ID: "p", Nodes: []*domain.FlowNode{{ID: "start", Type: domain.ElementStartEvent}}}
	require.NoError(t, store.Save(ctx, "pi-1", graph))

	graph.Nodes[0].Name = "changed after save"
	loaded, err := store.Load(ctx, "pi-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes[0].Name, "store must not share memory with the caller")

	loaded.Nodes[0].Name = "changed after load"
	again, err := store.Load(ctx, "pi-1")
	require.NoError(t, err)
	assert.Empty(t, again.Nodes[0].Name)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pi-1"}, ids)
}
