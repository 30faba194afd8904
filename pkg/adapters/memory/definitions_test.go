package memory_test

import (
	"context"
	"testing"

	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvalGraph() *domain.Graph {
	return &domain.Graph{
		ID: "approval",
		Nodes: []*domain.FlowNode{
			{ID: "start", Type: domain.ElementStartEvent, Outgoing: []string{"f1"}},
			{ID: "end", Type: domain.ElementEndEvent, Incoming: []string{"f1"}},
		},
		Flows: []*domain.SequenceFlow{{ID: "f1", SourceRef: "start", TargetRef: "end"}},
	}
}

func TestDefinitionRepository_Versioning(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDefinitionRepository()

	v1, err := repo.Deploy(ctx, domain.ProcessDefinition{Key: "approval"}, approvalGraph())
	require.NoError(t, err)
	v2, err := repo.Deploy(ctx, domain.ProcessDefinition{Key: "approval"}, approvalGraph())
	require.NoError(t, err)
	other, err := repo.Deploy(ctx, domain.ProcessDefinition{Key: "approval", TenantID: "acme"}, approvalGraph())
	require.NoError(t, err)

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, 1, other.Version, "versions count per tenant")
	assert.NotEqual(t, v1.ID, v2.ID)

	latest, err := repo.FindLatestByKey(ctx, "approval", "")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)

	_, err = repo.FindLatestByKey(ctx, "missing", "")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	defs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, defs, 3)
}

func TestDefinitionRepository_GraphIsCopied(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewDefinitionRepositoryFromGraphs(ctx, approvalGraph())
	require.NoError(t, err)

	def, err := repo.FindLatestByKey(ctx, "approval", "")
	require.NoError(t, err)

	g, err := repo.Graph(ctx, def.ID)
	require.NoError(t, err)
	g.Node("start").Name = "mutated"

	again, err := repo.Graph(ctx, def.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Node("start").Name)

	_, err = repo.Graph(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestDefinitionRepository_RejectsMissingKey(t *testing.T) {
	_, err := memory.NewDefinitionRepository().Deploy(context.Background(), domain.ProcessDefinition{}, approvalGraph())
	assert.ErrorIs(t, err, domain.ErrIllegalArgument)
}
