package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fangliji/flowable-engine/pkg/adapters/file"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simple = `
key: simple
nodes:
  - {id: start, type: startEvent}
  - {id: review, type: userTask, candidate_users: [alice]}
  - {id: end, type: endEvent}
flows:
  - {id: f1, from: start, to: review}
  - {id: f2, from: review, to: end}
`

func TestFileGraphStore_Contract(t *testing.T) {
	ports.RunGraphStoreContract(t, file.NewGraphStore(t.TempDir()))
}

func TestFileGraphStore_List(t *testing.T) {
	ctx := context.Background()
	store := file.NewGraphStore(filepath.Join(t.TempDir(), "graphs"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	g := &domain.Graph{ID: "p"}
	require.NoError(t, store.Save(ctx, "pi-1", g))
	require.NoError(t, store.Save(ctx, "pi-2", g))
	require.NoError(t, store.Save(ctx, "pi-1", g))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pi-1", "pi-2"}, ids)
}

func TestFileGraphStore_RejectsPaths(t *testing.T) {
	store := file.NewGraphStore(t.TempDir())
	_, err := store.Load(context.Background(), "../escape")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), "", &domain.Graph{}))
}

func TestDeployDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "simple.yaml"), []byte(simple), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	repo := memory.NewDefinitionRepository()
	ctx := context.Background()

	deployed, err := file.DeployDir(ctx, repo, dir)
	require.NoError(t, err)
	require.Len(t, deployed, 1)
	assert.Equal(t, "simple", deployed[0].Key)
	assert.Equal(t, 1, deployed[0].Version)

	deployed, err = file.DeployDir(ctx, repo, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, deployed[0].Version, "redeploying creates a new version")

	g, err := repo.Graph(ctx, deployed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, g.Node("review").Incoming)
}

func TestLoadDefinition_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("key: broken\nnodes:\n  - {id: end, type: endEvent}\n"), 0o644))

	_, err := file.LoadDefinition(path)
	assert.ErrorContains(t, err, "start event")

	_, err = file.LoadDefinitions(dir)
	assert.Error(t, err)
}
