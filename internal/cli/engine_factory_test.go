package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fangliji/flowable-engine"
	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const approval = `
key: approval
name: Approval
nodes:
  - {id: start, type: startEvent}
  - {id: approve, type: userTask, candidate_users: alice}
  - {id: end, type: endEvent}
flows:
  - {id: f1, from: start, to: approve}
  - {id: f2, from: approve, to: end}
`

func definitionsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "approval.yaml"), []byte(approval), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))
	return dir
}

func open(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := createEngine(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, rt.Close()) })
	return rt
}

func TestCreateEngine_DeploysDefinitions(t *testing.T) {
	cfg := config.Default()
	cfg.Definitions = definitionsDir(t)
	rt := open(t, cfg)

	defs, err := rt.Engine.Definitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "approval", defs[0].Key)
	assert.Nil(t, rt.Metrics)
}

func TestCreateEngine_Metrics(t *testing.T) {
	cfg := config.Default()
	cfg.Definitions = definitionsDir(t)
	cfg.Metrics = true
	rt := open(t, cfg)
	require.NotNil(t, rt.Metrics)

	_, err := rt.Engine.StartProcessInstance(context.Background(), "approval", "", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	rt.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `flowable_tasks_created_total{task_definition_key="approve"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCreateEngine_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Graph: config.StoreSQLite, DSN: ":memory:"}
	cfg.Definitions = definitionsDir(t)
	rt := open(t, cfg)
	ctx := context.Background()

	pi, err := rt.Engine.StartProcessInstance(ctx, "approval", "", nil)
	require.NoError(t, err)
	require.NoError(t, rt.Engine.UpdateTask(ctx, pi.ID, "approve", []string{"bob"}, "append"))

	g, err := rt.Engine.Graph(ctx, pi.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, g.Node("approve").UserTask.CandidateUsers)
}

func TestCreateEngine_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Redis.Addr = mr.Addr()
	cfg.Store.Graph = config.StoreRedis
	cfg.Lock.Distributed = true
	cfg.Definitions = definitionsDir(t)
	rt := open(t, cfg)
	ctx := context.Background()

	pi, err := rt.Engine.StartProcessInstance(ctx, "approval", "", nil)
	require.NoError(t, err)
	_, err = rt.Engine.InsertTask(ctx, pi.ID, "approve", "after", "Review", []string{"bob"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("flowable:graph:"+pi.ID))

	require.NoError(t, mr.Set("flowable:lease:WRITE#"+pi.ID, "other-node"))
	var buf bytes.Buffer
	require.NoError(t, Lease(ctx, cfg, pi.ID, &buf))
	var st flowable.LeaseStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &st))
	assert.Equal(t, flowable.LeaseStatus{WriteHeld: true, WriteToken: "other-node"}, st)
}

func TestCreateEngine_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err := createEngine(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err, "unreachable redis")

	cfg = config.Default()
	cfg.Definitions = filepath.Join(t.TempDir(), "missing")
	_, err = createEngine(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestInspectCommands(t *testing.T) {
	dir := definitionsDir(t)

	var buf bytes.Buffer
	require.NoError(t, Validate(dir, &buf))
	assert.Equal(t, "approval: 3 nodes, 2 flows\n", buf.String())

	buf.Reset()
	require.NoError(t, Graph(filepath.Join(dir, "approval.yaml"), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "graph TD\n"))
	assert.Contains(t, buf.String(), "approve --> end_")

	buf.Reset()
	require.NoError(t, Describe(dir, &buf, false, 80))
	assert.Contains(t, buf.String(), "# Approval (approval)")

	assert.Error(t, Validate(t.TempDir(), &buf), "empty directory")
	assert.Error(t, Graph(filepath.Join(dir, "missing.yaml"), &buf))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.Log.Level = "error"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() { done <- Serve(ctx, cfg, &out) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
