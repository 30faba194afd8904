package testutils

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/fangliji/flowable-engine/internal/runtime"
	"github.com/fangliji/flowable-engine/pkg/adapters/expression"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/lock"
	"github.com/stretchr/testify/require"
)

// GraphBuilder assembles process graphs for tests, keeping the incoming and
// outgoing lists of nodes in sync with the flows.
type GraphBuilder struct {
	g *domain.Graph
}

// NewGraph starts a graph with the given id.
func NewGraph(id string) *GraphBuilder {
	return &GraphBuilder{g: &domain.Graph{ID: id, Name: id}}
}

// Start adds a start event.
func (b *GraphBuilder) Start(id string) *GraphBuilder {
	b.g.AddNode(&domain.FlowNode{ID: id, Type: domain.ElementStartEvent})
	return b
}

// End adds an end event.
func (b *GraphBuilder) End(id string) *GraphBuilder {
	b.g.AddNode(&domain.FlowNode{ID: id, Type: domain.ElementEndEvent})
	return b
}

// Gateway adds an exclusive gateway. defaultFlow may be empty.
func (b *GraphBuilder) Gateway(id, defaultFlow string) *GraphBuilder {
	b.g.AddNode(&domain.FlowNode{ID: id, Type: domain.ElementExclusiveGateway, DefaultFlow: defaultFlow})
	return b
}

// UserTask adds a user task offered to the given candidate expressions.
func (b *GraphBuilder) UserTask(id string, candidates ...string) *GraphBuilder {
	b.g.AddNode(&domain.FlowNode{
		ID:       id,
		Name:     id,
		Type:     domain.ElementUserTask,
		UserTask: &domain.UserTask{CandidateUsers: candidates},
	})
	return b
}

// Node adds an arbitrary node.
func (b *GraphBuilder) Node(n *domain.FlowNode) *GraphBuilder {
	b.g.AddNode(n)
	return b
}

// Loop makes the node multi-instance.
func (b *GraphBuilder) Loop(nodeID string, loop domain.LoopCharacteristics) *GraphBuilder {
	n := b.g.Node(nodeID)
	if n == nil {
		panic(fmt.Sprintf("unknown node %s", nodeID))
	}
	n.Loop = &loop
	return b
}

// Flow connects source to target. Optional mutators customize the flow.
func (b *GraphBuilder) Flow(id, source, target string, mods ...func(*domain.SequenceFlow)) *GraphBuilder {
	f := &domain.SequenceFlow{ID: id, SourceRef: source, TargetRef: target}
	for _, mod := range mods {
		mod(f)
	}
	b.g.AddFlow(f)
	if n := b.g.Node(source); n != nil {
		n.Outgoing = append(n.Outgoing, id)
	}
	if n := b.g.Node(target); n != nil {
		n.Incoming = append(n.Incoming, id)
	}
	return b
}

// Build returns the graph.
func (b *GraphBuilder) Build() *domain.Graph {
	return b.g
}

// Condition sets the condition of a flow.
func Condition(expr string) func(*domain.SequenceFlow) {
	return func(f *domain.SequenceFlow) { f.Condition = expr }
}

// Priority sets the priority of a flow.
func Priority(p string) func(*domain.SequenceFlow) {
	return func(f *domain.SequenceFlow) { f.Priority = p }
}

// SkipExpression sets the skip expression of a flow.
func SkipExpression(expr string) func(*domain.SequenceFlow) {
	return func(f *domain.SequenceFlow) { f.SkipExpression = expr }
}

// ApprovalGraph is start -> approve -> end.
func ApprovalGraph(id string, candidates ...string) *domain.Graph {
	return NewGraph(id).
		Start("start").
		UserTask("approve", candidates...).
		End("end").
		Flow("f1", "start", "approve").
		Flow("f2", "approve", "end").
		Build()
}

// Harness wires an engine on top of the in-memory adapters.
type Harness struct {
	Engine     *runtime.Engine
	Resolver   *graph.Resolver
	Guard      *lock.Guard
	Leases     *memory.LeaseStore
	Graphs     *memory.GraphStore
	Defs       *memory.DefinitionRepository
	Executions *memory.ExecutionStore
	Tasks      *memory.TaskService
	History    *memory.HistoryService
	Events     *Recorder
}

// NewHarness deploys the given graphs and builds an engine over them.
func NewHarness(t *testing.T, graphs []*domain.Graph, opts ...runtime.EngineOption) *Harness {
	t.Helper()

	defs, err := memory.NewDefinitionRepositoryFromGraphs(context.Background(), graphs...)
	require.NoError(t, err)

	h := &Harness{
		Leases:     memory.NewLeaseStore(),
		Graphs:     memory.NewGraphStore(),
		Defs:       defs,
		Executions: memory.NewExecutionStore(),
		Tasks:      memory.NewTaskService(),
		History:    memory.NewHistoryService(),
		Events:     &Recorder{},
	}
	h.Guard = lock.NewGuard(h.Leases)
	h.Resolver = graph.NewResolver(h.Graphs, h.Defs, graph.WithGuard(h.Guard))

	stores := runtime.Stores{
		Executions:  h.Executions,
		Tasks:       h.Tasks,
		History:     h.History,
		Definitions: h.Defs,
	}
	opts = append([]runtime.EngineOption{runtime.WithLifecycleHooks(h.Events.Hooks())}, opts...)
	h.Engine = runtime.NewEngine(stores, h.Resolver, expression.New(), opts...)
	return h
}

// Start starts the latest version of the definition deployed under key.
func (h *Harness) Start(t *testing.T, key string, vars map[string]any) *domain.Execution {
	t.Helper()
	pi, err := h.Engine.StartProcessInstanceByKey(context.Background(), key, "", vars)
	require.NoError(t, err)
	return pi
}

// OpenTasks returns the open tasks of an instance in creation order.
func (h *Harness) OpenTasks(t *testing.T, processInstanceID string) []*domain.Task {
	t.Helper()
	tasks, err := h.Tasks.FindByProcessInstance(context.Background(), processInstanceID)
	require.NoError(t, err)
	return tasks
}

// TaskFor returns the open task offered to user.
func (h *Harness) TaskFor(t *testing.T, processInstanceID, user string) *domain.Task {
	t.Helper()
	for _, task := range h.OpenTasks(t, processInstanceID) {
		if slices.Contains(h.Candidates(t, task.ID), user) {
			return task
		}
	}
	require.Failf(t, "no task", "no open task offered to %s", user)
	return nil
}

// Candidates returns the candidate users of a task.
func (h *Harness) Candidates(t *testing.T, taskID string) []string {
	t.Helper()
	links, err := h.Tasks.IdentityLinks(context.Background(), taskID)
	require.NoError(t, err)
	var users []string
	for _, l := range links {
		if l.Type == domain.IdentityLinkCandidate && l.UserID != "" {
			users = append(users, l.UserID)
		}
	}
	return users
}

// AllCandidates returns the candidate user of every open task, in task order.
func (h *Harness) AllCandidates(t *testing.T, processInstanceID string) []string {
	t.Helper()
	var out []string
	for _, task := range h.OpenTasks(t, processInstanceID) {
		out = append(out, h.Candidates(t, task.ID)...)
	}
	return out
}

// Complete completes the open task offered to user.
func (h *Harness) Complete(t *testing.T, processInstanceID, user string, vars map[string]any) {
	t.Helper()
	task := h.TaskFor(t, processInstanceID, user)
	require.NoError(t, h.Engine.CompleteTask(context.Background(), task.ID, vars))
}

// MultiInstanceRoot returns the multi-instance root of an instance, or nil.
func (h *Harness) MultiInstanceRoot(t *testing.T, processInstanceID string) *domain.Execution {
	t.Helper()
	execs, err := h.Executions.ByProcessInstance(context.Background(), processInstanceID)
	require.NoError(t, err)
	for _, e := range execs {
		if e.IsMultiInstanceRoot {
			return e
		}
	}
	return nil
}

// Counters returns nrOfInstances, nrOfActiveInstances and
// nrOfCompletedInstances of the multi-instance root of an instance.
func (h *Harness) Counters(t *testing.T, processInstanceID string) (total, active, completed int) {
	t.Helper()
	root := h.MultiInstanceRoot(t, processInstanceID)
	require.NotNil(t, root, "no multi instance root")
	total, _ = domain.ToInt(root.Variables[domain.VarNrOfInstances])
	active, _ = domain.ToInt(root.Variables[domain.VarNrOfActiveInstances])
	completed, _ = domain.ToInt(root.Variables[domain.VarNrOfCompletedInstances])
	return total, active, completed
}

// Ended reports whether the process instance finished.
func (h *Harness) Ended(t *testing.T, processInstanceID string) bool {
	t.Helper()
	execs, err := h.Executions.ByProcessInstance(context.Background(), processInstanceID)
	require.NoError(t, err)
	return len(execs) == 0
}

// Recorder collects lifecycle events.
type Recorder struct {
	mu     sync.Mutex
	events []domain.EventType
	multi  []*domain.MultiInstanceEvent
}

// Hooks returns hooks feeding the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivityCompleted: func(_ context.Context, e *domain.ActivityEvent) { r.add(e.Type) },
		OnFlowTaken:         func(_ context.Context, e *domain.FlowEvent) { r.add(e.Type) },
		OnMultiInstanceCompleted: func(_ context.Context, e *domain.MultiInstanceEvent) {
			r.mu.Lock()
			r.multi = append(r.multi, e)
			r.mu.Unlock()
			r.add(e.Type)
		},
		OnTaskCreated:   func(_ context.Context, e *domain.TaskEvent) { r.add(e.Type) },
		OnTaskCompleted: func(_ context.Context, e *domain.TaskEvent) { r.add(e.Type) },
		OnGraphMutated:  func(_ context.Context, e *domain.MutationEvent) { r.add(e.Type) },
	}
}

func (r *Recorder) add(t domain.EventType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t domain.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == t {
			n++
		}
	}
	return n
}

// MultiInstance returns the recorded multi-instance completion events.
func (r *Recorder) MultiInstance() []*domain.MultiInstanceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.multi)
}
