// Package mutation edits the graph of a live process instance.
//
// Every edit loads the current graph of the instance, changes it and saves
// it as the instance's override graph while holding the instance's write
// lease. Running executions are reconciled with the new graph once the lease
// is released.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/lock"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

// Position places an inserted task relative to its anchor.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// ParsePosition parses "before" or "after".
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case Before, After:
		return p, nil
	}
	return "", domain.IllegalArgument("unknown position %q, expected before or after", s)
}

// UpdateMode tells UpdateTask how to combine candidate users.
type UpdateMode string

const (
	Append  UpdateMode = "append"
	Replace UpdateMode = "replace"
)

// ParseUpdateMode parses "append" or "replace".
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch m := UpdateMode(s); m {
	case Append, Replace:
		return m, nil
	}
	return "", domain.IllegalArgument("unknown update mode %q, expected append or replace", s)
}

// Reconciler applies a committed graph edit to the running executions.
// *runtime.Engine implements it.
type Reconciler interface {
	Execution(ctx context.Context, id string) (*domain.Execution, error)
	Task(ctx context.Context, taskID string) (*domain.Task, error)
	Tasks(ctx context.Context, processInstanceID string) ([]*domain.Task, error)
	JumpTo(ctx context.Context, executionID, elementID string) error
	SkipTask(ctx context.Context, taskID string) error
	RefreshAssignments(ctx context.Context, taskID string) error
	PointTo(ctx context.Context, processInstanceID string, def *domain.ProcessDefinition) error
	Restart(ctx context.Context, processInstanceID string) (string, error)
}

// Mutator edits live process graphs.
type Mutator struct {
	engine Reconciler
	graphs *graph.Resolver
	defs   ports.DefinitionRepository
	guard  *lock.Guard
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithLogger configures the mutator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mutator) {
		m.logger = logger
	}
}

// WithHooks registers callbacks fired after each committed edit.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Mutator) {
		m.hooks = hooks
	}
}

// NewMutator creates a mutator.
func NewMutator(engine Reconciler, graphs *graph.Resolver, defs ports.DefinitionRepository, guard *lock.Guard, opts ...Option) *Mutator {
	m := &Mutator{
		engine: engine,
		graphs: graphs,
		defs:   defs,
		guard:  guard,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// mutate runs fn on the current graph of an instance under its write lease
// and saves the result.
func (m *Mutator) mutate(ctx context.Context, processInstanceID, operation string, fn func(g *domain.Graph) (string, error)) (*domain.Execution, error) {
	root, err := m.engine.Execution(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}

	var elementID string
	err = m.guard.WithWriteLock(ctx, processInstanceID, func(ctx context.Context) error {
		g, err := m.graphs.Load(ctx, processInstanceID, root.ProcessDefinitionID, false)
		if err != nil {
			return err
		}
		if elementID, err = fn(g); err != nil {
			return err
		}
		if err := graph.Validate(g); err != nil {
			return fmt.Errorf("%s would break the graph: %w", operation, err)
		}
		return m.graphs.Save(ctx, processInstanceID, g)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("graph mutated", "operation", operation, "process_instance_id", processInstanceID, "element", elementID)
	if m.hooks.OnGraphMutated != nil {
		m.hooks.OnGraphMutated(ctx, &domain.MutationEvent{
			EventBase: domain.NewEventBase(domain.EventGraphMutated, root),
			Operation: operation,
			ElementID: elementID,
		})
	}
	return root, nil
}

// InsertTask adds a user task before or after the anchor node and returns
// its id. Inserting before a node that holds an open task moves that
// execution to the new task.
func (m *Mutator) InsertTask(ctx context.Context, processInstanceID, anchorKey string, position Position, name string, candidateUsers []string) (string, error) {
	var taskID string
	_, err := m.mutate(ctx, processInstanceID, "insert_task", func(g *domain.Graph) (string, error) {
		anchor := g.Node(anchorKey)
		if anchor == nil {
			return "", domain.IllegalArgument("element '%s' does not exist", anchorKey)
		}

		taskID = g.NextTaskID()
		node := &domain.FlowNode{
			ID:        taskID,
			Name:      name,
			Type:      domain.ElementUserTask,
			EditState: domain.EditStateEdited,
			UserTask: &domain.UserTask{
				CandidateUsers: slices.Clone(candidateUsers),
				Priority:       domain.DynamicTaskPriority,
			},
		}
		g.AddNode(node)
		flowID := g.NextFlowID()

		switch position {
		case Before:
			spliceBefore(g, anchor, node, flowID)
		case After:
			if err := spliceAfter(g, anchor, node, flowID); err != nil {
				return "", err
			}
		default:
			return "", domain.IllegalArgument("unknown position %q", position)
		}
		return taskID, nil
	})
	if err != nil {
		return "", err
	}

	if position == Before {
		if err := m.forEachOpenTask(ctx, processInstanceID, anchorKey, func(task *domain.Task) error {
			return m.engine.JumpTo(ctx, task.ExecutionID, taskID)
		}); err != nil {
			return taskID, err
		}
	}
	return taskID, nil
}

// spliceBefore redirects the incoming flows of anchor to node and connects
// node to anchor.
func spliceBefore(g *domain.Graph, anchor, node *domain.FlowNode, flowID string) {
	for _, f := range g.IncomingFlows(anchor.ID) {
		f.TargetRef = node.ID
	}
	node.Incoming = anchor.Incoming
	node.Outgoing = []string{flowID}
	anchor.Incoming = []string{flowID}
	g.AddFlow(&domain.SequenceFlow{ID: flowID, SourceRef: node.ID, TargetRef: anchor.ID})
}

// spliceAfter redirects the outgoing flows of anchor to node and connects
// node to the former target of the first of them.
func spliceAfter(g *domain.Graph, anchor, node *domain.FlowNode, flowID string) error {
	outgoing := g.OutgoingFlows(anchor.ID)
	if len(outgoing) == 0 {
		return domain.IllegalArgument("element '%s' has no outgoing flow", anchor.ID)
	}
	target := g.Node(outgoing[0].TargetRef)
	if target == nil {
		return domain.IllegalArgument("flow '%s' targets unknown element '%s'", outgoing[0].ID, outgoing[0].TargetRef)
	}

	for _, f := range outgoing {
		if t := g.Node(f.TargetRef); t != nil {
			t.Incoming = slices.DeleteFunc(t.Incoming, func(id string) bool { return id == f.ID })
		}
		f.TargetRef = node.ID
	}
	node.Incoming = slices.Clone(anchor.Outgoing)
	node.Outgoing = []string{flowID}
	target.Incoming = append(target.Incoming, flowID)
	g.AddFlow(&domain.SequenceFlow{ID: flowID, SourceRef: node.ID, TargetRef: target.ID})
	return nil
}

// DeleteTask soft-deletes a user task: the node stays wired but is always
// skipped. An open task at the node is skipped right away; when taskID is
// given it must name an open task.
func (m *Mutator) DeleteTask(ctx context.Context, processInstanceID, taskKey, taskID string) error {
	var live *domain.Task
	if taskID != "" {
		task, err := m.engine.Task(ctx, taskID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.IllegalArgument("task %s does not exist", taskID)
		}
		if err != nil {
			return err
		}
		live = task
	}

	_, err := m.mutate(ctx, processInstanceID, "delete_task", func(g *domain.Graph) (string, error) {
		node := g.Node(taskKey)
		if node == nil || node.Type != domain.ElementUserTask {
			return "", domain.IllegalArgument("element '%s' is not a task", taskKey)
		}
		node.EditState = domain.EditStatePendingDelete
		node.SkipExpression = "${true}"
		return node.ID, nil
	})
	if err != nil {
		return err
	}

	if live != nil {
		if live.TaskDefinitionKey != taskKey {
			return nil
		}
		return m.engine.SkipTask(ctx, live.ID)
	}
	return m.forEachOpenTask(ctx, processInstanceID, taskKey, func(task *domain.Task) error {
		return m.engine.SkipTask(ctx, task.ID)
	})
}

// UpdateTask changes the candidate users of a user task and recomputes the
// assignment of its open tasks.
func (m *Mutator) UpdateTask(ctx context.Context, processInstanceID, taskKey string, candidateUsers []string, mode UpdateMode) error {
	_, err := m.mutate(ctx, processInstanceID, "update_task", func(g *domain.Graph) (string, error) {
		node := g.Node(taskKey)
		if node == nil || node.Type != domain.ElementUserTask {
			return "", domain.IllegalArgument("element '%s' is not a task", taskKey)
		}
		if node.UserTask == nil {
			node.UserTask = &domain.UserTask{}
		}
		switch mode {
		case Append:
			node.UserTask.CandidateUsers = domain.DistinctCandidates(append(node.UserTask.CandidateUsers, candidateUsers...))
		case Replace:
			node.UserTask.CandidateUsers = slices.Clone(candidateUsers)
		default:
			return "", domain.IllegalArgument("unknown update mode %q", mode)
		}
		node.EditState = domain.EditStateEdited
		return node.ID, nil
	})
	if err != nil {
		return err
	}

	return m.forEachOpenTask(ctx, processInstanceID, taskKey, func(task *domain.Task) error {
		return m.engine.RefreshAssignments(ctx, task.ID)
	})
}

// UpgradeInstance moves a process instance to the latest version of its
// definition, carrying runtime edits over to nodes that still exist, and
// restarts it. definitionID defaults to the instance's current definition.
// It returns the id of the new execution, or "" when the instance already
// runs on the latest version.
func (m *Mutator) UpgradeInstance(ctx context.Context, processInstanceID, definitionID string) (string, error) {
	root, err := m.engine.Execution(ctx, processInstanceID)
	if err != nil {
		return "", err
	}
	if definitionID == "" {
		definitionID = root.ProcessDefinitionID
	}
	current, err := m.defs.FindByID(ctx, definitionID)
	if err != nil {
		return "", err
	}
	latest, err := m.defs.FindLatestByKey(ctx, current.Key, current.TenantID)
	if err != nil {
		return "", err
	}
	if latest.ID == current.ID {
		m.logger.Debug("instance already on latest definition", "process_instance_id", processInstanceID, "definition_id", current.ID)
		return "", nil
	}

	err = m.guard.WithWriteLock(ctx, processInstanceID, func(ctx context.Context) error {
		old, err := m.graphs.Load(ctx, processInstanceID, root.ProcessDefinitionID, false)
		if err != nil {
			return err
		}
		next, err := m.graphs.Definition(ctx, latest.ID, true)
		if err != nil {
			return err
		}
		carried := carryEdits(old, next)
		m.logger.Debug("edits carried forward", "process_instance_id", processInstanceID, "nodes", carried)
		return m.graphs.Save(ctx, processInstanceID, next)
	})
	if err != nil {
		return "", err
	}

	if err := m.engine.PointTo(ctx, processInstanceID, latest); err != nil {
		return "", err
	}
	executionID, err := m.engine.Restart(ctx, processInstanceID)
	if err != nil {
		return executionID, err
	}

	m.logger.Info("process instance upgraded",
		"process_instance_id", processInstanceID,
		"from", current.ID,
		"to", latest.ID,
	)
	if m.hooks.OnGraphMutated != nil {
		m.hooks.OnGraphMutated(ctx, &domain.MutationEvent{
			EventBase: domain.NewEventBase(domain.EventGraphMutated, root),
			Operation: "upgrade_instance",
			ElementID: latest.ID,
		})
	}
	return executionID, nil
}

// carryEdits copies the attributes of every edited node of old onto the
// node with the same id in next. It returns the ids of the copied nodes.
func carryEdits(old, next *domain.Graph) []string {
	var carried []string
	for _, n := range old.Nodes {
		if !n.EditState.IsEdited() {
			continue
		}
		target := next.Node(n.ID)
		if target == nil {
			continue
		}
		target.CopyAttributes(n)
		carried = append(carried, n.ID)
	}
	return carried
}

// forEachOpenTask calls fn for each open task at taskKey. Executions removed
// by an earlier call, such as the siblings of a multi-instance activity, are
// skipped.
func (m *Mutator) forEachOpenTask(ctx context.Context, processInstanceID, taskKey string, fn func(*domain.Task) error) error {
	tasks, err := m.engine.Tasks(ctx, processInstanceID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if task.TaskDefinitionKey != taskKey {
			continue
		}
		err := fn(task)
		if errors.Is(err, domain.ErrStaleNode) || errors.Is(err, domain.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
