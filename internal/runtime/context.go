package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

// EngineContext carries the collaborators of one unit of work. A fresh
// context, with its own agenda, is created for every engine command and
// threaded explicitly through every behavior.
type EngineContext struct {
	Tree      *Tree
	Tasks     ports.TaskService
	History   ports.HistoryService
	Graphs    *graph.Resolver
	Evaluator ports.Evaluator
	Agenda    *Agenda
	Hooks     domain.LifecycleHooks
	Logger    *slog.Logger

	// SkipExpressionsEnabled turns skip expressions on for every execution,
	// regardless of the per-instance variable.
	SkipExpressionsEnabled bool

	newID func() string
}

// Graph returns the graph the execution runs on, under the read lease.
func (ec *EngineContext) Graph(ctx context.Context, exec *domain.Execution) (*domain.Graph, error) {
	return ec.Graphs.Read(ctx, exec.ProcessInstanceID, exec.ProcessDefinitionID)
}

// Node returns the flow node exec is positioned at.
func (ec *EngineContext) Node(ctx context.Context, exec *domain.Execution) (*domain.FlowNode, *domain.Graph, error) {
	g, err := ec.Graph(ctx, exec)
	if err != nil {
		return nil, nil, err
	}
	node := g.Node(exec.CurrentElementID)
	if node == nil {
		return nil, nil, fmt.Errorf("execution %s points at unknown element %q", exec.ID, exec.CurrentElementID)
	}
	return node, g, nil
}

// Evaluate evaluates an expression in the variable scope of exec.
func (ec *EngineContext) Evaluate(ctx context.Context, exec *domain.Execution, expression string) (any, error) {
	scope, err := ec.Tree.Scope(ctx, exec)
	if err != nil {
		return nil, err
	}
	return ec.Evaluator.Evaluate(ctx, expression, scope)
}

// EvaluateBool evaluates an expression that must yield a boolean.
func (ec *EngineContext) EvaluateBool(ctx context.Context, exec *domain.Execution, expression string) (bool, error) {
	v, err := ec.Evaluate(ctx, exec, expression)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &domain.InvalidExpressionError{Expression: expression, Reason: "does not evaluate to a boolean value"}
	}
	return b, nil
}

func (ec *EngineContext) emitActivityCompleted(ctx context.Context, exec *domain.Execution, node *domain.FlowNode) {
	if ec.Hooks.OnActivityCompleted == nil {
		return
	}
	ec.Hooks.OnActivityCompleted(ctx, &domain.ActivityEvent{
		EventBase:    domain.NewEventBase(domain.EventActivityCompleted, exec),
		ActivityID:   node.ID,
		ActivityName: node.Name,
		ActivityType: node.Type,
	})
}

func (ec *EngineContext) emitFlowTaken(ctx context.Context, exec *domain.Execution, flow *domain.SequenceFlow) {
	if ec.Hooks.OnFlowTaken == nil {
		return
	}
	ec.Hooks.OnFlowTaken(ctx, &domain.FlowEvent{
		EventBase: domain.NewEventBase(domain.EventFlowTaken, exec),
		FlowID:    flow.ID,
		SourceID:  flow.SourceRef,
		TargetID:  flow.TargetRef,
	})
}

func (ec *EngineContext) emitTask(ctx context.Context, t domain.EventType, exec *domain.Execution, task *domain.Task) {
	hook := ec.Hooks.OnTaskCreated
	if t == domain.EventTaskCompleted {
		hook = ec.Hooks.OnTaskCompleted
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.TaskEvent{
		EventBase:         domain.NewEventBase(t, exec),
		TaskID:            task.ID,
		TaskDefinitionKey: task.TaskDefinitionKey,
	})
}
