package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// Kind tags the behavior variant of an activity.
type Kind int

const (
	SingleInstance Kind = iota
	MultiInstanceParallel
	MultiInstanceSequential
)

func (k Kind) String() string {
	switch k {
	case SingleInstance:
		return "single"
	case MultiInstanceParallel:
		return "parallel"
	case MultiInstanceSequential:
		return "sequential"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Inner is the per-instance behavior of a flow node.
type Inner struct {
	// Execute runs the behavior outside of any loop.
	Execute func(ctx context.Context, ec *EngineContext, exec *domain.Execution) error

	// ExecuteInstance runs one instance of a multi-instance activity. index
	// is the shared instance counter of the multi-instance root.
	ExecuteInstance func(ctx context.Context, ec *EngineContext, exec *domain.Execution, index int) error
}

// Activity binds a flow node to its behavior variant.
type Activity struct {
	Kind          Kind
	Node          *domain.FlowNode
	Inner         Inner
	MultiInstance *MultiInstance
}

// NewActivity composes the behavior of node.
func NewActivity(node *domain.FlowNode) *Activity {
	a := &Activity{Kind: SingleInstance, Node: node, Inner: innerFor(node)}
	if node.IsMultiInstance() {
		if node.Loop.Sequential {
			a.Kind = MultiInstanceSequential
			a.MultiInstance = NewSequential(node, a.Inner)
		} else {
			a.Kind = MultiInstanceParallel
			a.MultiInstance = NewParallel(node, a.Inner)
		}
	}
	return a
}

// Execute runs the activity on exec.
func (a *Activity) Execute(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	if a.MultiInstance != nil {
		return a.MultiInstance.Execute(ctx, ec, exec)
	}
	return a.Inner.Execute(ctx, ec, exec)
}

// Leave completes the activity for exec. Inside a multi-instance activity
// this completes one instance.
func (a *Activity) Leave(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	if a.MultiInstance != nil {
		return a.MultiInstance.Leave(ctx, ec, exec)
	}
	ec.Agenda.PlanTakeOutgoingFlows(exec.ID)
	return nil
}

func leaveActivity(ctx context.Context, ec *EngineContext, exec *domain.Execution, node *domain.FlowNode) error {
	return NewActivity(node).Leave(ctx, ec, exec)
}

func innerFor(node *domain.FlowNode) Inner {
	switch node.Type {
	case domain.ElementUserTask:
		u := &userTask{node: node}
		return Inner{Execute: u.execute, ExecuteInstance: u.executeInstance}
	case domain.ElementExclusiveGateway:
		return Inner{Execute: executeGateway, ExecuteInstance: passInstance(node)}
	case domain.ElementEndEvent:
		return Inner{Execute: executeEnd, ExecuteInstance: passInstance(node)}
	default:
		return Inner{Execute: pass, ExecuteInstance: passInstance(node)}
	}
}

// pass leaves the element right away.
func pass(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	ec.Agenda.PlanTakeOutgoingFlows(exec.ID)
	return nil
}

func passInstance(node *domain.FlowNode) func(context.Context, *EngineContext, *domain.Execution, int) error {
	return func(ctx context.Context, ec *EngineContext, exec *domain.Execution, _ int) error {
		return leaveActivity(ctx, ec, exec, node)
	}
}

// takeOutgoingFlows leaves a non-gateway element along the first outgoing
// flow whose condition holds. An element without outgoing flows ends exec.
func takeOutgoingFlows(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	node, g, err := ec.Node(ctx, exec)
	if err != nil {
		return err
	}
	if node.Type == domain.ElementExclusiveGateway {
		return executeGateway(ctx, ec, exec)
	}
	ec.emitActivityCompleted(ctx, exec, node)

	flows := g.OutgoingFlows(node.ID)
	if len(flows) == 0 {
		return endExecution(ctx, ec, exec)
	}

	skipEnabled, err := skipExpressionsEnabled(ctx, ec, exec)
	if err != nil {
		return err
	}
	for _, flow := range flows {
		if flowSkipApplies(skipEnabled, flow) {
			skip, err := shouldSkip(ctx, ec, exec, flow.SkipExpression)
			if err != nil {
				return err
			}
			if skip {
				return takeFlow(ctx, ec, exec, flow)
			}
			continue
		}
		ok := true
		if flow.Condition != "" {
			if ok, err = ec.EvaluateBool(ctx, exec, flow.Condition); err != nil {
				return err
			}
		}
		if ok {
			return takeFlow(ctx, ec, exec, flow)
		}
	}
	return fmt.Errorf("%w: no outgoing sequence flow of activity '%s' could be selected", domain.ErrNoOutgoingFlow, node.ID)
}

func executeEnd(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	node, _, err := ec.Node(ctx, exec)
	if err != nil {
		return err
	}
	ec.emitActivityCompleted(ctx, exec, node)
	return endExecution(ctx, ec, exec)
}

// endExecution deletes exec and ends the process instance once its last
// child is gone.
func endExecution(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	if exec.IsProcessInstance() {
		return endProcessInstance(ctx, ec, exec)
	}
	parent, err := ec.Tree.Parent(ctx, exec)
	if err != nil {
		return err
	}
	if err := ec.Tree.Delete(ctx, exec, domain.DeleteReasonProcessEnd); err != nil {
		return err
	}
	if !parent.IsProcessInstance() {
		return nil
	}
	children, err := ec.Tree.Children(ctx, parent.ID)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return nil
	}
	return endProcessInstance(ctx, ec, parent)
}

func endProcessInstance(ctx context.Context, ec *EngineContext, root *domain.Execution) error {
	h, err := ec.History.Get(ctx, root.ProcessInstanceID)
	switch {
	case err == nil:
		ended := ec.Tree.now()
		h.EndedAt = &ended
		if err := ec.History.Record(ctx, h); err != nil {
			return err
		}
	case !errors.Is(err, domain.ErrExecutionNotFound):
		return err
	}
	ec.Logger.Info("process instance ended", "process_instance_id", root.ProcessInstanceID)
	return ec.Tree.Delete(ctx, root, domain.DeleteReasonProcessEnd)
}
