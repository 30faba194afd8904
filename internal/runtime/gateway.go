package runtime

import (
	"context"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// SelectFlow picks the single outgoing flow an exclusive gateway continues on.
//
// Flows are scanned in definition order. With skip expressions enabled, a
// flow carrying a skip expression is decided by it alone: selected at once
// when it holds, passed over otherwise. For the remaining flows the
// first non-default flow whose condition holds and that has no priority is
// selected at once; conditioned flows carrying a priority compete, the
// lexically lowest priority winning and ties keeping the earliest flow.
// The default flow is the fallback.
func SelectFlow(ctx context.Context, ec *EngineContext, exec *domain.Execution, node *domain.FlowNode, g *domain.Graph) (*domain.SequenceFlow, error) {
	skipEnabled, err := skipExpressionsEnabled(ctx, ec, exec)
	if err != nil {
		return nil, err
	}

	var outright, best, defaultFlow *domain.SequenceFlow
	for _, flow := range g.OutgoingFlows(node.ID) {
		if flowSkipApplies(skipEnabled, flow) {
			skip, err := shouldSkip(ctx, ec, exec, flow.SkipExpression)
			if err != nil {
				return nil, err
			}
			if skip {
				outright = flow
				break
			}
			// A flow under an active skip expression is never taken on its condition.
			continue
		}

		if flow.ID == node.DefaultFlow {
			defaultFlow = flow
			continue
		}

		ok := true
		if flow.Condition != "" {
			ok, err = ec.EvaluateBool(ctx, exec, flow.Condition)
			if err != nil {
				return nil, err
			}
		}
		if !ok {
			continue
		}

		if flow.Priority == "" {
			outright = flow
			break
		}
		if best == nil || flow.Priority < best.Priority {
			best = flow
		}
	}

	if defaultFlow == nil && node.DefaultFlow != "" {
		defaultFlow = g.Flow(node.DefaultFlow)
	}

	switch {
	case outright != nil:
		return outright, nil
	case best != nil:
		return best, nil
	case defaultFlow != nil:
		return defaultFlow, nil
	}
	return nil, &domain.NoOutgoingFlowError{GatewayID: node.ID}
}

// executeGateway notifies completion of the gateway, then moves exec onto
// the selected flow.
func executeGateway(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	node, g, err := ec.Node(ctx, exec)
	if err != nil {
		return err
	}
	ec.emitActivityCompleted(ctx, exec, node)

	flow, err := SelectFlow(ctx, ec, exec, node, g)
	if err != nil {
		return err
	}
	ec.Logger.Debug("gateway flow selected", "gateway", node.ID, "flow", flow.ID, "priority", flow.Priority)
	return takeFlow(ctx, ec, exec, flow)
}

// takeFlow moves exec along flow and schedules the target element.
func takeFlow(ctx context.Context, ec *EngineContext, exec *domain.Execution, flow *domain.SequenceFlow) error {
	if err := ec.Tree.SetCurrentElement(ctx, exec, flow.TargetRef); err != nil {
		return err
	}
	ec.emitFlowTaken(ctx, exec, flow)
	ec.Agenda.PlanContinueProcess(exec.ID)
	return nil
}
