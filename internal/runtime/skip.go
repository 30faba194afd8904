package runtime

import (
	"context"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// skipExpressionsEnabled reports whether skip expressions apply to exec:
// either engine wide or through the _FLOWABLE_SKIP_EXPRESSION_ENABLED
// variable visible from exec.
func skipExpressionsEnabled(ctx context.Context, ec *EngineContext, exec *domain.Execution) (bool, error) {
	if ec.SkipExpressionsEnabled {
		return true, nil
	}
	v, ok, err := ec.Tree.GetVariable(ctx, exec, domain.VarSkipExpressionEnabled)
	if err != nil || !ok {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true"), nil
	default:
		return false, nil
	}
}

// shouldSkip evaluates a skip expression. A blank expression never skips.
func shouldSkip(ctx context.Context, ec *EngineContext, exec *domain.Execution, expression string) (bool, error) {
	if strings.TrimSpace(expression) == "" {
		return false, nil
	}
	return ec.EvaluateBool(ctx, exec, expression)
}

// flowSkipApplies reports whether flow is routed by its skip expression
// instead of its condition.
func flowSkipApplies(enabled bool, flow *domain.SequenceFlow) bool {
	return enabled && strings.TrimSpace(flow.SkipExpression) != ""
}

// skipNode reports whether the activity at node must be passed through
// without running its behavior. Nodes pending delete are always skipped.
func skipNode(ctx context.Context, ec *EngineContext, exec *domain.Execution, node *domain.FlowNode) (bool, error) {
	if node.EditState == domain.EditStatePendingDelete {
		return true, nil
	}
	if node.SkipExpression == "" {
		return false, nil
	}
	enabled, err := skipExpressionsEnabled(ctx, ec, exec)
	if err != nil || !enabled {
		return false, err
	}
	return shouldSkip(ctx, ec, exec, node.SkipExpression)
}
