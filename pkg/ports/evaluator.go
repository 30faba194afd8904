package ports

import "context"

// VariableScope exposes the variables visible from an execution.
type VariableScope interface {
	// Variable resolves a name, walking up the ancestors when unset locally.
	Variable(name string) (any, bool)

	// Variables flattens every visible variable, nearest scope winning.
	Variables() map[string]any
}

// Evaluator evaluates expressions against a variable scope.
// Syntax and runtime failures are reported as *domain.InvalidExpressionError.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, scope VariableScope) (any, error)
}

// Agenda enqueues the next engine steps. Planning is fire-and-forget.
type Agenda interface {
	PlanContinueProcess(executionID string)
	PlanTakeOutgoingFlows(executionID string)
	PlanContinueMultiInstance(executionID, rootID string, loopCounter int)
}
