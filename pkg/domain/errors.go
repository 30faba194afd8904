package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrIllegalArgument   = errors.New("illegal argument")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrLockUnavailable   = errors.New("lock unavailable")
	ErrNoOutgoingFlow    = errors.New("no outgoing flow")
	ErrStaleNode         = errors.New("stale execution node")
)

// Not-found sentinels returned by stores.
var (
	ErrGraphNotFound      = errors.New("graph not found")
	ErrDefinitionNotFound = errors.New("process definition not found")
	ErrExecutionNotFound  = errors.New("execution not found")
	ErrTaskNotFound       = errors.New("task not found")
)

// IllegalArgumentError is returned when caller supplied data violates a contract.
type IllegalArgumentError struct {
	Reason string
	Err    error
}

// IllegalArgument builds an IllegalArgumentError from a format string.
func IllegalArgument(format string, args ...any) *IllegalArgumentError {
	return &IllegalArgumentError{Reason: fmt.Sprintf(format, args...)}
}

func (e *IllegalArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *IllegalArgumentError) Unwrap() error        { return e.Err }
func (e *IllegalArgumentError) Is(target error) bool { return target == ErrIllegalArgument }

// InvalidExpressionError is returned when an expression fails to evaluate or
// evaluates to the wrong type.
type InvalidExpressionError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *InvalidExpressionError) Error() string {
	msg := fmt.Sprintf("expression '%s'", e.Expression)
	if e.Reason != "" {
		msg += " " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidExpressionError) Unwrap() error        { return e.Err }
func (e *InvalidExpressionError) Is(target error) bool { return target == ErrInvalidExpression }

// LockUnavailableError is returned when a conflicting lease is held.
type LockUnavailableError struct {
	Key    string
	Holder string
}

func (e *LockUnavailableError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("cannot acquire lock %s: held by %s", e.Key, e.Holder)
	}
	return fmt.Sprintf("cannot acquire lock %s", e.Key)
}

func (e *LockUnavailableError) Is(target error) bool { return target == ErrLockUnavailable }

// NoOutgoingFlowError is returned when an exclusive gateway has no selectable
// flow and no default flow.
type NoOutgoingFlowError struct {
	GatewayID string
}

func (e *NoOutgoingFlowError) Error() string {
	return fmt.Sprintf("no outgoing sequence flow of the exclusive gateway '%s' could be selected for continuing the process", e.GatewayID)
}

func (e *NoOutgoingFlowError) Is(target error) bool { return target == ErrNoOutgoingFlow }

// StaleNodeError is returned for operations on an execution that was already
// deleted.
type StaleNodeError struct {
	ExecutionID string
}

func (e *StaleNodeError) Error() string {
	return fmt.Sprintf("execution %s was already deleted", e.ExecutionID)
}

func (e *StaleNodeError) Is(target error) bool { return target == ErrStaleNode }
