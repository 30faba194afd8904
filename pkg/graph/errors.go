package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports a single invalid element of a graph.
type ValidationError struct {
	ElementID string // Node or flow id, empty for graph level problems
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.ElementID == "" {
		return e.Reason
	}
	return fmt.Sprintf("element %q: %s", e.ElementID, e.Reason)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
