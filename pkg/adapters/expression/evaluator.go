// Package expression evaluates the ${...} expressions found in process
// definitions using expr-lang.
package expression

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

var (
	// whole matches an expression that spans the entire input.
	whole = regexp.MustCompile(`^\s*[$#]\{(.*)\}\s*$`)
	// embedded matches every expression inside a text template.
	embedded = regexp.MustCompile(`[$#]\{([^}]+)\}`)
)

// Evaluator implements ports.Evaluator.
// Compiled programs are cached by source; the cache is safe for concurrent use.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
	options  []expr.Option
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFunction registers a helper callable from expressions.
func WithFunction(name string, fn func(params ...any) (any, error)) Option {
	return func(e *Evaluator) {
		e.options = append(e.options, expr.Function(name, fn))
	}
}

// New creates an evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		programs: make(map[string]*vm.Program),
		options:  []expr.Option{expr.AllowUndefinedVariables()},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate resolves expression against scope.
//
// A string that is exactly one ${...} block yields the raw value of the
// inner code. Text without any block is returned as is. Mixed text is
// rendered as a string with every block substituted.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, scope ports.VariableScope) (any, error) {
	env := map[string]any{}
	if scope != nil {
		env = scope.Variables()
	}

	if m := whole.FindStringSubmatch(expression); m != nil && !strings.Contains(m[1], "${") && !strings.Contains(m[1], "#{") {
		return e.run(expression, m[1], env)
	}

	if !embedded.MatchString(expression) {
		return expression, nil
	}

	var firstErr error
	out := embedded.ReplaceAllStringFunc(expression, func(block string) string {
		code := embedded.FindStringSubmatch(block)[1]
		v, err := e.run(expression, code, env)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return ""
		}
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (e *Evaluator) run(source, code string, env map[string]any) (any, error) {
	program, err := e.compile(code)
	if err != nil {
		return nil, &domain.InvalidExpressionError{Expression: source, Reason: "does not compile", Err: err}
	}
	v, err := expr.Run(program, env)
	if err != nil {
		return nil, &domain.InvalidExpressionError{Expression: source, Reason: "failed to evaluate", Err: err}
	}
	return v, nil
}

func (e *Evaluator) compile(code string) (*vm.Program, error) {
	e.mu.RLock()
	p, ok := e.programs[code]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := expr.Compile(code, e.options...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[code] = p
	e.mu.Unlock()
	return p, nil
}

// Bool evaluates expression and requires a boolean result.
func Bool(ctx context.Context, ev ports.Evaluator, expression string, scope ports.VariableScope) (bool, error) {
	v, err := ev.Evaluate(ctx, expression, scope)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &domain.InvalidExpressionError{Expression: expression, Reason: "does not evaluate to a boolean value"}
	}
	return b, nil
}

// MapScope is a flat ports.VariableScope backed by a map.
type MapScope map[string]any

func (m MapScope) Variable(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func (m MapScope) Variables() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
