package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

// Tree manages the execution tree of process instances.
// The store is the source of truth: every mutating call saves immediately
// and callers re-load nodes by id instead of holding on to them.
type Tree struct {
	executions ports.ExecutionStore
	tasks      ports.TaskService
	newID      func() string
	now        func() time.Time
}

// NewTree creates a tree over the given stores.
func NewTree(executions ports.ExecutionStore, tasks ports.TaskService, newID func() string, now func() time.Time) *Tree {
	return &Tree{executions: executions, tasks: tasks, newID: newID, now: now}
}

// Get loads an execution, mapping a missing node to *domain.StaleNodeError.
func (t *Tree) Get(ctx context.Context, id string) (*domain.Execution, error) {
	exec, err := t.executions.Get(ctx, id)
	if errors.Is(err, domain.ErrExecutionNotFound) {
		return nil, &domain.StaleNodeError{ExecutionID: id}
	}
	return exec, err
}

// Save persists an execution.
func (t *Tree) Save(ctx context.Context, exec *domain.Execution) error {
	return t.executions.Save(ctx, exec)
}

// Children returns the direct children of an execution.
func (t *Tree) Children(ctx context.Context, id string) ([]*domain.Execution, error) {
	return t.executions.Children(ctx, id)
}

// NewProcessInstance creates and saves the root execution of an instance.
func (t *Tree) NewProcessInstance(ctx context.Context, def *domain.ProcessDefinition) (*domain.Execution, error) {
	id := t.newID()
	root := &domain.Execution{
		ID:                id,
		ProcessInstanceID: id,
		IsScope:           true,
		IsActive:          true,
		CreatedAt:         t.now(),
	}
	root.PointTo(def)
	if err := t.executions.Save(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// CreateChild allocates an active, non-scope child under parent positioned
// at elementID. Variable lookups from the child fall through to parent.
func (t *Tree) CreateChild(ctx context.Context, parent *domain.Execution, elementID string) (*domain.Execution, error) {
	child := &domain.Execution{
		ID:                  t.newID(),
		ParentID:            parent.ID,
		ProcessInstanceID:   parent.ProcessInstanceID,
		ProcessDefinitionID: parent.ProcessDefinitionID,
		CurrentElementID:    elementID,
		IsActive:            true,
		CreatedAt:           t.now(),
	}
	if err := t.executions.Save(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// DeleteSubtree removes root and all its descendants except the ids in
// exclude (and their own descendants). Open tasks of every removed node are
// deleted with reason.
func (t *Tree) DeleteSubtree(ctx context.Context, root *domain.Execution, exclude []string, reason string) error {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	return t.deleteRecursive(ctx, root.ID, skip, reason)
}

// DeleteChildren removes every descendant of parent, keeping parent itself.
func (t *Tree) DeleteChildren(ctx context.Context, parent *domain.Execution, reason string) error {
	children, err := t.executions.Children(ctx, parent.ID)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := t.deleteRecursive(ctx, c.ID, nil, reason); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) deleteRecursive(ctx context.Context, id string, skip map[string]bool, reason string) error {
	if skip[id] {
		return nil
	}
	children, err := t.executions.Children(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := t.deleteRecursive(ctx, c.ID, skip, reason); err != nil {
			return err
		}
	}
	if err := t.DeleteTasks(ctx, id, reason); err != nil {
		return err
	}
	return t.executions.Delete(ctx, id)
}

// Delete removes a single execution and its open tasks.
func (t *Tree) Delete(ctx context.Context, exec *domain.Execution, reason string) error {
	if err := t.DeleteTasks(ctx, exec.ID, reason); err != nil {
		return err
	}
	return t.executions.Delete(ctx, exec.ID)
}

// DeleteTasks removes the open tasks of an execution.
func (t *Tree) DeleteTasks(ctx context.Context, executionID, reason string) error {
	tasks, err := t.tasks.FindByExecution(ctx, executionID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := t.tasks.DeleteTask(ctx, task.ID, reason); err != nil {
			return fmt.Errorf("failed to delete task %s: %w", task.ID, err)
		}
	}
	return nil
}

// Parent returns the parent of exec, or nil for a process instance.
func (t *Tree) Parent(ctx context.Context, exec *domain.Execution) (*domain.Execution, error) {
	if exec.ParentID == "" {
		return nil, nil
	}
	return t.Get(ctx, exec.ParentID)
}

// FindMultiInstanceRoot walks up from exec (inclusive) to the first
// multi-instance root. It returns nil when the tree root is reached first.
// exec is re-loaded, so a stale copy yields a *domain.StaleNodeError.
func (t *Tree) FindMultiInstanceRoot(ctx context.Context, exec *domain.Execution) (*domain.Execution, error) {
	cur, err := t.Get(ctx, exec.ID)
	if err != nil {
		return nil, err
	}
	for cur != nil {
		if cur.IsMultiInstanceRoot {
			return cur, nil
		}
		parent, err := t.Parent(ctx, cur)
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	return nil, nil
}

// GetLocalVariable resolves a multi-instance variable: the node itself and,
// unless the node is a multi-instance root, at most two ancestor levels.
// The walk stops at the first multi-instance root it meets.
func (t *Tree) GetLocalVariable(ctx context.Context, exec *domain.Execution, name string) (any, bool, error) {
	if v, ok := exec.LocalVariable(name); ok {
		return v, true, nil
	}
	if exec.IsMultiInstanceRoot {
		return nil, false, nil
	}

	parent, err := t.Parent(ctx, exec)
	if err != nil || parent == nil {
		return nil, false, err
	}
	if v, ok := parent.LocalVariable(name); ok {
		return v, true, nil
	}
	if parent.IsMultiInstanceRoot {
		return nil, false, nil
	}

	grandparent, err := t.Parent(ctx, parent)
	if err != nil || grandparent == nil {
		return nil, false, err
	}
	v, ok := grandparent.LocalVariable(name)
	return v, ok, nil
}

// GetLocalInt is GetLocalVariable converted to an int, 0 when unset.
func (t *Tree) GetLocalInt(ctx context.Context, exec *domain.Execution, name string) (int, error) {
	v, ok, err := t.GetLocalVariable(ctx, exec, name)
	if err != nil || !ok {
		return 0, err
	}
	n, ok := domain.ToInt(v)
	if !ok {
		return 0, domain.IllegalArgument("variable '%s' is not a number: %v", name, v)
	}
	return n, nil
}

// GetVariable resolves name on exec or any ancestor, without depth limit.
func (t *Tree) GetVariable(ctx context.Context, exec *domain.Execution, name string) (any, bool, error) {
	for cur := exec; cur != nil; {
		if v, ok := cur.LocalVariable(name); ok {
			return v, true, nil
		}
		parent, err := t.Parent(ctx, cur)
		if err != nil {
			return nil, false, err
		}
		cur = parent
	}
	return nil, false, nil
}

// SetLocalVariable sets a variable on exec itself and saves it.
func (t *Tree) SetLocalVariable(ctx context.Context, exec *domain.Execution, name string, value any) error {
	exec.SetLocalVariable(name, value)
	return t.executions.Save(ctx, exec)
}

// SetVariable stores value on the nearest execution that already defines
// name, or on the process instance when none does.
func (t *Tree) SetVariable(ctx context.Context, exec *domain.Execution, name string, value any) error {
	var top *domain.Execution
	for cur := exec; cur != nil; {
		if _, ok := cur.LocalVariable(name); ok {
			return t.SetLocalVariable(ctx, cur, name, value)
		}
		top = cur
		parent, err := t.Parent(ctx, cur)
		if err != nil {
			return err
		}
		cur = parent
	}
	return t.SetLocalVariable(ctx, top, name, value)
}

// Inactivate marks exec inactive.
func (t *Tree) Inactivate(ctx context.Context, exec *domain.Execution) error {
	exec.IsActive = false
	return t.executions.Save(ctx, exec)
}

// SetCurrentElement moves exec to a node or flow.
func (t *Tree) SetCurrentElement(ctx context.Context, exec *domain.Execution, elementID string) error {
	exec.CurrentElementID = elementID
	return t.executions.Save(ctx, exec)
}

// ForceUpdate bumps the revision of exec so that concurrent writers working
// from an older copy observe a conflict.
func (t *Tree) ForceUpdate(ctx context.Context, exec *domain.Execution) error {
	exec.Revision++
	return t.executions.Save(ctx, exec)
}

// LockFirstScope force-updates the nearest scope ancestor of exec.
func (t *Tree) LockFirstScope(ctx context.Context, exec *domain.Execution) error {
	for cur := exec; cur != nil; {
		parent, err := t.Parent(ctx, cur)
		if err != nil {
			return err
		}
		if parent != nil && parent.IsScope {
			return t.ForceUpdate(ctx, parent)
		}
		cur = parent
	}
	return nil
}

// Scope returns the variable scope visible from exec.
func (t *Tree) Scope(ctx context.Context, exec *domain.Execution) (*Scope, error) {
	var chain []*domain.Execution
	for cur := exec; cur != nil; {
		chain = append(chain, cur)
		parent, err := t.Parent(ctx, cur)
		if err != nil {
			return nil, err
		}
		cur = parent
	}
	return &Scope{chain: chain}, nil
}

// Scope is a snapshot of the variables visible from one execution.
// It implements ports.VariableScope.
type Scope struct {
	chain []*domain.Execution
}

// Variable resolves name from the nearest execution defining it.
func (s *Scope) Variable(name string) (any, bool) {
	for _, e := range s.chain {
		if v, ok := e.LocalVariable(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Variables flattens the chain, nearest scope winning.
func (s *Scope) Variables() map[string]any {
	out := make(map[string]any)
	for i := len(s.chain) - 1; i >= 0; i-- {
		for k, v := range s.chain[i].Variables {
			out[k] = v
		}
	}
	return out
}
