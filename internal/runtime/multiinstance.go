package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// MultiInstance drives the fan-out and fan-in of a looped activity.
//
// The parallel and sequential variants share the controller and differ in
// the functions below: how instances are created, how one instance
// completes, and what happens when approvers are added or removed at
// runtime.
type MultiInstance struct {
	node  *domain.FlowNode
	inner Inner

	createInstances func(ctx context.Context, ec *EngineContext, root *domain.Execution) (int, error)
	leave           func(ctx context.Context, ec *EngineContext, exec *domain.Execution) error
	beforeRemove    func(ctx context.Context, ec *EngineContext, root *domain.Execution, removed []string) error
	onAdd           func(ctx context.Context, ec *EngineContext, root *domain.Execution, added []string) error
	onRemove        func(ctx context.Context, ec *EngineContext, root *domain.Execution, removed []string) error
}

func (m *MultiInstance) indexVariable() string {
	return m.node.Loop.IndexVariable()
}

// Execute is called with the multi-instance root when the activity is
// entered, and with an instance execution when one instance resumes.
func (m *MultiInstance) Execute(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	_, started, err := ec.Tree.GetLocalVariable(ctx, exec, m.indexVariable())
	if err != nil {
		return err
	}
	if !started {
		return m.start(ctx, ec, exec)
	}

	index := 0
	if v, ok, err := ec.Tree.GetVariable(ctx, exec, domain.VarCandidateUsersIndex); err != nil {
		return err
	} else if ok {
		index, _ = domain.ToInt(v)
	}

	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root != nil {
		if err := ec.Tree.SetLocalVariable(ctx, root, domain.VarCandidateUsersIndex, index+1); err != nil {
			return err
		}
	}
	return m.inner.ExecuteInstance(ctx, ec, exec, index)
}

func (m *MultiInstance) start(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("execution %s of %s has no multi instance root", exec.ID, m.node.ID)
	}
	if err := ec.Tree.SetLocalVariable(ctx, root, domain.VarCandidateUsersIndex, 0); err != nil {
		return err
	}

	n, err := m.createInstances(ctx, ec, root)
	if err != nil {
		return err
	}
	ec.Logger.Debug("multi instance created", "activity", m.node.ID, "instances", n)

	switch n {
	case -1:
		return m.bypass(ctx, ec, root)
	case 0:
		return m.CleanupRoot(ctx, ec, root)
	}
	return nil
}

// bypass replaces the root by a single plain execution and runs the inner
// behavior once.
func (m *MultiInstance) bypass(ctx context.Context, ec *EngineContext, root *domain.Execution) error {
	parent, err := ec.Tree.Parent(ctx, root)
	if err != nil {
		return err
	}
	candidates, hasCandidates := root.LocalVariable(domain.VarNrOfCandidateUsers)

	if err := ec.Tree.DeleteSubtree(ctx, root, nil, domain.DeleteReasonMultiInstanceEnd); err != nil {
		return err
	}
	fresh, err := ec.Tree.CreateChild(ctx, parent, root.CurrentElementID)
	if err != nil {
		return err
	}
	if hasCandidates {
		if err := ec.Tree.SetLocalVariable(ctx, fresh, domain.VarNrOfCandidateUsers, candidates); err != nil {
			return err
		}
	}
	return m.inner.Execute(ctx, ec, fresh)
}

// ContinueInstance resumes one planned instance. For collection loops the
// element variable is bound to the item at loopCounter first.
func (m *MultiInstance) ContinueInstance(ctx context.Context, ec *EngineContext, exec *domain.Execution, loopCounter int) error {
	if m.node.Loop.ElementVariable != "" && (m.node.Loop.Collection != "" || m.node.Loop.CollectionString != "") {
		items, err := m.ResolveAndValidateCollection(ctx, ec, exec)
		if err != nil {
			return err
		}
		if loopCounter < len(items) {
			if err := ec.Tree.SetLocalVariable(ctx, exec, m.node.Loop.ElementVariable, items[loopCounter]); err != nil {
				return err
			}
		}
	}
	return m.Execute(ctx, ec, exec)
}

// Leave completes one instance.
func (m *MultiInstance) Leave(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	return m.leave(ctx, ec, exec)
}

// CompletionConditionSatisfied evaluates the completion condition in the
// scope of exec. Without a condition it is never satisfied.
func (m *MultiInstance) CompletionConditionSatisfied(ctx context.Context, ec *EngineContext, exec *domain.Execution) (bool, error) {
	cond := m.node.Loop.CompletionCondition
	if cond == "" {
		return false, nil
	}
	v, err := ec.Evaluate(ctx, exec, cond)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, &domain.InvalidExpressionError{
			Expression: cond,
			Reason:     fmt.Sprintf("completionCondition '%s' does not evaluate to a boolean value", cond),
		}
	}
	return b, nil
}

// CleanupRoot collapses the multi-instance activity back into a single
// execution that leaves the activity. trigger is the completing instance
// or the root itself. Calling it again after the root is gone is a no-op.
func (m *MultiInstance) CleanupRoot(ctx context.Context, ec *EngineContext, trigger *domain.Execution) error {
	trigger, err := ec.Tree.Get(ctx, trigger.ID)
	if errors.Is(err, domain.ErrStaleNode) {
		return nil
	}
	if err != nil {
		return err
	}
	root, err := ec.Tree.FindMultiInstanceRoot(ctx, trigger)
	if err != nil || root == nil {
		return err
	}

	var exclude []string
	if trigger.ID != root.ID {
		exclude = []string{trigger.ID}
	}
	if err := ec.Tree.DeleteSubtree(ctx, root, exclude, domain.DeleteReasonMultiInstanceEnd); err != nil {
		return err
	}
	if trigger.ID != root.ID {
		if err := ec.Tree.Delete(ctx, trigger, domain.DeleteReasonMultiInstanceEnd); err != nil {
			return err
		}
	}

	parent, err := ec.Tree.Parent(ctx, root)
	if err != nil {
		return err
	}
	fresh, err := ec.Tree.CreateChild(ctx, parent, root.CurrentElementID)
	if err != nil {
		return err
	}
	ec.Agenda.PlanTakeOutgoingFlows(fresh.ID)
	return nil
}

// complete fires the completion event and cleans up the root.
func (m *MultiInstance) complete(ctx context.Context, ec *EngineContext, trigger, root *domain.Execution, byCondition bool) error {
	if ec.Hooks.OnMultiInstanceCompleted != nil {
		t := domain.EventMultiInstanceCompleted
		if byCondition {
			t = domain.EventMultiInstanceCompletedWithCondition
		}
		total, _ := domain.ToInt(root.Variables[domain.VarNrOfInstances])
		active, _ := domain.ToInt(root.Variables[domain.VarNrOfActiveInstances])
		completed, _ := domain.ToInt(root.Variables[domain.VarNrOfCompletedInstances])
		ec.Hooks.OnMultiInstanceCompleted(ctx, &domain.MultiInstanceEvent{
			EventBase:              domain.NewEventBase(t, root),
			ActivityID:             m.node.ID,
			ActivityName:           m.node.Name,
			NrOfInstances:          total,
			NrOfActiveInstances:    active,
			NrOfCompletedInstances: completed,
		})
	}
	return m.CleanupRoot(ctx, ec, trigger)
}

// AddSignature adds approvers to a running multi-instance activity.
// exec is the root or any of its instances.
func (m *MultiInstance) AddSignature(ctx context.Context, ec *EngineContext, exec *domain.Execution, candidateExpr string) ([]string, error) {
	exec, err := ec.Tree.Get(ctx, exec.ID)
	if err != nil {
		return nil, err
	}
	root, err := m.rootOf(ctx, ec, exec)
	if err != nil {
		return nil, err
	}

	candidates, err := evaluateIdentities(ctx, ec, exec, []string{candidateExpr})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.IllegalArgument("candidates must not be empty")
	}

	current := cachedCandidates(root)
	var added []string
	for _, c := range candidates {
		if !slices.Contains(current, c) {
			added = append(added, c)
		}
	}
	if len(added) == 0 {
		return nil, domain.IllegalArgument("candidates already approvers: %s", domain.JoinCandidates(candidates))
	}

	total, active, _, err := m.counters(ctx, ec, root)
	if err != nil {
		return nil, err
	}
	n := len(added)
	root.SetLocalVariable(domain.VarCachedCandidates, domain.JoinCandidates(append(current, added...)))
	root.SetLocalVariable(domain.VarNrOfCandidateUsers, len(current)+n)
	root.SetLocalVariable(domain.VarNrOfInstances, total+n)
	root.SetLocalVariable(domain.VarNrOfActiveInstances, active+n)
	if err := ec.Tree.Save(ctx, root); err != nil {
		return nil, err
	}

	trigger := exec
	if exec.ID == root.ID {
		trigger = root
	}
	if trigger.ParentID != "" {
		if err := ec.Tree.Inactivate(ctx, trigger); err != nil {
			return nil, err
		}
	}
	if err := ec.Tree.LockFirstScope(ctx, trigger); err != nil {
		return nil, err
	}

	if err := m.onAdd(ctx, ec, root, added); err != nil {
		return nil, err
	}
	ec.Logger.Info("approvers added", "activity", m.node.ID, "candidates", added)
	return added, nil
}

// RemoveSignature removes approvers from a running multi-instance activity.
// The removed approvers must all be current approvers and at least one
// approver must remain.
func (m *MultiInstance) RemoveSignature(ctx context.Context, ec *EngineContext, exec *domain.Execution, candidateExpr string) ([]string, error) {
	exec, err := ec.Tree.Get(ctx, exec.ID)
	if err != nil {
		return nil, err
	}
	root, err := m.rootOf(ctx, ec, exec)
	if err != nil {
		return nil, err
	}

	removed, err := evaluateIdentities(ctx, ec, exec, []string{candidateExpr})
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, domain.IllegalArgument("candidates must not be empty")
	}

	current := cachedCandidates(root)
	for _, c := range removed {
		if !slices.Contains(current, c) {
			return nil, domain.IllegalArgument("removal candidates not part of current approvers: %s", domain.JoinCandidates(current))
		}
	}
	remaining := slices.DeleteFunc(slices.Clone(current), func(c string) bool {
		return slices.Contains(removed, c)
	})
	if len(remaining) == 0 {
		return nil, domain.IllegalArgument("at least one approver must remain")
	}
	if m.beforeRemove != nil {
		if err := m.beforeRemove(ctx, ec, root, removed); err != nil {
			return nil, err
		}
	}

	root.SetLocalVariable(domain.VarCachedCandidates, domain.JoinCandidates(remaining))
	root.SetLocalVariable(domain.VarNrOfCandidateUsers, len(remaining))
	if err := ec.Tree.Save(ctx, root); err != nil {
		return nil, err
	}

	if err := m.onRemove(ctx, ec, root, removed); err != nil {
		return nil, err
	}
	ec.Logger.Info("approvers removed", "activity", m.node.ID, "candidates", removed)
	return removed, nil
}

func (m *MultiInstance) rootOf(ctx context.Context, ec *EngineContext, exec *domain.Execution) (*domain.Execution, error) {
	if !m.node.IsMultiInstance() {
		return nil, domain.IllegalArgument("activity '%s' is not a multi instance activity", m.node.ID)
	}
	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, domain.IllegalArgument("execution %s is not part of a multi instance activity", exec.ID)
	}
	return root, nil
}

// counters reads total, active and completed instance counts of root.
func (m *MultiInstance) counters(ctx context.Context, ec *EngineContext, root *domain.Execution) (total, active, completed int, err error) {
	if total, err = ec.Tree.GetLocalInt(ctx, root, domain.VarNrOfInstances); err != nil {
		return
	}
	if active, err = ec.Tree.GetLocalInt(ctx, root, domain.VarNrOfActiveInstances); err != nil {
		return
	}
	completed, err = ec.Tree.GetLocalInt(ctx, root, domain.VarNrOfCompletedInstances)
	return
}

func setCounters(root *domain.Execution, total, active, completed int) {
	root.SetLocalVariable(domain.VarNrOfInstances, total)
	root.SetLocalVariable(domain.VarNrOfActiveInstances, active)
	root.SetLocalVariable(domain.VarNrOfCompletedInstances, completed)
}

func cachedCandidates(root *domain.Execution) []string {
	s, _ := root.LocalVariable(domain.VarCachedCandidates)
	str, _ := s.(string)
	return domain.ExtractCandidates(str)
}

// resolveNrOfInstances resolves the instance count from, in order, the loop
// cardinality, the collection, and the candidate users of the task. The
// candidate strategy returns -1 when at most one candidate resolves.
func (m *MultiInstance) resolveNrOfInstances(ctx context.Context, ec *EngineContext, root *domain.Execution) (int, error) {
	loop := m.node.Loop
	switch {
	case loop.LoopCardinality != "":
		return m.ResolveLoopCardinality(ctx, ec, root)
	case loop.Collection != "" || loop.CollectionString != "":
		items, err := m.ResolveAndValidateCollection(ctx, ec, root)
		if err != nil {
			return 0, err
		}
		return len(items), nil
	}

	var exprs []string
	if m.node.UserTask != nil {
		exprs = m.node.UserTask.CandidateUsers
	}
	candidates, err := evaluateIdentities(ctx, ec, root, exprs)
	if err != nil {
		return 0, err
	}
	root.SetLocalVariable(domain.VarNrOfCandidateUsers, len(candidates))
	if len(candidates) <= 1 {
		return -1, ec.Tree.Save(ctx, root)
	}
	root.SetLocalVariable(domain.VarCachedCandidates, domain.JoinCandidates(candidates))
	return len(candidates), ec.Tree.Save(ctx, root)
}

// ResolveLoopCardinality evaluates the loop cardinality, accepting
// non-negative numbers and numeric strings only.
func (m *MultiInstance) ResolveLoopCardinality(ctx context.Context, ec *EngineContext, exec *domain.Execution) (int, error) {
	expr := m.node.Loop.LoopCardinality
	v, err := ec.Evaluate(ctx, exec, expr)
	if err != nil {
		return 0, err
	}
	n, ok := domain.ToInt(v)
	if !ok {
		return 0, domain.IllegalArgument("Could not resolve loopCardinality expression '%s': not a number", expr)
	}
	if n < 0 {
		return 0, domain.IllegalArgument("loopCardinality expression '%s' resolved to %d, must be zero or more", expr, n)
	}
	return n, nil
}

// ResolveAndValidateCollection resolves the loop collection. The collection
// expression may yield a collection directly or the name of a variable
// holding one; the collection string is split like candidate lists.
func (m *MultiInstance) ResolveAndValidateCollection(ctx context.Context, ec *EngineContext, exec *domain.Execution) ([]any, error) {
	loop := m.node.Loop
	if loop.Collection == "" {
		v, err := ec.Evaluate(ctx, exec, loop.CollectionString)
		if err != nil {
			return nil, err
		}
		var out []any
		for _, c := range domain.ExtractCandidates(fmt.Sprint(v)) {
			out = append(out, c)
		}
		return out, nil
	}

	v, err := ec.Evaluate(ctx, exec, loop.Collection)
	if err != nil {
		return nil, err
	}
	if name, ok := v.(string); ok {
		resolved, found, err := ec.Tree.GetVariable(ctx, exec, name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.IllegalArgument("Variable '%s' was not found", name)
		}
		items, ok := toSlice(resolved)
		if !ok {
			return nil, domain.IllegalArgument("Variable '%s':%v is not a Collection", name, resolved)
		}
		return items, nil
	}
	items, ok := toSlice(v)
	if !ok {
		return nil, domain.IllegalArgument("collection expression '%s' does not resolve to a Collection", loop.Collection)
	}
	return items, nil
}

func toSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	var out []any
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, false
	}
	return out, true
}

// NewParallel creates the controller variant that starts every instance at
// once.
func NewParallel(node *domain.FlowNode, inner Inner) *MultiInstance {
	m := &MultiInstance{node: node, inner: inner}
	m.createInstances = m.createParallel
	m.leave = m.leaveParallel
	m.onAdd = m.addParallel
	m.onRemove = m.removeParallel
	return m
}

// NewSequential creates the controller variant that runs one instance at a
// time.
func NewSequential(node *domain.FlowNode, inner Inner) *MultiInstance {
	m := &MultiInstance{node: node, inner: inner}
	m.createInstances = m.createSequential
	m.leave = m.leaveSequential
	m.beforeRemove = m.checkNotStarted
	m.onAdd = m.addSequential
	m.onRemove = m.removeSequential
	return m
}

func (m *MultiInstance) createParallel(ctx context.Context, ec *EngineContext, root *domain.Execution) (int, error) {
	n, err := m.resolveNrOfInstances(ctx, ec, root)
	if err != nil || n < 0 {
		return n, err
	}
	setCounters(root, n, n, 0)
	if n > 0 {
		root.IsActive = false
	}
	if err := ec.Tree.Save(ctx, root); err != nil {
		return 0, err
	}

	children := make([]*domain.Execution, 0, n)
	for i := 0; i < n; i++ {
		child, err := ec.Tree.CreateChild(ctx, root, m.node.ID)
		if err != nil {
			return 0, err
		}
		if err := ec.Tree.SetLocalVariable(ctx, child, m.indexVariable(), i); err != nil {
			return 0, err
		}
		children = append(children, child)
	}
	for i, child := range children {
		ec.Agenda.PlanContinueMultiInstance(child.ID, root.ID, i)
	}
	return n, nil
}

func (m *MultiInstance) leaveParallel(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	exec, err := ec.Tree.Get(ctx, exec.ID)
	if err != nil {
		return err
	}
	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root == nil {
		ec.Agenda.PlanTakeOutgoingFlows(exec.ID)
		return nil
	}

	total, active, completed, err := m.counters(ctx, ec, root)
	if err != nil {
		return err
	}
	completed++
	active--
	root.SetLocalVariable(domain.VarNrOfCompletedInstances, completed)
	root.SetLocalVariable(domain.VarNrOfActiveInstances, active)
	if err := ec.Tree.Save(ctx, root); err != nil {
		return err
	}

	if err := ec.Tree.Inactivate(ctx, exec); err != nil {
		return err
	}
	if err := ec.Tree.LockFirstScope(ctx, exec); err != nil {
		return err
	}

	satisfied, err := m.CompletionConditionSatisfied(ctx, ec, root)
	if err != nil {
		return err
	}
	ec.Logger.Debug("multi instance completed one instance",
		"activity", m.node.ID, "total", total, "active", active, "completed", completed)

	if completed >= total || satisfied {
		return m.complete(ctx, ec, exec, root, satisfied && completed < total)
	}
	return nil
}

// addParallel starts one instance per new approver.
func (m *MultiInstance) addParallel(ctx context.Context, ec *EngineContext, root *domain.Execution, added []string) error {
	children, err := ec.Tree.Children(ctx, root.ID)
	if err != nil {
		return err
	}
	next := len(children)
	for _, candidate := range added {
		child, err := ec.Tree.CreateChild(ctx, root, m.node.ID)
		if err != nil {
			return err
		}
		child.SetLocalVariable(m.indexVariable(), next)
		child.SetLocalVariable(domain.VarLoopCandidateUser, candidate)
		if err := ec.Tree.Save(ctx, child); err != nil {
			return err
		}
		ec.Agenda.PlanContinueMultiInstance(child.ID, root.ID, next)
		next++
	}
	return nil
}

// removeParallel deletes the still active instances of removed approvers.
func (m *MultiInstance) removeParallel(ctx context.Context, ec *EngineContext, root *domain.Execution, removed []string) error {
	children, err := ec.Tree.Children(ctx, root.ID)
	if err != nil {
		return err
	}
	deleted := 0
	for _, child := range children {
		candidate, _ := child.LocalVariable(domain.VarLoopCandidateUser)
		name, _ := candidate.(string)
		if !slices.Contains(removed, name) {
			continue
		}
		open, err := ec.Tasks.FindByExecution(ctx, child.ID)
		if err != nil {
			return err
		}
		if !child.IsActive && len(open) == 0 {
			continue
		}
		if err := ec.Tree.DeleteSubtree(ctx, child, nil, domain.DeleteReasonTaskDeleted); err != nil {
			return err
		}
		deleted++
	}

	total, active, completed, err := m.counters(ctx, ec, root)
	if err != nil {
		return err
	}
	total -= deleted
	active -= deleted
	setCounters(root, total, active, completed)
	if err := ec.Tree.Save(ctx, root); err != nil {
		return err
	}

	if active <= 0 && completed >= total {
		return m.complete(ctx, ec, root, root, false)
	}
	return nil
}

func (m *MultiInstance) createSequential(ctx context.Context, ec *EngineContext, root *domain.Execution) (int, error) {
	n, err := m.resolveNrOfInstances(ctx, ec, root)
	if err != nil || n < 0 {
		return n, err
	}
	active := 0
	if n > 0 {
		active = 1
		root.IsActive = false
	}
	setCounters(root, n, active, 0)
	if err := ec.Tree.Save(ctx, root); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	child, err := ec.Tree.CreateChild(ctx, root, m.node.ID)
	if err != nil {
		return 0, err
	}
	if err := ec.Tree.SetLocalVariable(ctx, child, m.indexVariable(), 0); err != nil {
		return 0, err
	}
	ec.Agenda.PlanContinueMultiInstance(child.ID, root.ID, 0)
	return n, nil
}

func (m *MultiInstance) leaveSequential(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	exec, err := ec.Tree.Get(ctx, exec.ID)
	if err != nil {
		return err
	}
	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root == nil {
		ec.Agenda.PlanTakeOutgoingFlows(exec.ID)
		return nil
	}

	loopCounter, err := ec.Tree.GetLocalInt(ctx, exec, m.indexVariable())
	if err != nil {
		return err
	}
	loopCounter++

	total, _, completed, err := m.counters(ctx, ec, root)
	if err != nil {
		return err
	}
	completed++
	root.SetLocalVariable(domain.VarNrOfCompletedInstances, completed)
	if err := ec.Tree.Save(ctx, root); err != nil {
		return err
	}

	satisfied, err := m.CompletionConditionSatisfied(ctx, ec, root)
	if err != nil {
		return err
	}
	ec.Logger.Debug("multi instance completed one instance",
		"activity", m.node.ID, "loop_counter", loopCounter, "total", total, "completed", completed)

	if loopCounter >= total || satisfied {
		setCounters(root, total, 0, completed)
		if err := ec.Tree.Save(ctx, root); err != nil {
			return err
		}
		return m.complete(ctx, ec, exec, root, satisfied && loopCounter < total)
	}

	delete(exec.Variables, domain.VarLoopCandidateUser)
	exec.SetLocalVariable(m.indexVariable(), loopCounter)
	if err := ec.Tree.Save(ctx, exec); err != nil {
		return err
	}
	ec.Agenda.PlanContinueMultiInstance(exec.ID, root.ID, loopCounter)
	return nil
}

// addSequential queues the new approvers after the current ones. Only one
// instance is ever active, so the active count is restored.
func (m *MultiInstance) addSequential(ctx context.Context, ec *EngineContext, root *domain.Execution, added []string) error {
	root, err := ec.Tree.Get(ctx, root.ID)
	if err != nil {
		return err
	}
	total, active, completed, err := m.counters(ctx, ec, root)
	if err != nil {
		return err
	}
	setCounters(root, total, active-len(added), completed)
	return ec.Tree.Save(ctx, root)
}

// checkNotStarted rejects the removal of approvers whose instance already ran
// or is running.
func (m *MultiInstance) checkNotStarted(ctx context.Context, ec *EngineContext, root *domain.Execution, removed []string) error {
	started, err := ec.Tree.GetLocalInt(ctx, root, domain.VarCandidateUsersIndex)
	if err != nil {
		return err
	}
	current := cachedCandidates(root)
	var already []string
	for i, c := range current {
		if i < started && slices.Contains(removed, c) {
			already = append(already, c)
		}
	}
	if len(already) > 0 {
		return domain.IllegalArgument("approvers already started: %s", domain.JoinCandidates(already))
	}
	return nil
}

func (m *MultiInstance) removeSequential(ctx context.Context, ec *EngineContext, root *domain.Execution, removed []string) error {
	total, active, completed, err := m.counters(ctx, ec, root)
	if err != nil {
		return err
	}
	setCounters(root, total-len(removed), active, completed)
	return ec.Tree.Save(ctx, root)
}
