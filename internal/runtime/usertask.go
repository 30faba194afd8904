package runtime

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// DefaultTaskPriority is used when a user task has no priority expression.
const DefaultTaskPriority = 50

// userTask creates a human task and waits for it to be completed.
type userTask struct {
	node *domain.FlowNode
}

func (u *userTask) execute(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	skip, err := skipNode(ctx, ec, exec, u.node)
	if err != nil {
		return err
	}
	if skip {
		ec.Logger.Debug("user task skipped", "activity", u.node.ID, "execution_id", exec.ID)
		return leaveActivity(ctx, ec, exec, u.node)
	}
	candidates, err := u.candidates(ctx, ec, exec)
	if err != nil {
		return err
	}
	return u.createTask(ctx, ec, exec, candidates)
}

// executeInstance runs one instance of a multi-instance user task. When the
// root cached the candidate list, each instance is assigned one candidate:
// the one preset on the instance, or the one at index.
func (u *userTask) executeInstance(ctx context.Context, ec *EngineContext, exec *domain.Execution, index int) error {
	skip, err := skipNode(ctx, ec, exec, u.node)
	if err != nil {
		return err
	}
	if skip {
		return leaveActivity(ctx, ec, exec, u.node)
	}

	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root == nil {
		return u.execute(ctx, ec, exec)
	}
	cache := cachedCandidates(root)
	if len(cache) == 0 {
		candidates, err := u.candidates(ctx, ec, exec)
		if err != nil {
			return err
		}
		return u.createTask(ctx, ec, exec, candidates)
	}

	exec, err = ec.Tree.Get(ctx, exec.ID)
	if err != nil {
		return err
	}
	candidate, _ := exec.LocalVariable(domain.VarLoopCandidateUser)
	name, _ := candidate.(string)
	if name == "" {
		if index < 0 || index >= len(cache) {
			return domain.IllegalArgument("no candidate at index %d of %s", index, domain.JoinCandidates(cache))
		}
		name = cache[index]
		if err := ec.Tree.SetLocalVariable(ctx, exec, domain.VarLoopCandidateUser, name); err != nil {
			return err
		}
	}
	return u.createTask(ctx, ec, exec, []string{name})
}

func (u *userTask) candidates(ctx context.Context, ec *EngineContext, exec *domain.Execution) ([]string, error) {
	if u.node.UserTask == nil {
		return nil, nil
	}
	return evaluateIdentities(ctx, ec, exec, u.node.UserTask.CandidateUsers)
}

func (u *userTask) createTask(ctx context.Context, ec *EngineContext, exec *domain.Execution, candidates []string) error {
	attrs := u.node.UserTask
	if attrs == nil {
		attrs = &domain.UserTask{}
	}

	groups, err := evaluateIdentities(ctx, ec, exec, attrs.CandidateGroups)
	if err != nil {
		return err
	}
	assignee, err := evaluateString(ctx, ec, exec, attrs.Assignee)
	if err != nil {
		return err
	}
	owner, err := evaluateString(ctx, ec, exec, attrs.Owner)
	if err != nil {
		return err
	}

	if len(candidates) == 0 && len(groups) == 0 && assignee == "" && attrs.ApproverNoStrategy != nil {
		if attrs.ApproverNoStrategy.Skips() {
			ec.Logger.Info("user task has no approver, skipping", "activity", u.node.ID, "execution_id", exec.ID)
			return leaveActivity(ctx, ec, exec, u.node)
		}
		if attrs.ApproverNoStrategy.Expression != "" {
			if candidates, err = evaluateIdentities(ctx, ec, exec, []string{attrs.ApproverNoStrategy.Expression}); err != nil {
				return err
			}
		}
	}

	priority := DefaultTaskPriority
	if attrs.Priority != "" {
		v, err := ec.Evaluate(ctx, exec, attrs.Priority)
		if err != nil {
			return err
		}
		p, ok := domain.ToInt(v)
		if !ok {
			return domain.IllegalArgument("Priority does not resolve to a number: %s", attrs.Priority)
		}
		priority = p
	}

	name, err := evaluateString(ctx, ec, exec, u.node.Name)
	if err != nil {
		return err
	}

	task := &domain.Task{
		ID:                ec.newID(),
		ExecutionID:       exec.ID,
		ProcessInstanceID: exec.ProcessInstanceID,
		TaskDefinitionKey: u.node.ID,
		Name:              name,
		Priority:          priority,
		Assignee:          assignee,
		Owner:             owner,
		CreatedAt:         ec.Tree.now(),
	}
	if err := ec.Tasks.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task for %s: %w", u.node.ID, err)
	}

	links, err := u.identityLinks(ctx, ec, exec, task.ID, candidates, groups)
	if err != nil {
		return err
	}
	if len(links) > 0 {
		if err := ec.Tasks.AddIdentityLinks(ctx, links...); err != nil {
			return err
		}
	}

	ec.Logger.Debug("task created", "task_id", task.ID, "activity", u.node.ID, "candidates", candidates)
	ec.emitTask(ctx, domain.EventTaskCreated, exec, task)
	return nil
}

func (u *userTask) identityLinks(ctx context.Context, ec *EngineContext, exec *domain.Execution, taskID string, users, groups []string) ([]*domain.IdentityLink, error) {
	var links []*domain.IdentityLink
	for _, user := range users {
		links = append(links, &domain.IdentityLink{ID: ec.newID(), TaskID: taskID, Type: domain.IdentityLinkCandidate, UserID: user})
	}
	for _, group := range groups {
		links = append(links, &domain.IdentityLink{ID: ec.newID(), TaskID: taskID, Type: domain.IdentityLinkCandidate, GroupID: group})
	}
	if u.node.UserTask == nil {
		return links, nil
	}

	for _, linkType := range sortedKeys(u.node.UserTask.CustomUserIdentityLinks) {
		ids, err := evaluateIdentities(ctx, ec, exec, u.node.UserTask.CustomUserIdentityLinks[linkType])
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			links = append(links, &domain.IdentityLink{ID: ec.newID(), TaskID: taskID, Type: linkType, UserID: id})
		}
	}
	for _, linkType := range sortedKeys(u.node.UserTask.CustomGroupIdentityLinks) {
		ids, err := evaluateIdentities(ctx, ec, exec, u.node.UserTask.CustomGroupIdentityLinks[linkType])
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			links = append(links, &domain.IdentityLink{ID: ec.newID(), TaskID: taskID, Type: linkType, GroupID: id})
		}
	}
	return links, nil
}

// refreshAssignments recomputes the identity links of an open task after
// the user task definition was edited.
func (u *userTask) refreshAssignments(ctx context.Context, ec *EngineContext, task *domain.Task) error {
	exec, err := ec.Tree.Get(ctx, task.ExecutionID)
	if err != nil {
		return err
	}

	var users []string
	if candidate, ok := exec.LocalVariable(domain.VarLoopCandidateUser); ok {
		if name, _ := candidate.(string); name != "" {
			users = []string{name}
		}
	}
	if users == nil {
		if users, err = u.candidates(ctx, ec, exec); err != nil {
			return err
		}
	}
	var groups []string
	if u.node.UserTask != nil {
		if groups, err = evaluateIdentities(ctx, ec, exec, u.node.UserTask.CandidateGroups); err != nil {
			return err
		}
	}

	if err := ec.Tasks.DeleteIdentityLinks(ctx, task.ID); err != nil {
		return err
	}
	links, err := u.identityLinks(ctx, ec, exec, task.ID, users, groups)
	if err != nil || len(links) == 0 {
		return err
	}
	return ec.Tasks.AddIdentityLinks(ctx, links...)
}

// evaluateIdentities evaluates identity expressions and flattens the results
// into a distinct list. String results are split on commas.
func evaluateIdentities(ctx context.Context, ec *EngineContext, exec *domain.Execution, exprs []string) ([]string, error) {
	var out []string
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		v, err := ec.Evaluate(ctx, exec, e)
		if err != nil {
			return nil, err
		}
		out = appendIdentities(out, v)
	}
	return domain.DistinctCandidates(out), nil
}

func appendIdentities(out []string, v any) []string {
	switch t := v.(type) {
	case nil:
		return out
	case string:
		return append(out, domain.ExtractCandidates(t)...)
	case []string:
		for _, s := range t {
			out = append(out, domain.ExtractCandidates(s)...)
		}
		return out
	}
	if items, ok := toSlice(v); ok {
		for _, item := range items {
			out = appendIdentities(out, item)
		}
		return out
	}
	return append(out, fmt.Sprint(v))
}

func evaluateString(ctx context.Context, ec *EngineContext, exec *domain.Execution, expression string) (string, error) {
	if expression == "" {
		return "", nil
	}
	v, err := ec.Evaluate(ctx, exec, expression)
	if err != nil || v == nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
