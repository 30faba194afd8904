package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/ports"
	"github.com/google/uuid"
)

// DefaultMaxSteps bounds the number of agenda operations one command may run.
const DefaultMaxSteps = 10000

// Stores groups the persistence ports the engine works on.
type Stores struct {
	Executions  ports.ExecutionStore
	Tasks       ports.TaskService
	History     ports.HistoryService
	Definitions ports.DefinitionRepository
}

// Engine executes process instances. It is safe for concurrent use, but
// callers must serialize commands touching the same process instance.
type Engine struct {
	stores    Stores
	graphs    *graph.Resolver
	evaluator ports.Evaluator
	tree      *Tree

	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	skip     bool
	newID    func() string
	now      func() time.Time
	maxSteps int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger configures the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers callbacks for engine events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithSkipExpressions enables skip expressions for every process instance.
func WithSkipExpressions(enabled bool) EngineOption {
	return func(e *Engine) {
		e.skip = enabled
	}
}

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		e.newID = newID
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewEngine creates an engine over the given stores.
func NewEngine(stores Stores, graphs *graph.Resolver, evaluator ports.Evaluator, opts ...EngineOption) *Engine {
	e := &Engine{
		stores:    stores,
		graphs:    graphs,
		evaluator: evaluator,
		logger:    logging.NewNop(),
		newID:     uuid.NewString,
		now:       time.Now,
		maxSteps:  DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tree = NewTree(stores.Executions, stores.Tasks, e.newID, e.now)
	return e
}

// Graphs returns the graph resolver of the engine.
func (e *Engine) Graphs() *graph.Resolver { return e.graphs }

// Definitions returns the definition repository of the engine.
func (e *Engine) Definitions() ports.DefinitionRepository { return e.stores.Definitions }

// NewContext creates the context of one command, with an empty agenda.
func (e *Engine) NewContext() *EngineContext {
	return &EngineContext{
		Tree:                   e.tree,
		Tasks:                  e.stores.Tasks,
		History:                e.stores.History,
		Graphs:                 e.graphs,
		Evaluator:              e.evaluator,
		Agenda:                 NewAgenda(),
		Hooks:                  e.hooks,
		Logger:                 e.logger,
		SkipExpressionsEnabled: e.skip,
		newID:                  e.newID,
	}
}

// Run drains the agenda of ec. Operations planned for executions that were
// deleted in the meantime are dropped.
func (e *Engine) Run(ctx context.Context, ec *EngineContext) error {
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		op, ok := ec.Agenda.next()
		if !ok {
			return nil
		}
		if steps >= e.maxSteps {
			return fmt.Errorf("agenda exceeded %d steps", e.maxSteps)
		}

		exec, err := ec.Tree.Get(ctx, op.executionID)
		if errors.Is(err, domain.ErrStaleNode) {
			ec.Logger.Debug("operation on deleted execution dropped", "operation", op.kind, "execution_id", op.executionID)
			continue
		}
		if err != nil {
			return err
		}

		if err := e.step(ctx, ec, op, exec); err != nil {
			return fmt.Errorf("%s on execution %s: %w", op.kind, exec.ID, err)
		}
	}
}

func (e *Engine) step(ctx context.Context, ec *EngineContext, op operation, exec *domain.Execution) error {
	switch op.kind {
	case opContinueProcess:
		return e.continueProcess(ctx, ec, exec)
	case opTakeOutgoingFlows:
		return takeOutgoingFlows(ctx, ec, exec)
	case opContinueMultiInstance:
		node, _, err := ec.Node(ctx, exec)
		if err != nil {
			return err
		}
		activity := NewActivity(node)
		if activity.MultiInstance == nil {
			return activity.Inner.Execute(ctx, ec, exec)
		}
		return activity.MultiInstance.ContinueInstance(ctx, ec, exec, op.loopCounter)
	default:
		return fmt.Errorf("unknown operation %d", op.kind)
	}
}

// continueProcess executes the element exec points at. An execution still
// on a sequence flow is first moved to the flow target.
func (e *Engine) continueProcess(ctx context.Context, ec *EngineContext, exec *domain.Execution) error {
	g, err := ec.Graph(ctx, exec)
	if err != nil {
		return err
	}
	if flow := g.Flow(exec.CurrentElementID); flow != nil {
		if err := ec.Tree.SetCurrentElement(ctx, exec, flow.TargetRef); err != nil {
			return err
		}
	}
	node := g.Node(exec.CurrentElementID)
	if node == nil {
		return fmt.Errorf("execution %s points at unknown element %q", exec.ID, exec.CurrentElementID)
	}

	if node.IsMultiInstance() {
		inside, err := e.insideMultiInstance(ctx, ec, exec)
		if err != nil {
			return err
		}
		if !inside {
			if exec, err = e.createMultiInstanceRoot(ctx, ec, exec); err != nil {
				return err
			}
		}
	}
	return NewActivity(node).Execute(ctx, ec, exec)
}

// insideMultiInstance reports whether exec is a multi-instance root or an
// instance of one, at the same element.
func (e *Engine) insideMultiInstance(ctx context.Context, ec *EngineContext, exec *domain.Execution) (bool, error) {
	if exec.IsMultiInstanceRoot {
		return true, nil
	}
	parent, err := ec.Tree.Parent(ctx, exec)
	if err != nil || parent == nil {
		return false, err
	}
	return parent.IsMultiInstanceRoot && parent.CurrentElementID == exec.CurrentElementID, nil
}

// createMultiInstanceRoot replaces exec by an inactive multi-instance root
// at the same element.
func (e *Engine) createMultiInstanceRoot(ctx context.Context, ec *EngineContext, exec *domain.Execution) (*domain.Execution, error) {
	parent, err := ec.Tree.Parent(ctx, exec)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("process instance %s cannot be a multi instance root", exec.ID)
	}
	if err := ec.Tree.Delete(ctx, exec, domain.DeleteReasonMultiInstanceEnd); err != nil {
		return nil, err
	}
	root, err := ec.Tree.CreateChild(ctx, parent, exec.CurrentElementID)
	if err != nil {
		return nil, err
	}
	root.IsMultiInstanceRoot = true
	root.IsActive = false
	if err := ec.Tree.Save(ctx, root); err != nil {
		return nil, err
	}
	return root, nil
}

// StartProcessInstance starts the definition with the given id and runs it
// until it waits on human tasks or ends.
func (e *Engine) StartProcessInstance(ctx context.Context, definitionID string, vars map[string]any) (*domain.Execution, error) {
	def, err := e.stores.Definitions.FindByID(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	return e.start(ctx, def, vars)
}

// StartProcessInstanceByKey starts the latest version of a definition.
func (e *Engine) StartProcessInstanceByKey(ctx context.Context, key, tenantID string, vars map[string]any) (*domain.Execution, error) {
	def, err := e.stores.Definitions.FindLatestByKey(ctx, key, tenantID)
	if err != nil {
		return nil, err
	}
	return e.start(ctx, def, vars)
}

func (e *Engine) start(ctx context.Context, def *domain.ProcessDefinition, vars map[string]any) (*domain.Execution, error) {
	ec := e.NewContext()
	g, err := ec.Graphs.Definition(ctx, def.ID, false)
	if err != nil {
		return nil, err
	}
	initial := g.InitialNode()
	if initial == nil {
		return nil, domain.IllegalArgument("process definition %s has no start event", def.ID)
	}

	root, err := ec.Tree.NewProcessInstance(ctx, def)
	if err != nil {
		return nil, err
	}
	for k, v := range vars {
		root.SetLocalVariable(k, v)
	}
	if err := ec.Tree.Save(ctx, root); err != nil {
		return nil, err
	}

	h := &domain.HistoricProcessInstance{ID: root.ID, StartedAt: root.CreatedAt}
	h.PointTo(def)
	if err := ec.History.Record(ctx, h); err != nil {
		return nil, err
	}

	child, err := ec.Tree.CreateChild(ctx, root, initial.ID)
	if err != nil {
		return nil, err
	}
	e.logger.Info("process instance started", "process_instance_id", root.ID, "definition_id", def.ID)

	ec.Agenda.PlanContinueProcess(child.ID)
	if err := e.Run(ctx, ec); err != nil {
		return root, err
	}
	return root, nil
}

// CompleteTask completes an open task, storing vars in the scope of its
// execution, and leaves the activity.
func (e *Engine) CompleteTask(ctx context.Context, taskID string, vars map[string]any) error {
	ec := e.NewContext()
	task, exec, node, err := e.taskContext(ctx, ec, taskID)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := ec.Tree.SetVariable(ctx, exec, name, vars[name]); err != nil {
			return err
		}
	}

	if err := ec.Tasks.DeleteTask(ctx, task.ID, domain.DeleteReasonCompleted); err != nil {
		return err
	}
	ec.emitTask(ctx, domain.EventTaskCompleted, exec, task)
	e.logger.Info("task completed", "task_id", task.ID, "activity", node.ID, "process_instance_id", task.ProcessInstanceID)

	if err := leaveActivity(ctx, ec, exec, node); err != nil {
		return err
	}
	return e.Run(ctx, ec)
}

// AddSignature adds approvers to the multi-instance activity executionID
// belongs to.
func (e *Engine) AddSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	return e.signature(ctx, executionID, func(ec *EngineContext, mi *MultiInstance, exec *domain.Execution) ([]string, error) {
		return mi.AddSignature(ctx, ec, exec, candidates)
	})
}

// RemoveSignature removes approvers from the multi-instance activity
// executionID belongs to.
func (e *Engine) RemoveSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	return e.signature(ctx, executionID, func(ec *EngineContext, mi *MultiInstance, exec *domain.Execution) ([]string, error) {
		return mi.RemoveSignature(ctx, ec, exec, candidates)
	})
}

func (e *Engine) signature(ctx context.Context, executionID string, fn func(*EngineContext, *MultiInstance, *domain.Execution) ([]string, error)) ([]string, error) {
	ec := e.NewContext()
	exec, err := ec.Tree.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	node, _, err := ec.Node(ctx, exec)
	if err != nil {
		return nil, err
	}
	activity := NewActivity(node)
	if activity.MultiInstance == nil {
		return nil, domain.IllegalArgument("activity '%s' is not a multi instance activity", node.ID)
	}
	out, err := fn(ec, activity.MultiInstance, exec)
	if err != nil {
		return nil, err
	}
	return out, e.Run(ctx, ec)
}

// JumpTo moves an execution to another element and runs it. An instance of
// a multi-instance activity takes the whole activity with it.
func (e *Engine) JumpTo(ctx context.Context, executionID, elementID string) error {
	ec := e.NewContext()
	exec, err := ec.Tree.Get(ctx, executionID)
	if err != nil {
		return err
	}

	root, err := ec.Tree.FindMultiInstanceRoot(ctx, exec)
	if err != nil {
		return err
	}
	if root != nil && root.CurrentElementID == exec.CurrentElementID {
		parent, err := ec.Tree.Parent(ctx, root)
		if err != nil {
			return err
		}
		if err := ec.Tree.DeleteSubtree(ctx, root, nil, domain.DeleteReasonMultiInstanceEnd); err != nil {
			return err
		}
		fresh, err := ec.Tree.CreateChild(ctx, parent, elementID)
		if err != nil {
			return err
		}
		ec.Agenda.PlanContinueProcess(fresh.ID)
	} else {
		if err := ec.Tree.DeleteTasks(ctx, exec.ID, domain.DeleteReasonTaskDeleted); err != nil {
			return err
		}
		if err := ec.Tree.SetCurrentElement(ctx, exec, elementID); err != nil {
			return err
		}
		ec.Agenda.PlanContinueProcess(exec.ID)
	}
	e.logger.Debug("execution moved", "execution_id", executionID, "element", elementID)
	return e.Run(ctx, ec)
}

// SkipTask deletes an open task and leaves its activity as if it was
// completed.
func (e *Engine) SkipTask(ctx context.Context, taskID string) error {
	ec := e.NewContext()
	_, exec, node, err := e.taskContext(ctx, ec, taskID)
	if err != nil {
		return err
	}
	if err := ec.Tree.DeleteTasks(ctx, exec.ID, domain.DeleteReasonTaskDeleted); err != nil {
		return err
	}
	if err := leaveActivity(ctx, ec, exec, node); err != nil {
		return err
	}
	return e.Run(ctx, ec)
}

// RefreshAssignments recomputes the identity links of an open task from
// the current graph.
func (e *Engine) RefreshAssignments(ctx context.Context, taskID string) error {
	ec := e.NewContext()
	task, _, node, err := e.taskContext(ctx, ec, taskID)
	if err != nil {
		return err
	}
	if node.Type != domain.ElementUserTask {
		return domain.IllegalArgument("element '%s' is not a user task", node.ID)
	}
	return (&userTask{node: node}).refreshAssignments(ctx, ec, task)
}

// PointTo moves a process instance and its history record to another
// definition.
func (e *Engine) PointTo(ctx context.Context, processInstanceID string, def *domain.ProcessDefinition) error {
	root, err := e.tree.Get(ctx, processInstanceID)
	if err != nil {
		return err
	}
	root.PointTo(def)
	if err := e.tree.Save(ctx, root); err != nil {
		return err
	}

	h, err := e.stores.History.Get(ctx, processInstanceID)
	if errors.Is(err, domain.ErrExecutionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	h.PointTo(def)
	return e.stores.History.Record(ctx, h)
}

// Restart discards every child execution of a process instance and runs it
// again from its start event. It returns the id of the new child execution.
func (e *Engine) Restart(ctx context.Context, processInstanceID string) (string, error) {
	ec := e.NewContext()
	root, err := ec.Tree.Get(ctx, processInstanceID)
	if err != nil {
		return "", err
	}
	if err := ec.Tree.DeleteChildren(ctx, root, domain.DeleteReasonUpgrade); err != nil {
		return "", err
	}
	g, err := ec.Graph(ctx, root)
	if err != nil {
		return "", err
	}
	initial := g.InitialNode()
	if initial == nil {
		return "", domain.IllegalArgument("graph of process instance %s has no start event", processInstanceID)
	}
	child, err := ec.Tree.CreateChild(ctx, root, initial.ID)
	if err != nil {
		return "", err
	}
	e.logger.Info("process instance restarted", "process_instance_id", processInstanceID, "definition_id", root.ProcessDefinitionID)

	ec.Agenda.PlanContinueProcess(child.ID)
	return child.ID, e.Run(ctx, ec)
}

func (e *Engine) taskContext(ctx context.Context, ec *EngineContext, taskID string) (*domain.Task, *domain.Execution, *domain.FlowNode, error) {
	task, err := ec.Tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, nil, err
	}
	exec, err := ec.Tree.Get(ctx, task.ExecutionID)
	if err != nil {
		return nil, nil, nil, err
	}
	node, _, err := ec.Node(ctx, exec)
	if err != nil {
		return nil, nil, nil, err
	}
	return task, exec, node, nil
}

// Execution returns one execution.
func (e *Engine) Execution(ctx context.Context, id string) (*domain.Execution, error) {
	return e.tree.Get(ctx, id)
}

// Executions returns every live execution of a process instance.
func (e *Engine) Executions(ctx context.Context, processInstanceID string) ([]*domain.Execution, error) {
	return e.stores.Executions.ByProcessInstance(ctx, processInstanceID)
}

// Tasks returns the open tasks of a process instance.
func (e *Engine) Tasks(ctx context.Context, processInstanceID string) ([]*domain.Task, error) {
	return e.stores.Tasks.FindByProcessInstance(ctx, processInstanceID)
}

// IdentityLinks returns the identity links of a task.
func (e *Engine) IdentityLinks(ctx context.Context, taskID string) ([]*domain.IdentityLink, error) {
	return e.stores.Tasks.IdentityLinks(ctx, taskID)
}

// History returns the audit record of a process instance.
func (e *Engine) History(ctx context.Context, processInstanceID string) (*domain.HistoricProcessInstance, error) {
	return e.stores.History.Get(ctx, processInstanceID)
}

// Task returns one open task.
func (e *Engine) Task(ctx context.Context, taskID string) (*domain.Task, error) {
	return e.stores.Tasks.GetTask(ctx, taskID)
}
