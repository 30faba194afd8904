package flowable

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fangliji/flowable-engine/internal/command"
	"github.com/fangliji/flowable-engine/internal/dto"
	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/internal/mutation"
	"github.com/fangliji/flowable-engine/internal/runtime"
	"github.com/fangliji/flowable-engine/pkg/adapters/expression"
	"github.com/fangliji/flowable-engine/pkg/adapters/file"
	"github.com/fangliji/flowable-engine/pkg/adapters/memory"
	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/fangliji/flowable-engine/pkg/graph"
	"github.com/fangliji/flowable-engine/pkg/lock"
	"github.com/fangliji/flowable-engine/pkg/ports"
)

// Engine is the high-level entry point of the library.
// It wires the runtime, the graph mutator and the lease guard over a set of
// stores and serializes commands per process instance.
type Engine struct {
	runtime    *runtime.Engine
	dispatcher *command.Dispatcher
	resolver   *graph.Resolver
	guard      *lock.Guard
	defs       *memory.DefinitionRepository

	graphs      ports.GraphStore
	leases      ports.LeaseStore
	evaluator   ports.Evaluator
	lockTTL     time.Duration
	distributed bool
	requester   string
	skip        bool
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGraphStore selects where per-instance graphs are persisted (default: memory).
func WithGraphStore(store ports.GraphStore) Option {
	return func(e *Engine) {
		e.graphs = store
	}
}

// WithLeaseStore selects the backend of the read/write leases (default: memory).
func WithLeaseStore(store ports.LeaseStore) Option {
	return func(e *Engine) {
		e.leases = store
	}
}

// WithLockTTL overrides lock.DefaultTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithEvaluator replaces the default expression evaluator.
func WithEvaluator(ev ports.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// WithLifecycleHooks registers observability hooks. Calling it more than
// once chains the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithSkipExpressions enables skip expressions on every process instance.
func WithSkipExpressions(enabled bool) Option {
	return func(e *Engine) {
		e.skip = enabled
	}
}

// WithDistributedCommands also serializes commands through the lease store,
// for deployments where several engines share the same stores.
func WithDistributedCommands(enabled bool) Option {
	return func(e *Engine) {
		e.distributed = enabled
	}
}

// WithLeaseRequester sets the id written into the lease tokens of this
// engine. It defaults to the host name plus a random suffix.
func WithLeaseRequester(id string) Option {
	return func(e *Engine) {
		e.requester = id
	}
}

// New initializes an Engine. Without options every store lives in memory.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{lockTTL: lock.DefaultTTL}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.lockTTL <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive, got %s", eng.lockTTL)
	}

	// Ensure logger is initialized so that nil never reaches the components.
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.graphs == nil {
		eng.graphs = memory.NewGraphStore()
	}
	if eng.leases == nil {
		eng.leases = memory.NewLeaseStore()
	}
	if eng.evaluator == nil {
		eng.evaluator = expression.New()
	}

	eng.defs = memory.NewDefinitionRepository()
	eng.guard = lock.NewGuard(eng.leases,
		lock.WithTTL(eng.lockTTL),
		lock.WithRequester(eng.requester),
		lock.WithLogger(eng.logger),
		lock.WithHooks(eng.hooks),
	)
	eng.resolver = graph.NewResolver(eng.graphs, eng.defs,
		graph.WithGuard(eng.guard),
		graph.WithLogger(eng.logger),
	)

	eng.runtime = runtime.NewEngine(runtime.Stores{
		Executions:  memory.NewExecutionStore(),
		Tasks:       memory.NewTaskService(),
		History:     memory.NewHistoryService(),
		Definitions: eng.defs,
	}, eng.resolver, eng.evaluator,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithSkipExpressions(eng.skip),
	)

	mutator := mutation.NewMutator(eng.runtime, eng.resolver, eng.defs, eng.guard,
		mutation.WithLogger(eng.logger),
		mutation.WithHooks(eng.hooks),
	)

	dispatcherOpts := []command.Option{command.WithLogger(eng.logger)}
	if eng.distributed {
		dispatcherOpts = append(dispatcherOpts, command.WithLeases(eng.leases, command.DefaultLeaseTTL))
	}
	eng.dispatcher = command.NewDispatcher(eng.runtime, mutator, dispatcherOpts...)

	return eng, nil
}

// Deploy parses a YAML or JSON definition, validates its graph and stores
// it as the next version of its key.
func (e *Engine) Deploy(ctx context.Context, data []byte) (*domain.ProcessDefinition, error) {
	def, err := dto.Parse(data)
	if err != nil {
		return nil, domain.IllegalArgument("invalid definition: %v", err)
	}
	return e.DeployGraph(ctx, def.ProcessDefinition(), def.ToGraph())
}

// DeployGraph validates g and deploys it under def.
func (e *Engine) DeployGraph(ctx context.Context, def domain.ProcessDefinition, g *domain.Graph) (*domain.ProcessDefinition, error) {
	if err := graph.Validate(g); err != nil {
		return nil, &domain.IllegalArgumentError{Reason: "invalid graph " + def.Key, Err: err}
	}
	deployed, err := e.defs.Deploy(ctx, def, g)
	if err != nil {
		return nil, err
	}
	e.logger.Info("definition deployed", "key", deployed.Key, "version", deployed.Version, "definition_id", deployed.ID)
	return deployed, nil
}

// DeployDir deploys every definition file of dir.
func (e *Engine) DeployDir(ctx context.Context, dir string) ([]*domain.ProcessDefinition, error) {
	deployed, err := file.DeployDir(ctx, e.defs, dir)
	if err != nil {
		return nil, err
	}
	e.logger.Info("definitions deployed", "dir", dir, "count", len(deployed))
	return deployed, nil
}

// Definitions lists every deployed definition version.
func (e *Engine) Definitions(ctx context.Context) ([]domain.ProcessDefinition, error) {
	return e.defs.List(ctx)
}

// StartProcessInstance starts the latest version of key.
func (e *Engine) StartProcessInstance(ctx context.Context, key, tenantID string, vars map[string]any) (*domain.Execution, error) {
	return e.dispatcher.StartProcessInstanceByKey(ctx, key, tenantID, vars)
}

// StartProcessInstanceByID starts a specific definition version.
func (e *Engine) StartProcessInstanceByID(ctx context.Context, definitionID string, vars map[string]any) (*domain.Execution, error) {
	return e.dispatcher.StartProcessInstance(ctx, definitionID, vars)
}

// CompleteTask completes a user task with optional variables.
func (e *Engine) CompleteTask(ctx context.Context, taskID string, vars map[string]any) error {
	return e.dispatcher.CompleteTask(ctx, taskID, vars)
}

// AddSignature adds the comma separated candidates to the multi-instance
// activity that executionID belongs to and returns the users actually added.
func (e *Engine) AddSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	return e.dispatcher.AddSignature(ctx, executionID, candidates)
}

// RemoveSignature removes the comma separated candidates from a
// multi-instance activity and returns the users actually removed.
func (e *Engine) RemoveSignature(ctx context.Context, executionID, candidates string) ([]string, error) {
	return e.dispatcher.RemoveSignature(ctx, executionID, candidates)
}

// InsertTask inserts a user task "before" or "after" the anchor task and
// returns the id of the new task definition.
func (e *Engine) InsertTask(ctx context.Context, processInstanceID, anchorKey, position, name string, candidateUsers []string) (string, error) {
	pos, err := mutation.ParsePosition(position)
	if err != nil {
		return "", err
	}
	return e.dispatcher.InsertTask(ctx, processInstanceID, anchorKey, pos, name, candidateUsers)
}

// DeleteTask removes a task definition from the instance graph. taskID, when
// set, names the open task that is skipped.
func (e *Engine) DeleteTask(ctx context.Context, processInstanceID, taskKey, taskID string) error {
	return e.dispatcher.DeleteTask(ctx, processInstanceID, taskKey, taskID)
}

// UpdateTask changes the candidate users of a task definition. mode is
// "append" or "replace".
func (e *Engine) UpdateTask(ctx context.Context, processInstanceID, taskKey string, candidateUsers []string, mode string) error {
	m, err := mutation.ParseUpdateMode(mode)
	if err != nil {
		return err
	}
	return e.dispatcher.UpdateTask(ctx, processInstanceID, taskKey, candidateUsers, m)
}

// UpgradeInstance moves an instance onto definitionID, or onto the latest
// version of its own key when definitionID is empty.
func (e *Engine) UpgradeInstance(ctx context.Context, processInstanceID, definitionID string) (string, error) {
	return e.dispatcher.UpgradeInstance(ctx, processInstanceID, definitionID)
}

// Execution returns one execution.
func (e *Engine) Execution(ctx context.Context, id string) (*domain.Execution, error) {
	return e.runtime.Execution(ctx, id)
}

// Executions returns the execution tree of an instance.
func (e *Engine) Executions(ctx context.Context, processInstanceID string) ([]*domain.Execution, error) {
	return e.runtime.Executions(ctx, processInstanceID)
}

// Tasks returns the open tasks of an instance.
func (e *Engine) Tasks(ctx context.Context, processInstanceID string) ([]*domain.Task, error) {
	return e.runtime.Tasks(ctx, processInstanceID)
}

// IdentityLinks returns the candidates of a task.
func (e *Engine) IdentityLinks(ctx context.Context, taskID string) ([]*domain.IdentityLink, error) {
	return e.runtime.IdentityLinks(ctx, taskID)
}

// History returns the audit record of an instance.
func (e *Engine) History(ctx context.Context, processInstanceID string) (*domain.HistoricProcessInstance, error) {
	return e.runtime.History(ctx, processInstanceID)
}

// Graph returns the effective graph of an instance under its read lease.
func (e *Engine) Graph(ctx context.Context, processInstanceID string) (*domain.Graph, error) {
	h, err := e.runtime.History(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}
	return e.resolver.Read(ctx, processInstanceID, h.ProcessDefinitionID)
}

// LeaseStatus reports the leases currently held on an instance. Holder and
// since are filled when the token carries them.
type LeaseStatus struct {
	WriteHeld   bool       `json:"write_held"`
	WriteToken  string     `json:"write_token,omitempty"`
	WriteHolder string     `json:"write_holder,omitempty"`
	WriteSince  *time.Time `json:"write_since,omitempty"`
	ReadHeld    bool       `json:"read_held"`
	ReadToken   string     `json:"read_token,omitempty"`
	ReadHolder  string     `json:"read_holder,omitempty"`
	ReadSince   *time.Time `json:"read_since,omitempty"`
}

// Lease inspects the read and write leases of an instance.
func (e *Engine) Lease(ctx context.Context, processInstanceID string) (LeaseStatus, error) {
	var st LeaseStatus
	var err error
	if st.WriteToken, st.WriteHeld, err = e.leases.Get(ctx, lock.WriteKey(processInstanceID)); err != nil {
		return LeaseStatus{}, err
	}
	if st.ReadToken, st.ReadHeld, err = e.leases.Get(ctx, lock.ReadKey(processInstanceID)); err != nil {
		return LeaseStatus{}, err
	}
	st.WriteHolder, st.WriteSince = tokenHolder(st.WriteToken)
	st.ReadHolder, st.ReadSince = tokenHolder(st.ReadToken)
	return st, nil
}

func tokenHolder(token string) (string, *time.Time) {
	requester, at, ok := lock.ParseToken(token)
	if !ok {
		return "", nil
	}
	return requester, &at
}

// LockTTL returns the lifetime of the read/write leases.
func (e *Engine) LockTTL() time.Duration { return e.guard.TTL() }
