package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fangliji/flowable-engine/internal/config"
	"github.com/fangliji/flowable-engine/internal/logging"
	"github.com/fangliji/flowable-engine/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger from cfg.Log.
// It writes to Stderr so that command output on Stdout stays parseable.
func createLogger(cfg *config.Config) *slog.Logger {
	return logging.FromConfig(cfg.Log.Format, cfg.Log.Level)
}

// createDebugHooks logs every engine event at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivityCompleted: func(ctx context.Context, e *domain.ActivityEvent) {
			logger.Debug("Activity Completed", "process_instance_id", e.ProcessInstanceID, "activity_id", e.ActivityID, "type", e.ActivityType)
		},
		OnFlowTaken: func(ctx context.Context, e *domain.FlowEvent) {
			logger.Debug("Flow Taken", "process_instance_id", e.ProcessInstanceID, "flow_id", e.FlowID, "target_id", e.TargetID)
		},
		OnMultiInstanceCompleted: func(ctx context.Context, e *domain.MultiInstanceEvent) {
			logger.Debug("Multi-instance Completed", "process_instance_id", e.ProcessInstanceID, "activity_id", e.ActivityID,
				"completed", e.NrOfCompletedInstances, "total", e.NrOfInstances)
		},
		OnTaskCreated: func(ctx context.Context, e *domain.TaskEvent) {
			logger.Debug("Task Created", "process_instance_id", e.ProcessInstanceID, "task_id", e.TaskID, "key", e.TaskDefinitionKey)
		},
		OnTaskCompleted: func(ctx context.Context, e *domain.TaskEvent) {
			logger.Debug("Task Completed", "process_instance_id", e.ProcessInstanceID, "task_id", e.TaskID, "key", e.TaskDefinitionKey)
		},
		OnGraphMutated: func(ctx context.Context, e *domain.MutationEvent) {
			logger.Debug("Graph Mutated", "process_instance_id", e.ProcessInstanceID, "operation", e.Operation, "element_id", e.ElementID)
		},
		OnLeaseConflict: func(ctx context.Context, e *domain.LeaseEvent) {
			logger.Debug("Lease Conflict", "process_instance_id", e.ProcessInstanceID, "key", e.Key)
		},
	}
}
