package runtime

import "sync"

type operationKind int

const (
	opContinueProcess operationKind = iota
	opTakeOutgoingFlows
	opContinueMultiInstance
)

func (k operationKind) String() string {
	switch k {
	case opContinueProcess:
		return "continue_process"
	case opTakeOutgoingFlows:
		return "take_outgoing_flows"
	case opContinueMultiInstance:
		return "continue_multi_instance"
	default:
		return "unknown"
	}
}

type operation struct {
	kind        operationKind
	executionID string
	rootID      string
	loopCounter int
}

// Agenda is the FIFO work queue of one engine command. It implements
// ports.Agenda; planned operations run once the current one returns.
type Agenda struct {
	mu  sync.Mutex
	ops []operation
}

// NewAgenda creates an empty agenda.
func NewAgenda() *Agenda {
	return &Agenda{}
}

func (a *Agenda) plan(op operation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ops = append(a.ops, op)
}

// PlanContinueProcess schedules the execution of the element an execution
// is positioned at.
func (a *Agenda) PlanContinueProcess(executionID string) {
	a.plan(operation{kind: opContinueProcess, executionID: executionID})
}

// PlanTakeOutgoingFlows schedules leaving the current element.
func (a *Agenda) PlanTakeOutgoingFlows(executionID string) {
	a.plan(operation{kind: opTakeOutgoingFlows, executionID: executionID})
}

// PlanContinueMultiInstance schedules one instance of a multi-instance
// activity.
func (a *Agenda) PlanContinueMultiInstance(executionID, rootID string, loopCounter int) {
	a.plan(operation{kind: opContinueMultiInstance, executionID: executionID, rootID: rootID, loopCounter: loopCounter})
}

// Len returns the number of pending operations.
func (a *Agenda) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ops)
}

func (a *Agenda) next() (operation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.ops) == 0 {
		return operation{}, false
	}
	op := a.ops[0]
	a.ops = a.ops[1:]
	return op, true
}
