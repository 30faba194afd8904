package graph

import (
	"slices"

	"github.com/fangliji/flowable-engine/pkg/domain"
)

// MaxIDLength bounds node and flow ids, matching the column width of the
// runtime tables that reference them.
const MaxIDLength = 255

// Validate checks the structural integrity of a graph. All problems are
// collected and returned as an *AggregateError.
func Validate(g *domain.Graph) error {
	v := &validator{graph: g, seen: make(map[string]bool)}
	v.run()
	if len(v.errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: v.errs}
}

type validator struct {
	graph *domain.Graph
	seen  map[string]bool
	errs  []error
}

func (v *validator) fail(id, reason string) {
	v.errs = append(v.errs, &ValidationError{ElementID: id, Reason: reason})
}

func (v *validator) run() {
	if v.graph.InitialNode() == nil {
		v.fail("", "graph has no start event")
	}
	for _, f := range v.graph.Flows {
		v.checkID(f.ID)
		v.checkFlow(f)
	}
	for _, n := range v.graph.Nodes {
		v.checkID(n.ID)
		v.checkNode(n)
	}
}

func (v *validator) checkID(id string) {
	switch {
	case id == "":
		v.fail("", "element without id")
		return
	case len(id) > MaxIDLength:
		v.fail(id, "id exceeds 255 characters")
	}
	if v.seen[id] {
		v.fail(id, "duplicate id")
	}
	v.seen[id] = true
}

func (v *validator) checkFlow(f *domain.SequenceFlow) {
	if v.graph.Node(f.SourceRef) == nil {
		v.fail(f.ID, "source "+f.SourceRef+" does not exist")
	}
	if v.graph.Node(f.TargetRef) == nil {
		v.fail(f.ID, "target "+f.TargetRef+" does not exist")
	}
}

func (v *validator) checkNode(n *domain.FlowNode) {
	for _, id := range n.Incoming {
		if f := v.graph.Flow(id); f == nil {
			v.fail(n.ID, "incoming flow "+id+" does not exist")
		} else if f.TargetRef != n.ID {
			v.fail(n.ID, "incoming flow "+id+" targets "+f.TargetRef)
		}
	}
	for _, id := range n.Outgoing {
		if f := v.graph.Flow(id); f == nil {
			v.fail(n.ID, "outgoing flow "+id+" does not exist")
		} else if f.SourceRef != n.ID {
			v.fail(n.ID, "outgoing flow "+id+" starts at "+f.SourceRef)
		}
	}

	if n.Type != domain.ElementStartEvent && len(n.Incoming) == 0 {
		v.fail(n.ID, "no incoming sequence flow")
	}

	switch n.Type {
	case domain.ElementExclusiveGateway:
		if len(n.Outgoing) == 0 {
			v.fail(n.ID, "exclusive gateway has no outgoing sequence flow")
		}
		if n.DefaultFlow != "" && !slices.Contains(n.Outgoing, n.DefaultFlow) {
			v.fail(n.ID, "default flow "+n.DefaultFlow+" is not an outgoing flow")
		}
	case domain.ElementUserTask, domain.ElementStartEvent, domain.ElementEndEvent:
	default:
		v.fail(n.ID, "unsupported element type "+string(n.Type))
	}

	if n.IsMultiInstance() {
		v.checkLoop(n)
	}
}

func (v *validator) checkLoop(n *domain.FlowNode) {
	l := n.Loop
	if l.LoopCardinality != "" || l.Collection != "" || l.CollectionString != "" {
		return
	}
	if n.UserTask != nil && len(n.UserTask.CandidateUsers) > 0 {
		return
	}
	v.fail(n.ID, "multi instance requires a loop cardinality, a collection or candidate users")
}
