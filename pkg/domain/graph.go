package domain

import (
	"fmt"
	"slices"
)

// ElementType identifies the behavior attached to a flow node.
type ElementType string

const (
	ElementStartEvent       ElementType = "startEvent"
	ElementEndEvent         ElementType = "endEvent"
	ElementUserTask         ElementType = "userTask"
	ElementExclusiveGateway ElementType = "exclusiveGateway"
)

// Dynamic element id prefixes used when tasks are inserted into a live graph.
const (
	DynamicTaskPrefix = "dynamicTask"
	DynamicFlowPrefix = "dynamicFlow"
)

// DynamicTaskPriority is the priority given to tasks inserted at runtime.
const DynamicTaskPriority = "6"

// LoopCharacteristics turns an activity into a multi-instance activity.
type LoopCharacteristics struct {
	Sequential           bool   `json:"sequential,omitempty" yaml:"sequential,omitempty"`
	CompletionCondition  string `json:"completion_condition,omitempty" yaml:"completion_condition,omitempty"`
	LoopCardinality      string `json:"loop_cardinality,omitempty" yaml:"loop_cardinality,omitempty"`
	Collection           string `json:"collection,omitempty" yaml:"collection,omitempty"`
	CollectionString     string `json:"collection_string,omitempty" yaml:"collection_string,omitempty"`
	ElementVariable      string `json:"element_variable,omitempty" yaml:"element_variable,omitempty"`
	ElementIndexVariable string `json:"element_index_variable,omitempty" yaml:"element_index_variable,omitempty"`
}

// IndexVariable returns the per-instance loop index variable name.
func (l *LoopCharacteristics) IndexVariable() string {
	if l == nil || l.ElementIndexVariable == "" {
		return VarLoopCounter
	}
	return l.ElementIndexVariable
}

// ApproverNoStrategy decides what happens when a user task resolves no candidate.
// A Strategy of "0" or "true" skips the task. Any other non-blank strategy
// resolves candidates from Expression.
type ApproverNoStrategy struct {
	Strategy   string `json:"strategy" yaml:"strategy"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Skips reports whether the strategy skips the task outright.
func (a *ApproverNoStrategy) Skips() bool {
	return a != nil && (a.Strategy == "0" || a.Strategy == "true")
}

// UserTask holds the assignment expressions of a user task node.
type UserTask struct {
	Assignee                 string              `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	Owner                    string              `json:"owner,omitempty" yaml:"owner,omitempty"`
	Priority                 string              `json:"priority,omitempty" yaml:"priority,omitempty"`
	CandidateUsers           []string            `json:"candidate_users,omitempty" yaml:"candidate_users,omitempty"`
	CandidateGroups          []string            `json:"candidate_groups,omitempty" yaml:"candidate_groups,omitempty"`
	CustomUserIdentityLinks  map[string][]string `json:"custom_user_identity_links,omitempty" yaml:"custom_user_identity_links,omitempty"`
	CustomGroupIdentityLinks map[string][]string `json:"custom_group_identity_links,omitempty" yaml:"custom_group_identity_links,omitempty"`
	ApproverNoStrategy       *ApproverNoStrategy `json:"approver_no_strategy,omitempty" yaml:"approver_no_strategy,omitempty"`
}

func (u *UserTask) clone() *UserTask {
	if u == nil {
		return nil
	}
	c := *u
	c.CandidateUsers = slices.Clone(u.CandidateUsers)
	c.CandidateGroups = slices.Clone(u.CandidateGroups)
	c.CustomUserIdentityLinks = cloneLinks(u.CustomUserIdentityLinks)
	c.CustomGroupIdentityLinks = cloneLinks(u.CustomGroupIdentityLinks)
	if u.ApproverNoStrategy != nil {
		s := *u.ApproverNoStrategy
		c.ApproverNoStrategy = &s
	}
	return &c
}

func cloneLinks(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// FlowNode is an activity, event or gateway of a process graph.
// Incoming and Outgoing hold sequence flow ids in definition order.
type FlowNode struct {
	ID             string               `json:"id" yaml:"id"`
	Name           string               `json:"name,omitempty" yaml:"name,omitempty"`
	Type           ElementType          `json:"type" yaml:"type"`
	Incoming       []string             `json:"incoming,omitempty" yaml:"incoming,omitempty"`
	Outgoing       []string             `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
	DefaultFlow    string               `json:"default_flow,omitempty" yaml:"default_flow,omitempty"`
	SkipExpression string               `json:"skip_expression,omitempty" yaml:"skip_expression,omitempty"`
	EditState      EditState            `json:"edit_state,omitempty" yaml:"edit_state,omitempty"`
	Loop           *LoopCharacteristics `json:"loop,omitempty" yaml:"loop,omitempty"`
	UserTask       *UserTask            `json:"user_task,omitempty" yaml:"user_task,omitempty"`
}

// IsMultiInstance reports whether the node carries loop characteristics.
func (n *FlowNode) IsMultiInstance() bool {
	return n.Loop != nil
}

// Clone returns a deep copy of the node.
func (n *FlowNode) Clone() *FlowNode {
	c := *n
	c.Incoming = slices.Clone(n.Incoming)
	c.Outgoing = slices.Clone(n.Outgoing)
	if n.Loop != nil {
		l := *n.Loop
		c.Loop = &l
	}
	c.UserTask = n.UserTask.clone()
	return &c
}

// CopyAttributes overwrites the behavior-relevant attributes of n with the
// ones of other. Flow wiring of n is left untouched.
func (n *FlowNode) CopyAttributes(other *FlowNode) {
	n.Name = other.Name
	n.SkipExpression = other.SkipExpression
	n.EditState = other.EditState
	n.Loop = nil
	if other.Loop != nil {
		l := *other.Loop
		n.Loop = &l
	}
	n.UserTask = other.UserTask.clone()
}

// SequenceFlow connects two flow nodes.
// Priority is compared lexically; the lower value wins.
type SequenceFlow struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty"`
	SourceRef      string `json:"source" yaml:"source"`
	TargetRef      string `json:"target" yaml:"target"`
	Condition      string `json:"condition,omitempty" yaml:"condition,omitempty"`
	SkipExpression string `json:"skip_expression,omitempty" yaml:"skip_expression,omitempty"`
	Priority       string `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Graph is the executable model of one process definition.
type Graph struct {
	ID    string          `json:"id" yaml:"id"`
	Name  string          `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []*FlowNode     `json:"nodes" yaml:"nodes"`
	Flows []*SequenceFlow `json:"flows" yaml:"flows"`
}

// Node returns the flow node with the given id, or nil.
func (g *Graph) Node(id string) *FlowNode {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Flow returns the sequence flow with the given id, or nil.
func (g *Graph) Flow(id string) *SequenceFlow {
	for _, f := range g.Flows {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// HasElement reports whether id is used by a node or a flow.
func (g *Graph) HasElement(id string) bool {
	return g.Node(id) != nil || g.Flow(id) != nil
}

// AddNode appends a node to the graph.
func (g *Graph) AddNode(n *FlowNode) {
	g.Nodes = append(g.Nodes, n)
}

// AddFlow appends a sequence flow to the graph.
func (g *Graph) AddFlow(f *SequenceFlow) {
	g.Flows = append(g.Flows, f)
}

// OutgoingFlows returns the outgoing flows of a node in definition order.
func (g *Graph) OutgoingFlows(nodeID string) []*SequenceFlow {
	n := g.Node(nodeID)
	if n == nil {
		return nil
	}
	return g.flows(n.Outgoing)
}

// IncomingFlows returns the incoming flows of a node in definition order.
func (g *Graph) IncomingFlows(nodeID string) []*SequenceFlow {
	n := g.Node(nodeID)
	if n == nil {
		return nil
	}
	return g.flows(n.Incoming)
}

func (g *Graph) flows(ids []string) []*SequenceFlow {
	out := make([]*SequenceFlow, 0, len(ids))
	for _, id := range ids {
		if f := g.Flow(id); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// InitialNode returns the first start event of the graph.
func (g *Graph) InitialNode() *FlowNode {
	for _, n := range g.Nodes {
		if n.Type == ElementStartEvent {
			return n
		}
	}
	return nil
}

// NextTaskID returns the first unused id of the form dynamicTask<N>.
func (g *Graph) NextTaskID() string {
	return g.nextID(DynamicTaskPrefix)
}

// NextFlowID returns the first unused id of the form dynamicFlow<N>.
func (g *Graph) NextFlowID() string {
	return g.nextID(DynamicFlowPrefix)
}

func (g *Graph) nextID(prefix string) string {
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		if !g.HasElement(id) {
			return id
		}
	}
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		ID:    g.ID,
		Name:  g.Name,
		Nodes: make([]*FlowNode, 0, len(g.Nodes)),
		Flows: make([]*SequenceFlow, 0, len(g.Flows)),
	}
	for _, n := range g.Nodes {
		c.Nodes = append(c.Nodes, n.Clone())
	}
	for _, f := range g.Flows {
		fc := *f
		c.Flows = append(c.Flows, &fc)
	}
	return c
}
