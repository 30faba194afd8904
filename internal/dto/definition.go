package dto

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/fangliji/flowable-engine/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is the authoring format of a process definition.
// Node wiring is derived from the flow list, so nodes never repeat it.
type Definition struct {
	Key      string `json:"key" yaml:"key" mapstructure:"key"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	TenantID string `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty" mapstructure:"tenant_id"`
	Nodes    []Node `json:"nodes,omitempty" yaml:"nodes,omitempty" mapstructure:"nodes"`
	Flows    []Flow `json:"flows,omitempty" yaml:"flows,omitempty" mapstructure:"flows"`
}

type Node struct {
	ID             string `json:"id" yaml:"id" mapstructure:"id"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Type           string `json:"type" yaml:"type" mapstructure:"type"`
	DefaultFlow    string `json:"default_flow,omitempty" yaml:"default_flow,omitempty" mapstructure:"default_flow"`
	SkipExpression string `json:"skip_expression,omitempty" yaml:"skip_expression,omitempty" mapstructure:"skip_expression"`

	// User task attributes
	Assignee                 string              `json:"assignee,omitempty" yaml:"assignee,omitempty" mapstructure:"assignee"`
	Owner                    string              `json:"owner,omitempty" yaml:"owner,omitempty" mapstructure:"owner"`
	Priority                 string              `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
	CandidateUsers           []string            `json:"candidate_users,omitempty" yaml:"candidate_users,omitempty" mapstructure:"candidate_users"`
	CandidateGroups          []string            `json:"candidate_groups,omitempty" yaml:"candidate_groups,omitempty" mapstructure:"candidate_groups"`
	CustomUserIdentityLinks  map[string][]string `json:"custom_user_identity_links,omitempty" yaml:"custom_user_identity_links,omitempty" mapstructure:"custom_user_identity_links"`
	CustomGroupIdentityLinks map[string][]string `json:"custom_group_identity_links,omitempty" yaml:"custom_group_identity_links,omitempty" mapstructure:"custom_group_identity_links"`
	ApproverNoStrategy       *ApproverNoStrategy `json:"approver_no_strategy,omitempty" yaml:"approver_no_strategy,omitempty" mapstructure:"approver_no_strategy"`

	Loop *Loop `json:"loop,omitempty" yaml:"loop,omitempty" mapstructure:"loop"`
}

type ApproverNoStrategy struct {
	Strategy   string `json:"strategy,omitempty" yaml:"strategy,omitempty" mapstructure:"strategy"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty" mapstructure:"expression"`
}

type Loop struct {
	Sequential           bool   `json:"sequential,omitempty" yaml:"sequential,omitempty" mapstructure:"sequential"`
	CompletionCondition  string `json:"completion_condition,omitempty" yaml:"completion_condition,omitempty" mapstructure:"completion_condition"`
	LoopCardinality      string `json:"loop_cardinality,omitempty" yaml:"loop_cardinality,omitempty" mapstructure:"loop_cardinality"`
	Collection           string `json:"collection,omitempty" yaml:"collection,omitempty" mapstructure:"collection"`
	CollectionString     string `json:"collection_string,omitempty" yaml:"collection_string,omitempty" mapstructure:"collection_string"`
	ElementVariable      string `json:"element_variable,omitempty" yaml:"element_variable,omitempty" mapstructure:"element_variable"`
	ElementIndexVariable string `json:"element_index_variable,omitempty" yaml:"element_index_variable,omitempty" mapstructure:"element_index_variable"`
}

type Flow struct {
	ID             string `json:"id" yaml:"id" mapstructure:"id"`
	Name           string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	From           string `json:"from" yaml:"from" mapstructure:"from"`
	To             string `json:"to" yaml:"to" mapstructure:"to"`
	Condition      string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
	SkipExpression string `json:"skip_expression,omitempty" yaml:"skip_expression,omitempty" mapstructure:"skip_expression"`
	Priority       string `json:"priority,omitempty" yaml:"priority,omitempty" mapstructure:"priority"`
}

// Parse decodes a YAML (or JSON) definition document.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return Decode(raw)
}

// Decode decodes a loosely typed document. Scalars are accepted where
// strings are expected (priority: 1) and a single string where a list is
// expected (candidate_users: "${approvers}").
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       boolToString,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	if def.Key == "" {
		return nil, fmt.Errorf("invalid definition: missing key")
	}
	return &def, nil
}

// boolToString keeps "true" rather than the weak "1" for boolean scalars.
func boolToString(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(data.(bool)), nil
	}
	return data, nil
}

// ToGraph builds the executable graph. Incoming and outgoing flow ids follow
// the order of the flow list.
func (d *Definition) ToGraph() *domain.Graph {
	g := &domain.Graph{ID: d.Key, Name: d.Name}
	for _, n := range d.Nodes {
		g.AddNode(n.toDomain())
	}
	for _, f := range d.Flows {
		g.AddFlow(&domain.SequenceFlow{
			ID:             f.ID,
			Name:           f.Name,
			SourceRef:      f.From,
			TargetRef:      f.To,
			Condition:      f.Condition,
			SkipExpression: f.SkipExpression,
			Priority:       f.Priority,
		})
		if n := g.Node(f.From); n != nil {
			n.Outgoing = append(n.Outgoing, f.ID)
		}
		if n := g.Node(f.To); n != nil {
			n.Incoming = append(n.Incoming, f.ID)
		}
	}
	return g
}

// ProcessDefinition returns the deployment metadata of the document.
func (d *Definition) ProcessDefinition() domain.ProcessDefinition {
	return domain.ProcessDefinition{Key: d.Key, Name: d.Name, TenantID: d.TenantID}
}

func (n Node) toDomain() *domain.FlowNode {
	node := &domain.FlowNode{
		ID:             n.ID,
		Name:           n.Name,
		Type:           domain.ElementType(n.Type),
		DefaultFlow:    n.DefaultFlow,
		SkipExpression: n.SkipExpression,
	}
	if node.Type == domain.ElementUserTask {
		node.UserTask = &domain.UserTask{
			Assignee:                 n.Assignee,
			Owner:                    n.Owner,
			Priority:                 n.Priority,
			CandidateUsers:           n.CandidateUsers,
			CandidateGroups:          n.CandidateGroups,
			CustomUserIdentityLinks:  n.CustomUserIdentityLinks,
			CustomGroupIdentityLinks: n.CustomGroupIdentityLinks,
		}
		if s := n.ApproverNoStrategy; s != nil {
			node.UserTask.ApproverNoStrategy = &domain.ApproverNoStrategy{Strategy: s.Strategy, Expression: s.Expression}
		}
	}
	if l := n.Loop; l != nil {
		node.Loop = &domain.LoopCharacteristics{
			Sequential:           l.Sequential,
			CompletionCondition:  l.CompletionCondition,
			LoopCardinality:      l.LoopCardinality,
			Collection:           l.Collection,
			CollectionString:     l.CollectionString,
			ElementVariable:      l.ElementVariable,
			ElementIndexVariable: l.ElementIndexVariable,
		}
	}
	return node
}

// FromGraph converts a graph back to the authoring format.
func FromGraph(key, tenantID string, g *domain.Graph) *Definition {
	d := &Definition{Key: key, Name: g.Name, TenantID: tenantID}
	for _, n := range g.Nodes {
		node := Node{
			ID:             n.ID,
			Name:           n.Name,
			Type:           string(n.Type),
			DefaultFlow:    n.DefaultFlow,
			SkipExpression: n.SkipExpression,
		}
		if u := n.UserTask; u != nil {
			node.Assignee = u.Assignee
			node.Owner = u.Owner
			node.Priority = u.Priority
			node.CandidateUsers = u.CandidateUsers
			node.CandidateGroups = u.CandidateGroups
			node.CustomUserIdentityLinks = u.CustomUserIdentityLinks
			node.CustomGroupIdentityLinks = u.CustomGroupIdentityLinks
			if s := u.ApproverNoStrategy; s != nil {
				node.ApproverNoStrategy = &ApproverNoStrategy{Strategy: s.Strategy, Expression: s.Expression}
			}
		}
		if l := n.Loop; l != nil {
			node.Loop = &Loop{
				Sequential:           l.Sequential,
				CompletionCondition:  l.CompletionCondition,
				LoopCardinality:      l.LoopCardinality,
				Collection:           l.Collection,
				CollectionString:     l.CollectionString,
				ElementVariable:      l.ElementVariable,
				ElementIndexVariable: l.ElementIndexVariable,
			}
		}
		d.Nodes = append(d.Nodes, node)
	}
	for _, f := range g.Flows {
		d.Flows = append(d.Flows, Flow{
			ID:             f.ID,
			Name:           f.Name,
			From:           f.SourceRef,
			To:             f.TargetRef,
			Condition:      f.Condition,
			SkipExpression: f.SkipExpression,
			Priority:       f.Priority,
		})
	}
	return d
}
