package domain

import (
	"maps"
	"time"
)

// Execution is a node of the live execution tree of one process instance.
// The process instance itself is the execution without a parent.
type Execution struct {
	ID                  string `json:"id"`
	ParentID            string `json:"parent_id,omitempty"`
	ProcessInstanceID   string `json:"process_instance_id"`
	ProcessDefinitionID string `json:"process_definition_id"`

	// CurrentElementID points at a flow node or, while a flow is being
	// taken, at a sequence flow.
	CurrentElementID string `json:"current_element_id,omitempty"`

	IsScope             bool `json:"is_scope"`
	IsMultiInstanceRoot bool `json:"is_multi_instance_root"`
	IsActive            bool `json:"is_active"`
	IsEnded             bool `json:"is_ended,omitempty"`

	DeleteReason string         `json:"delete_reason,omitempty"`
	Variables    map[string]any `json:"variables,omitempty"`

	// Revision is bumped on every forced update so concurrent writers can
	// detect that the node changed under them.
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`

	// Definition pointers, only set on the process instance execution.
	ProcessDefinitionKey     string `json:"process_definition_key,omitempty"`
	ProcessDefinitionName    string `json:"process_definition_name,omitempty"`
	ProcessDefinitionVersion int    `json:"process_definition_version,omitempty"`
	DeploymentID             string `json:"deployment_id,omitempty"`
}

// IsProcessInstance reports whether the execution is the root of its tree.
func (e *Execution) IsProcessInstance() bool {
	return e.ParentID == ""
}

// LocalVariable returns a variable stored directly on the execution.
func (e *Execution) LocalVariable(name string) (any, bool) {
	v, ok := e.Variables[name]
	return v, ok
}

// SetLocalVariable stores a variable directly on the execution.
func (e *Execution) SetLocalVariable(name string, value any) {
	if e.Variables == nil {
		e.Variables = make(map[string]any)
	}
	e.Variables[name] = value
}

// Clone returns a copy that does not share the variable map.
func (e *Execution) Clone() *Execution {
	c := *e
	c.Variables = maps.Clone(e.Variables)
	return &c
}

// PointTo copies the definition pointers of def onto the execution.
func (e *Execution) PointTo(def *ProcessDefinition) {
	e.ProcessDefinitionID = def.ID
	e.ProcessDefinitionKey = def.Key
	e.ProcessDefinitionName = def.Name
	e.ProcessDefinitionVersion = def.Version
	e.DeploymentID = def.DeploymentID
}
