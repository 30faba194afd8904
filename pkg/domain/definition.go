package domain

import "time"

// ProcessDefinition is a deployed, versioned process.
type ProcessDefinition struct {
	ID           string `json:"id" yaml:"id"`
	Key          string `json:"key" yaml:"key"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Version      int    `json:"version" yaml:"version"`
	TenantID     string `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	DeploymentID string `json:"deployment_id,omitempty" yaml:"deployment_id,omitempty"`
}

// HistoricProcessInstance is the audit record of a process instance.
type HistoricProcessInstance struct {
	ID                       string     `json:"id"`
	ProcessDefinitionID      string     `json:"process_definition_id"`
	ProcessDefinitionKey     string     `json:"process_definition_key"`
	ProcessDefinitionName    string     `json:"process_definition_name,omitempty"`
	ProcessDefinitionVersion int        `json:"process_definition_version"`
	DeploymentID             string     `json:"deployment_id,omitempty"`
	StartedAt                time.Time  `json:"started_at"`
	EndedAt                  *time.Time `json:"ended_at,omitempty"`
}

// PointTo copies the definition pointers of def onto the record.
func (h *HistoricProcessInstance) PointTo(def *ProcessDefinition) {
	h.ProcessDefinitionID = def.ID
	h.ProcessDefinitionKey = def.Key
	h.ProcessDefinitionName = def.Name
	h.ProcessDefinitionVersion = def.Version
	h.DeploymentID = def.DeploymentID
}
