package domain

import "time"

// Identity link types.
const (
	IdentityLinkCandidate = "candidate"
	IdentityLinkAssignee  = "assignee"
	IdentityLinkOwner     = "owner"
)

// Task is an open human task created by a user task activity.
type Task struct {
	ID                string    `json:"id"`
	ExecutionID       string    `json:"execution_id"`
	ProcessInstanceID string    `json:"process_instance_id"`
	TaskDefinitionKey string    `json:"task_definition_key"`
	Name              string    `json:"name,omitempty"`
	Priority          int       `json:"priority"`
	Assignee          string    `json:"assignee,omitempty"`
	Owner             string    `json:"owner,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// IdentityLink relates a user or group to a task.
type IdentityLink struct {
	ID      string `json:"id"`
	TaskID  string `json:"task_id"`
	Type    string `json:"type"`
	UserID  string `json:"user_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}
