// Package action defines the ActionRequest entity and its lifecycle.
package action

import (
	"time"

	"github.com/arborian/actiongate/id"
)

// Status is the lifecycle state of an ActionRequest.
type Status string

// Status values. Expired is reserved by the wire format but the orchestrator
// never transitions an action into it: expiration is a grant-level concept,
// not an action-level one.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether status is one from which no further transition occurs.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Request is a single request to execute a named action against a handler,
// tracked through PENDING → RUNNING → COMPLETED/FAILED (or PENDING → FAILED
// on explicit denial).
type Request struct {
	ID                     id.ActionID       `json:"id" db:"id"`
	HandlerID              string            `json:"handler_id" db:"handler_id"`
	ActionName             string            `json:"action_name" db:"action_name"`
	Params                 map[string]any    `json:"params,omitempty" db:"params"`
	RequiredPermissionName string            `json:"required_permission_name,omitempty" db:"required_permission_name"`
	RequiredScope          map[string]string `json:"required_scope,omitempty" db:"required_scope"`
	Status                 Status            `json:"status" db:"status"`
	Result                 any               `json:"result,omitempty" db:"result"`
	Error                  string            `json:"error,omitempty" db:"error"`
	CreatedAt              time.Time         `json:"created_at" db:"created_at"`
	CompletedAt            *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}

// ListFilter contains filters for listing action requests.
type ListFilter struct {
	HandlerID string `json:"handler_id,omitempty"`
	Status    Status `json:"status,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
