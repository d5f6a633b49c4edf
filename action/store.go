package action

import (
	"context"

	"github.com/arborian/actiongate/id"
)

// Store defines persistence operations for action requests.
type Store interface {
	// CreateAction persists a new action request.
	CreateAction(ctx context.Context, a *Request) error

	// GetAction retrieves an action request by ID.
	GetAction(ctx context.Context, actionID id.ActionID) (*Request, error)

	// UpdateAction persists the full current state of an action request,
	// including status, result, error, and completion timestamp.
	UpdateAction(ctx context.Context, a *Request) error

	// ListActions returns action requests matching the filter, most recent first.
	ListActions(ctx context.Context, filter *ListFilter) ([]*Request, error)

	// ListPendingActions returns all actions currently in StatusPending.
	ListPendingActions(ctx context.Context) ([]*Request, error)
}
