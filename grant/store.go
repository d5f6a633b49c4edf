package grant

import (
	"context"
	"time"

	"github.com/arborian/actiongate/id"
)

// Store defines persistence operations for permission grants.
type Store interface {
	// CreateGrant persists a new grant.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves a grant by ID.
	GetGrant(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// RevokeGrant marks a grant as revoked. Idempotent.
	RevokeGrant(ctx context.Context, grantID id.GrantID) error

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// GetActiveGrants returns grants for (handlerID, permissionName) where
	// Revoked is false and ExpiresAt is nil or strictly after now. It does
	// not perform scope matching — that is the caller's (PermissionManager's)
	// responsibility.
	GetActiveGrants(ctx context.Context, handlerID, permissionName string, now time.Time) ([]*Grant, error)

	// DeleteExpiredGrants removes grants that expired before the given time.
	DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error)
}
