// Package grant defines the PermissionGrant entity.
package grant

import (
	"time"

	"github.com/arborian/actiongate/id"
)

// Grant records that a handler is allowed to perform a named permission
// within a bounded scope, optionally expiring at a fixed point in time.
type Grant struct {
	ID             id.GrantID        `json:"id" db:"id"`
	HandlerID      string            `json:"handler_id" db:"handler_id"`
	PermissionName string            `json:"permission_name" db:"permission_name"`
	Scope          map[string]string `json:"scope,omitempty" db:"scope"`
	GrantedAt      time.Time         `json:"granted_at" db:"granted_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty" db:"expires_at"`
	GrantedBy      string            `json:"granted_by,omitempty" db:"granted_by"`
	Revoked        bool              `json:"revoked" db:"revoked"`
}

// IsExpired reports whether this grant has reached or passed its expiration
// time as of now. A grant with a nil ExpiresAt never expires.
func (g *Grant) IsExpired(now time.Time) bool {
	if g.ExpiresAt == nil {
		return false
	}
	return !now.Before(*g.ExpiresAt)
}

// Active reports whether the grant can currently authorize an action:
// not revoked and not expired as of now.
func (g *Grant) Active(now time.Time) bool {
	return !g.Revoked && !g.IsExpired(now)
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	HandlerID      string `json:"handler_id,omitempty"`
	PermissionName string `json:"permission_name,omitempty"`
	IncludeRevoked bool   `json:"include_revoked,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
}
