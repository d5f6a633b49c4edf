package actiongate

import (
	"context"
	"fmt"
	"time"

	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/handler"
	"github.com/arborian/actiongate/id"
)

// Expiration describes how a grant's absolute ExpiresAt is computed at
// grant time, relative to the injected clock.
type Expiration int

const (
	// ExpirationOneHour sets ExpiresAt to now + 1 hour.
	ExpirationOneHour Expiration = iota
	// ExpirationToday sets ExpiresAt to the next UTC midnight strictly
	// after now.
	ExpirationToday
	// ExpirationIndefinite leaves ExpiresAt nil — the grant never expires.
	ExpirationIndefinite
)

// permissionManager evaluates scope-parameterized grants against required
// permissions, and manages the grant lifecycle (grant/revoke). It wraps
// every Check through the optional Cache: a hit returns without touching
// the store, and Grant/Revoke invalidate every cached result for that
// grant's handlerID before returning.
type permissionManager struct {
	store  grant.Store
	clk    clockSource
	cache  Cache
	config Config
	events *EventBus
}

// clockSource is the minimal surface permissionManager needs; satisfied by
// clock.Clock, kept unexported here to avoid importing clock in this file's
// public signature and to keep the dependency narrow.
type clockSource interface {
	Now() time.Time
}

// Check reports whether an active, unexpired, non-revoked grant exists for
// (handlerID, permissionName) whose scope is a key-subset of the check
// scope with equal values. An empty grant scope matches any check scope.
func (m *permissionManager) Check(ctx context.Context, handlerID, permissionName string, scope map[string]string) (bool, error) {
	if m.cache != nil && m.config.cacheEnabled() {
		if allowed, ok := m.cache.Get(ctx, handlerID, permissionName, scope); ok {
			return allowed, nil
		}
	}

	grants, err := m.store.GetActiveGrants(ctx, handlerID, permissionName, m.clk.Now())
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	allowed := false
	for _, g := range grants {
		if scopeMatches(g.Scope, scope) {
			allowed = true
			break
		}
	}

	if m.cache != nil && m.config.cacheEnabled() {
		m.cache.Set(ctx, handlerID, permissionName, scope, allowed)
	}

	return allowed, nil
}

// scopeMatches implements the asymmetric scope-subset rule: every key in
// grantScope must be present and equal in checkScope. Keys present in
// checkScope but absent from grantScope are ignored — the grant is wider
// than the check. The empty grant scope matches any check (handler-wide
// grant).
func scopeMatches(grantScope, checkScope map[string]string) bool {
	if len(grantScope) == 0 {
		return true
	}
	for k, v := range grantScope {
		if cv, ok := checkScope[k]; !ok || cv != v {
			return false
		}
	}
	return true
}

// Grant validates that scope keys are a subset of def.ParameterSchema,
// computes ExpiresAt via the injected clock, and persists a new grant for
// def.Name. Invalidates the cache for handlerID and emits
// TopicPermissionGranted before returning, preserving read-after-write
// visibility for the next Check.
func (m *permissionManager) Grant(ctx context.Context, handlerID string, def handler.PermissionDef, scope map[string]string, expiration Expiration, grantedBy string) (*grant.Grant, error) {
	for k := range scope {
		if _, ok := def.ParameterSchema[k]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScopeKey, k)
		}
	}

	now := m.clk.Now()
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		HandlerID:      handlerID,
		PermissionName: def.Name,
		Scope:          cloneScope(scope),
		GrantedAt:      now,
		ExpiresAt:      computeExpiresAt(expiration, now),
		GrantedBy:      grantedBy,
	}

	if err := m.store.CreateGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	if m.cache != nil {
		m.cache.InvalidateHandler(ctx, handlerID)
	}
	if m.events != nil {
		m.events.Emit(TopicPermissionGranted, g)
	}

	return g, nil
}

// Revoke marks a grant revoked. Idempotent: revoking an already-revoked
// grant is not an error (the law "revoke(id); revoke(id)" holds).
func (m *permissionManager) Revoke(ctx context.Context, grantID string) (*grant.Grant, error) {
	gid, err := id.ParseGrantID(grantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownGrant, err)
	}

	g, err := m.store.GetGrant(ctx, gid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownGrant, err)
	}

	if !g.Revoked {
		if err := m.store.RevokeGrant(ctx, gid); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		g.Revoked = true

		if m.cache != nil {
			m.cache.InvalidateHandler(ctx, g.HandlerID)
		}
		if m.events != nil {
			m.events.Emit(TopicPermissionRevoked, g)
		}
	}

	return g, nil
}

// ListGrants returns grants matching filter.
func (m *permissionManager) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	grants, err := m.store.ListGrants(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return grants, nil
}

// computeExpiresAt translates an Expiration enum value into an absolute
// ExpiresAt using now as the reference point. ONE_HOUR = now+1h; TODAY =
// next UTC midnight strictly after now; INDEFINITE = nil.
func computeExpiresAt(expiration Expiration, now time.Time) *time.Time {
	switch expiration {
	case ExpirationOneHour:
		t := now.Add(time.Hour)
		return &t
	case ExpirationToday:
		t := now.UTC()
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		return &midnight
	default:
		return nil
	}
}

func cloneScope(scope map[string]string) map[string]string {
	if scope == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(scope))
	for k, v := range scope {
		out[k] = v
	}
	return out
}
