// Package memory provides an in-memory implementation of the composite
// store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/id"
	"github.com/arborian/actiongate/store"
)

// Compile-time interface checks.
var (
	_ grant.Store  = (*Store)(nil)
	_ action.Store = (*Store)(nil)
	_ store.Store  = (*Store)(nil)
)

// Store is a thread-safe in-memory store for grants and action requests.
type Store struct {
	mu      sync.RWMutex
	grants  map[string]*grant.Grant
	actions map[string]*action.Request
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		grants:  make(map[string]*grant.Grant),
		actions: make(map[string]*action.Request),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID.String()] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) RevokeGrant(_ context.Context, grantID id.GrantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return fmt.Errorf("grant %s: %w", grantID, errNotFound)
	}
	g.Revoked = true
	return nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*grant.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if filter != nil {
			if filter.HandlerID != "" && g.HandlerID != filter.HandlerID {
				continue
			}
			if filter.PermissionName != "" && g.PermissionName != filter.PermissionName {
				continue
			}
			if !filter.IncludeRevoked && g.Revoked {
				continue
			}
		}
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GrantedAt.Before(result[j].GrantedAt) })

	var limit, offset int
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return applyPagination(result, limit, offset), nil
}

func (s *Store) GetActiveGrants(_ context.Context, handlerID, permissionName string, now time.Time) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*grant.Grant
	for _, g := range s.grants {
		if g.HandlerID != handlerID || g.PermissionName != permissionName || g.Revoked {
			continue
		}
		if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
			continue
		}
		result = append(result, copyGrant(g))
	}
	return result, nil
}

func (s *Store) DeleteExpiredGrants(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, g := range s.grants {
		if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
			delete(s.grants, k)
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Action Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAction(_ context.Context, a *action.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[a.ID.String()] = copyAction(a)
	return nil
}

func (s *Store) GetAction(_ context.Context, actionID id.ActionID) (*action.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[actionID.String()]
	if !ok {
		return nil, fmt.Errorf("action %s: %w", actionID, errNotFound)
	}
	return copyAction(a), nil
}

func (s *Store) UpdateAction(_ context.Context, a *action.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.actions[a.ID.String()]
	if !ok {
		return fmt.Errorf("action %s: %w", a.ID, errNotFound)
	}
	if existing.Status.Terminal() {
		return fmt.Errorf("action %s: already %s: %w", a.ID, existing.Status, store.ErrInvalidTransition)
	}
	s.actions[a.ID.String()] = copyAction(a)
	return nil
}

func (s *Store) ListActions(_ context.Context, filter *action.ListFilter) ([]*action.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*action.Request, 0, len(s.actions))
	for _, a := range s.actions {
		if filter != nil {
			if filter.HandlerID != "" && a.HandlerID != filter.HandlerID {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
		}
		result = append(result, copyAction(a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })

	var limit, offset int
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return applyPagination(result, limit, offset), nil
}

func (s *Store) ListPendingActions(_ context.Context) ([]*action.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*action.Request
	for _, a := range s.actions {
		if a.Status == action.StatusPending {
			result = append(result, copyAction(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

var errNotFound = fmt.Errorf("not found")

func copyGrant(g *grant.Grant) *grant.Grant {
	cp := *g
	if g.Scope != nil {
		cp.Scope = make(map[string]string, len(g.Scope))
		for k, v := range g.Scope {
			cp.Scope[k] = v
		}
	}
	if g.ExpiresAt != nil {
		t := *g.ExpiresAt
		cp.ExpiresAt = &t
	}
	return &cp
}

func copyAction(a *action.Request) *action.Request {
	cp := *a
	if a.Params != nil {
		cp.Params = make(map[string]any, len(a.Params))
		for k, v := range a.Params {
			cp.Params[k] = v
		}
	}
	if a.RequiredScope != nil {
		cp.RequiredScope = make(map[string]string, len(a.RequiredScope))
		for k, v := range a.RequiredScope {
			cp.RequiredScope[k] = v
		}
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func applyPagination[T any](items []*T, limit, offset int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && len(items) > 0 {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
