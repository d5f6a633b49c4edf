package handler

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds registered handlers, keyed by handler ID. Permission
// names are scoped to their owning handler — GrantPermission/
// CheckPermission key on (handlerID, permissionName), not on name alone
// — so two different handlers are free to each declare a permission
// with the same name (e.g. both declaring "read"). Register only
// rejects a name declared twice within the same handler's own list.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler under its declared ID. Returns ErrDuplicateHandler
// if the ID is already registered, or ErrDuplicatePermission if the handler
// declares the same permission name more than once in its own Permissions().
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := h.HandlerID()
	if _, exists := r.handlers[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHandler, id)
	}

	seen := make(map[string]struct{}, len(h.Permissions()))
	for _, perm := range h.Permissions() {
		if _, dup := seen[perm.Name]; dup {
			return fmt.Errorf("%w: %q declared more than once by handler %q", ErrDuplicatePermission, perm.Name, id)
		}
		seen[perm.Name] = struct{}{}
	}

	r.handlers[id] = h

	return nil
}

// Get returns the handler registered under id, or false if none exists.
func (r *Registry) Get(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// List returns all registered handlers sorted by ID, for deterministic
// iteration (e.g. in ListToolSchemas).
func (r *Registry) List() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Handler, len(ids))
	for i, id := range ids {
		out[i] = r.handlers[id]
	}
	return out
}

// FindPermission returns the PermissionDef named name declared by the
// handler registered under handlerID, or false if that handler isn't
// registered or doesn't declare a permission with that name.
func (r *Registry) FindPermission(handlerID, name string) (PermissionDef, bool) {
	h, ok := r.Get(handlerID)
	if !ok {
		return PermissionDef{}, false
	}
	for _, perm := range h.Permissions() {
		if perm.Name == name {
			return perm, true
		}
	}
	return PermissionDef{}, false
}
