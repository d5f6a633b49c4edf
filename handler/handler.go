// Package handler defines the Handler contract that action-gate plugins
// implement, plus a registry for looking handlers up by ID.
package handler

import (
	"context"

	"github.com/arborian/actiongate/action"
)

// PermissionDef is a permission defined by a handler. Permissions are
// fine-grained and parameterized: ParameterSchema describes what scope
// keys the permission accepts (e.g. {"recipient": "email address to send to"}).
type PermissionDef struct {
	Name            string
	Description     string
	HandlerID       string
	ParameterSchema map[string]string
}

// Handler is the contract an action-gate plugin must satisfy.
type Handler interface {
	// HandlerID returns the unique identifier for this handler.
	HandlerID() string

	// Name returns a human-readable name for this handler.
	Name() string

	// Permissions returns the permissions this handler defines.
	Permissions() []PermissionDef

	// GetRequiredPermission returns the (permissionName, scope) required to
	// run actionName with params, or ok=false if the action is always
	// permitted (the handler self-gates). Must be pure — no side effects.
	GetRequiredPermission(actionName string, params map[string]any) (permissionName string, scope map[string]string, ok bool)

	// Execute performs the named action with the given params and returns
	// a result value, or an error if execution fails.
	Execute(ctx context.Context, actionName string, params map[string]any) (any, error)

	// RenderRequest returns UI display data for an action request. Opaque
	// to the orchestrator; forwarded as-is to an embedding UI.
	RenderRequest(req *action.Request) map[string]any

	// AsToolSchema returns a tool definition for AI agent registration.
	AsToolSchema() map[string]any
}

// Base provides default implementations of the non-Execute Handler methods,
// mirroring the original ABC's default method bodies (get_required_permission,
// render_request, as_tool_schema). Embed it in a concrete handler and
// override any method that needs custom behavior.
type Base struct {
	ID_   string
	Name_ string
	Perms []PermissionDef
}

// HandlerID returns the embedding handler's unique identifier.
func (b Base) HandlerID() string { return b.ID_ }

// Name returns the embedding handler's human-readable name.
func (b Base) Name() string { return b.Name_ }

// Permissions returns the embedding handler's declared permissions.
func (b Base) Permissions() []PermissionDef { return b.Perms }

// GetRequiredPermission returns the first declared permission with an
// empty scope, or ok=false if no permissions are declared.
func (b Base) GetRequiredPermission(_ string, _ map[string]any) (string, map[string]string, bool) {
	if len(b.Perms) == 0 {
		return "", nil, false
	}
	return b.Perms[0].Name, map[string]string{}, true
}

// RenderRequest returns a plain display record built from the request's
// own fields.
func (b Base) RenderRequest(req *action.Request) map[string]any {
	return map[string]any{
		"handler":           b.Name_,
		"action":            req.ActionName,
		"params":            req.Params,
		"status":            string(req.Status),
		"permission_needed": req.RequiredPermissionName,
		"permission_scope":  req.RequiredScope,
	}
}

// AsToolSchema builds a tool definition from the embedding handler's
// declared permissions.
func (b Base) AsToolSchema() map[string]any {
	actions := make([]map[string]any, 0, len(b.Perms))
	for _, perm := range b.Perms {
		actions = append(actions, map[string]any{
			"name":        perm.Name,
			"description": perm.Description,
			"parameters":  perm.ParameterSchema,
		})
	}
	return map[string]any{
		"tool_id": b.ID_,
		"name":    b.Name_,
		"actions": actions,
	}
}
