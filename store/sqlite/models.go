package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/id"
)

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:actiongate_grants"`
	ID              string     `grove:"id,pk"`
	HandlerID       string     `grove:"handler_id,notnull"`
	PermissionName  string     `grove:"permission_name,notnull"`
	Scope           string     `grove:"scope"` // JSON text
	GrantedAt       time.Time  `grove:"granted_at,notnull"`
	ExpiresAt       *time.Time `grove:"expires_at"`
	GrantedBy       string     `grove:"granted_by"`
	Revoked         bool       `grove:"revoked,notnull"`
}

func grantToModel(g *grant.Grant) (*grantModel, error) {
	scope, err := json.Marshal(g.Scope)
	if err != nil {
		return nil, fmt.Errorf("marshal grant scope: %w", err)
	}
	return &grantModel{
		ID:             g.ID.String(),
		HandlerID:      g.HandlerID,
		PermissionName: g.PermissionName,
		Scope:          string(scope),
		GrantedAt:      g.GrantedAt,
		ExpiresAt:      g.ExpiresAt,
		GrantedBy:      g.GrantedBy,
		Revoked:        g.Revoked,
	}, nil
}

func grantFromModel(m *grantModel) (*grant.Grant, error) {
	gid, err := id.ParseGrantID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse grant id: %w", err)
	}
	var scope map[string]string
	if m.Scope != "" {
		if err := json.Unmarshal([]byte(m.Scope), &scope); err != nil {
			return nil, fmt.Errorf("unmarshal grant scope: %w", err)
		}
	}
	return &grant.Grant{
		ID:             gid,
		HandlerID:      m.HandlerID,
		PermissionName: m.PermissionName,
		Scope:          scope,
		GrantedAt:      m.GrantedAt,
		ExpiresAt:      m.ExpiresAt,
		GrantedBy:      m.GrantedBy,
		Revoked:        m.Revoked,
	}, nil
}

// ──────────────────────────────────────────────────
// Action model
// ──────────────────────────────────────────────────

type actionModel struct {
	grove.BaseModel        `grove:"table:actiongate_actions"`
	ID                     string     `grove:"id,pk"`
	HandlerID              string     `grove:"handler_id,notnull"`
	ActionName             string     `grove:"action_name,notnull"`
	Params                 string     `grove:"params"` // JSON text
	RequiredPermissionName string     `grove:"required_permission_name"`
	RequiredScope          string     `grove:"required_scope"` // JSON text
	Status                 string     `grove:"status,notnull"`
	Result                 *string    `grove:"result"` // JSON text, nullable
	Error                  string     `grove:"error"`
	CreatedAt              time.Time  `grove:"created_at,notnull"`
	CompletedAt            *time.Time `grove:"completed_at"`
}

func actionToModel(a *action.Request) (*actionModel, error) {
	params, err := json.Marshal(a.Params)
	if err != nil {
		return nil, fmt.Errorf("marshal action params: %w", err)
	}
	scope, err := json.Marshal(a.RequiredScope)
	if err != nil {
		return nil, fmt.Errorf("marshal action required scope: %w", err)
	}

	m := &actionModel{
		ID:                     a.ID.String(),
		HandlerID:              a.HandlerID,
		ActionName:             a.ActionName,
		Params:                 string(params),
		RequiredPermissionName: a.RequiredPermissionName,
		RequiredScope:          string(scope),
		Status:                 string(a.Status),
		Error:                  a.Error,
		CreatedAt:              a.CreatedAt,
		CompletedAt:            a.CompletedAt,
	}

	if a.Result != nil {
		result, err := json.Marshal(a.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal action result: %w", err)
		}
		s := string(result)
		m.Result = &s
	}

	return m, nil
}

func actionFromModel(m *actionModel) (*action.Request, error) {
	aid, err := id.ParseActionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse action id: %w", err)
	}

	var params map[string]any
	if m.Params != "" {
		if err := json.Unmarshal([]byte(m.Params), &params); err != nil {
			return nil, fmt.Errorf("unmarshal action params: %w", err)
		}
	}
	var scope map[string]string
	if m.RequiredScope != "" {
		if err := json.Unmarshal([]byte(m.RequiredScope), &scope); err != nil {
			return nil, fmt.Errorf("unmarshal action required scope: %w", err)
		}
	}

	req := &action.Request{
		ID:                     aid,
		HandlerID:              m.HandlerID,
		ActionName:             m.ActionName,
		Params:                 params,
		RequiredPermissionName: m.RequiredPermissionName,
		RequiredScope:          scope,
		Status:                 action.Status(m.Status),
		Error:                  m.Error,
		CreatedAt:              m.CreatedAt,
		CompletedAt:            m.CompletedAt,
	}

	if m.Result != nil {
		var result any
		if err := json.Unmarshal([]byte(*m.Result), &result); err != nil {
			return nil, fmt.Errorf("unmarshal action result: %w", err)
		}
		req.Result = result
	}

	return req, nil
}
