package postgres

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
	ID              string            `grove:"id,pk"`
	HandlerID       string            `grove:"handler_id,notnull"`
	PermissionName  string            `grove:"permission_name,notnull"`
	Scope           map[string]string `grove:"scope,type:jsonb"`
	GrantedAt       time.Time         `grove:"granted_at,notnull"`
	ExpiresAt       *time.Time        `grove:"expires_at"`
	GrantedBy       string            `grove:"granted_by"`
	Revoked         bool              `grove:"revoked,notnull"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:             g.ID.String(),
		HandlerID:      g.HandlerID,
		PermissionName: g.PermissionName,
		Scope:          g.Scope,
		GrantedAt:      g.GrantedAt,
		ExpiresAt:      g.ExpiresAt,
		GrantedBy:      g.GrantedBy,
		Revoked:        g.Revoked,
	}
}

func grantFromModel(m *grantModel) (*grant.Grant, error) {
	gid, err := id.ParseGrantID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse grant id: %w", err)
	}
	return &grant.Grant{
		ID:             gid,
		HandlerID:      m.HandlerID,
		PermissionName: m.PermissionName,
		Scope:          m.Scope,
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
	ID                     string            `grove:"id,pk"`
	HandlerID              string            `grove:"handler_id,notnull"`
	ActionName             string            `grove:"action_name,notnull"`
	Params                 map[string]any    `grove:"params,type:jsonb"`
	RequiredPermissionName string            `grove:"required_permission_name"`
	RequiredScope          map[string]string `grove:"required_scope,type:jsonb"`
	Status                 string            `grove:"status,notnull"`
	Result                 []byte            `grove:"result,type:jsonb"`
	Error                  string            `grove:"error"`
	CreatedAt              time.Time         `grove:"created_at,notnull"`
	CompletedAt            *time.Time        `grove:"completed_at"`
}

func actionToModel(a *action.Request) (*actionModel, error) {
	m := &actionModel{
		ID:                     a.ID.String(),
		HandlerID:              a.HandlerID,
		ActionName:             a.ActionName,
		Params:                 a.Params,
		RequiredPermissionName: a.RequiredPermissionName,
		RequiredScope:          a.RequiredScope,
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
		m.Result = result
	}
	return m, nil
}

func actionFromModel(m *actionModel) (*action.Request, error) {
	aid, err := id.ParseActionID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse action id: %w", err)
	}

	req := &action.Request{
		ID:                     aid,
		HandlerID:              m.HandlerID,
		ActionName:             m.ActionName,
		Params:                 m.Params,
		RequiredPermissionName: m.RequiredPermissionName,
		RequiredScope:          m.RequiredScope,
		Status:                 action.Status(m.Status),
		Error:                  m.Error,
		CreatedAt:              m.CreatedAt,
		CompletedAt:            m.CompletedAt,
	}

	if len(m.Result) > 0 {
		var result any
		if err := json.Unmarshal(m.Result, &result); err != nil {
			return nil, fmt.Errorf("unmarshal action result: %w", err)
		}
		req.Result = result
	}

	return req, nil
}
