package mongo

import (
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
	ID              string            `grove:"id,pk"           bson:"_id"`
	HandlerID       string            `grove:"handler_id"      bson:"handler_id"`
	PermissionName  string            `grove:"permission_name" bson:"permission_name"`
	Scope           map[string]string `grove:"scope"           bson:"scope,omitempty"`
	GrantedAt       time.Time         `grove:"granted_at"      bson:"granted_at"`
	ExpiresAt       *time.Time        `grove:"expires_at"      bson:"expires_at,omitempty"`
	GrantedBy       string            `grove:"granted_by"      bson:"granted_by"`
	Revoked         bool              `grove:"revoked"         bson:"revoked"`
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
		return nil, err
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
	ID                     string            `grove:"id,pk" bson:"_id"`
	HandlerID              string            `grove:"handler_id" bson:"handler_id"`
	ActionName             string            `grove:"action_name" bson:"action_name"`
	Params                 map[string]any    `grove:"params" bson:"params,omitempty"`
	RequiredPermissionName string            `grove:"required_permission_name" bson:"required_permission_name"`
	RequiredScope          map[string]string `grove:"required_scope" bson:"required_scope,omitempty"`
	Status                 string            `grove:"status" bson:"status"`
	Result                 any               `grove:"result" bson:"result,omitempty"`
	Error                  string            `grove:"error" bson:"error"`
	CreatedAt              time.Time         `grove:"created_at" bson:"created_at"`
	CompletedAt            *time.Time        `grove:"completed_at" bson:"completed_at,omitempty"`
}

func actionToModel(a *action.Request) *actionModel {
	return &actionModel{
		ID:                     a.ID.String(),
		HandlerID:              a.HandlerID,
		ActionName:             a.ActionName,
		Params:                 a.Params,
		RequiredPermissionName: a.RequiredPermissionName,
		RequiredScope:          a.RequiredScope,
		Status:                 string(a.Status),
		Result:                 a.Result,
		Error:                  a.Error,
		CreatedAt:              a.CreatedAt,
		CompletedAt:            a.CompletedAt,
	}
}

func actionFromModel(m *actionModel) (*action.Request, error) {
	aid, err := id.ParseActionID(m.ID)
	if err != nil {
		return nil, err
	}
	return &action.Request{
		ID:                     aid,
		HandlerID:              m.HandlerID,
		ActionName:             m.ActionName,
		Params:                 m.Params,
		RequiredPermissionName: m.RequiredPermissionName,
		RequiredScope:          m.RequiredScope,
		Status:                 action.Status(m.Status),
		Result:                 m.Result,
		Error:                  m.Error,
		CreatedAt:              m.CreatedAt,
		CompletedAt:            m.CompletedAt,
	}, nil
}
