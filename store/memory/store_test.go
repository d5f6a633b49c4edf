package memory

import (
	"context"
	"testing"
	"time"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/id"
	"github.com/arborian/actiongate/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestGrantCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &grant.Grant{
		ID:             id.NewGrantID(),
		HandlerID:      "echo",
		PermissionName: "speak",
		Scope:          map[string]string{"topic": "hello"},
		GrantedAt:      time.Now().UTC(),
	}

	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGrant(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PermissionName != "speak" {
		t.Fatalf("expected speak, got %s", got.PermissionName)
	}

	if err := s.RevokeGrant(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetGrant(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Revoked {
		t.Fatal("expected grant to be revoked")
	}
}

func TestGrantGetMissing(t *testing.T) {
	s := New()
	_, err := s.GetGrant(context.Background(), id.NewGrantID())
	if err == nil {
		t.Fatal("expected error for missing grant")
	}
}

func TestGetActiveGrants(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	g1 := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: now}
	g2 := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "shout", GrantedAt: now}
	g3 := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: now, Revoked: true}
	g4 := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: now, ExpiresAt: &past}
	g5 := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: now, ExpiresAt: &future}
	for _, g := range []*grant.Grant{g1, g2, g3, g4, g5} {
		if err := s.CreateGrant(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	result, err := s.GetActiveGrants(ctx, "echo", "speak", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 active grants (g1, g5), got %d", len(result))
	}
}

func TestListGrantsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	active := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: time.Now().UTC()}
	revoked := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: time.Now().UTC(), Revoked: true}
	_ = s.CreateGrant(ctx, active)
	_ = s.CreateGrant(ctx, revoked)

	result, err := s.ListGrants(ctx, &grant.ListFilter{HandlerID: "echo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 non-revoked grant, got %d", len(result))
	}

	result, err = s.ListGrants(ctx, &grant.ListFilter{HandlerID: "echo", IncludeRevoked: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 grants with IncludeRevoked, got %d", len(result))
	}
}

func TestDeleteExpiredGrants(t *testing.T) {
	ctx := context.Background()
	s := New()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	expired := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: time.Now().UTC(), ExpiresAt: &past}
	live := &grant.Grant{ID: id.NewGrantID(), HandlerID: "echo", PermissionName: "speak", GrantedAt: time.Now().UTC(), ExpiresAt: &future}
	_ = s.CreateGrant(ctx, expired)
	_ = s.CreateGrant(ctx, live)

	count, err := s.DeleteExpiredGrants(ctx, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired grant removed, got %d", count)
	}

	_, err = s.GetGrant(ctx, live.ID)
	if err != nil {
		t.Fatal("expected live grant to remain")
	}
}

func TestActionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &action.Request{
		ID:         id.NewActionID(),
		HandlerID:  "echo",
		ActionName: "say",
		Params:     map[string]any{"message": "hi"},
		Status:     action.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.CreateAction(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAction(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != action.StatusPending {
		t.Fatalf("expected pending, got %s", got.Status)
	}

	got.Status = action.StatusCompleted
	got.Result = "hi"
	now := time.Now().UTC()
	got.CompletedAt = &now
	if err := s.UpdateAction(ctx, got); err != nil {
		t.Fatal(err)
	}

	got, err = s.GetAction(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != action.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
}

func TestActionUpdateMissing(t *testing.T) {
	s := New()
	err := s.UpdateAction(context.Background(), &action.Request{ID: id.NewActionID()})
	if err == nil {
		t.Fatal("expected error updating missing action")
	}
}

func TestListPendingActions(t *testing.T) {
	ctx := context.Background()
	s := New()

	pending := &action.Request{ID: id.NewActionID(), HandlerID: "echo", Status: action.StatusPending, CreatedAt: time.Now().UTC()}
	done := &action.Request{ID: id.NewActionID(), HandlerID: "echo", Status: action.StatusCompleted, CreatedAt: time.Now().UTC()}
	_ = s.CreateAction(ctx, pending)
	_ = s.CreateAction(ctx, done)

	result, err := s.ListPendingActions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 || result[0].ID != pending.ID {
		t.Fatalf("expected 1 pending action matching %s, got %+v", pending.ID, result)
	}
}

func TestListActionsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	a1 := &action.Request{ID: id.NewActionID(), HandlerID: "echo", Status: action.StatusCompleted, CreatedAt: time.Now().UTC()}
	a2 := &action.Request{ID: id.NewActionID(), HandlerID: "other", Status: action.StatusCompleted, CreatedAt: time.Now().UTC()}
	_ = s.CreateAction(ctx, a1)
	_ = s.CreateAction(ctx, a2)

	result, err := s.ListActions(ctx, &action.ListFilter{HandlerID: "echo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 || result[0].ID != a1.ID {
		t.Fatalf("expected 1 action for handler echo, got %+v", result)
	}
}

func TestStoreLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
