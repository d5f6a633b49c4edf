package actiongate

import (
	"context"
	"testing"
	"time"

	"github.com/arborian/actiongate/clock"
	"github.com/arborian/actiongate/handler"
	"github.com/arborian/actiongate/store/memory"
)

func newTestManager(clk clockSource) *permissionManager {
	return &permissionManager{
		store:  memory.New(),
		clk:    clk,
		config: DefaultConfig(),
	}
}

func TestScopeMatchesEmptyGrantMatchesAnything(t *testing.T) {
	if !scopeMatches(nil, map[string]string{"topic": "anything"}) {
		t.Fatal("expected empty grant scope to match any check scope")
	}
}

func TestScopeMatchesSubset(t *testing.T) {
	grantScope := map[string]string{"recipient": "bob"}
	checkScope := map[string]string{"recipient": "bob", "priority": "high"}
	if !scopeMatches(grantScope, checkScope) {
		t.Fatal("expected grant scope to cover wider check scope")
	}
}

func TestScopeMatchesStricterGrantFailsNarrowerCheck(t *testing.T) {
	grantScope := map[string]string{"recipient": "bob", "cc": "alice"}
	checkScope := map[string]string{"recipient": "bob"}
	if scopeMatches(grantScope, checkScope) {
		t.Fatal("expected grant requiring cc to not match check lacking it")
	}
}

func TestScopeMatchesValueMismatch(t *testing.T) {
	grantScope := map[string]string{"topic": "world"}
	checkScope := map[string]string{"topic": "hello"}
	if scopeMatches(grantScope, checkScope) {
		t.Fatal("expected mismatched values to not match")
	}
}

func TestComputeExpiresAtOneHour(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got := computeExpiresAt(ExpirationOneHour, now)
	want := now.Add(time.Hour)
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestComputeExpiresAtToday(t *testing.T) {
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	got := computeExpiresAt(ExpirationToday, now)
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("expected next UTC midnight %v, got %v", want, got)
	}
}

func TestComputeExpiresAtIndefinite(t *testing.T) {
	now := time.Now()
	if got := computeExpiresAt(ExpirationIndefinite, now); got != nil {
		t.Fatalf("expected nil for indefinite, got %v", got)
	}
}

func TestPermissionManagerGrantAndCheck(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := newTestManager(clk)
	def := handler.PermissionDef{Name: "speak", ParameterSchema: map[string]string{"topic": "topic"}}

	if _, err := m.Grant(ctx, "echo", def, map[string]string{"topic": "hello"}, ExpirationIndefinite, "user"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	allowed, err := m.Check(ctx, "echo", "speak", map[string]string{"topic": "hello"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !allowed {
		t.Fatal("expected check to pass")
	}

	allowed, err = m.Check(ctx, "echo", "speak", map[string]string{"topic": "world"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if allowed {
		t.Fatal("expected check with mismatched scope to fail")
	}
}

func TestPermissionManagerGrantRejectsUnknownScopeKey(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Now())
	m := newTestManager(clk)
	def := handler.PermissionDef{Name: "speak", ParameterSchema: map[string]string{"topic": "topic"}}

	_, err := m.Grant(ctx, "echo", def, map[string]string{"unknown": "x"}, ExpirationIndefinite, "user")
	if err == nil {
		t.Fatal("expected error for unknown scope key")
	}
}

func TestPermissionManagerExpiration(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := newTestManager(clk)
	def := handler.PermissionDef{Name: "speak", ParameterSchema: map[string]string{"topic": "topic"}}

	if _, err := m.Grant(ctx, "echo", def, map[string]string{"topic": "hello"}, ExpirationOneHour, "user"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	allowed, err := m.Check(ctx, "echo", "speak", map[string]string{"topic": "hello"})
	if err != nil || !allowed {
		t.Fatalf("expected check to pass before expiry, allowed=%v err=%v", allowed, err)
	}

	clk.Advance(3601 * time.Second)

	allowed, err = m.Check(ctx, "echo", "speak", map[string]string{"topic": "hello"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if allowed {
		t.Fatal("expected check to fail after expiry")
	}
}

func TestPermissionManagerRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Now())
	m := newTestManager(clk)
	def := handler.PermissionDef{Name: "speak"}

	g, err := m.Grant(ctx, "echo", def, nil, ExpirationIndefinite, "user")
	if err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	if _, err := m.Revoke(ctx, g.ID.String()); err != nil {
		t.Fatalf("first revoke failed: %v", err)
	}
	if _, err := m.Revoke(ctx, g.ID.String()); err != nil {
		t.Fatalf("second revoke should be a no-op, got error: %v", err)
	}

	allowed, err := m.Check(ctx, "echo", "speak", nil)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if allowed {
		t.Fatal("expected check to fail after revocation")
	}
}

func TestPermissionManagerGrantMonotonicity(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Now())
	m := newTestManager(clk)
	def := handler.PermissionDef{Name: "speak"}

	if _, err := m.Grant(ctx, "echo", def, nil, ExpirationIndefinite, "user"); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	allowed, _ := m.Check(ctx, "echo", "speak", nil)
	if !allowed {
		t.Fatal("expected initial check to pass")
	}

	clk.Advance(10 * time.Hour)

	allowed, _ = m.Check(ctx, "echo", "speak", nil)
	if !allowed {
		t.Fatal("expected indefinite grant to remain valid after time passes")
	}
}
