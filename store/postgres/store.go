// Package postgres provides a PostgreSQL implementation of the action-gate
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/id"
	"github.com/arborian/actiongate/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound is the sentinel for missing entities.
var errNotFound = fmt.Errorf("not found")

// Store is a PostgreSQL implementation of the composite action-gate store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("actiongate: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("actiongate: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("actiongate: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
		}
		return nil, fmt.Errorf("actiongate: get grant: %w", err)
	}
	return grantFromModel(m)
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	_, err := s.pgdb.NewUpdate((*grantModel)(nil)).
		Set("revoked = ?", true).
		Where("id = ?", grantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("actiongate: revoke grant: %w", err)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("granted_at ASC")
	if filter != nil {
		if filter.HandlerID != "" {
			q = q.Where("handler_id = ?", filter.HandlerID)
		}
		if filter.PermissionName != "" {
			q = q.Where("permission_name = ?", filter.PermissionName)
		}
		if !filter.IncludeRevoked {
			q = q.Where("revoked = ?", false)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("actiongate: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("actiongate: list grants: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) GetActiveGrants(ctx context.Context, handlerID, permissionName string, now time.Time) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.pgdb.NewSelect(&models).
		Where("handler_id = ?", handlerID).
		Where("permission_name = ?", permissionName).
		Where("revoked = ?", false).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("actiongate: get active grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("actiongate: get active grants: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) DeleteExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("actiongate: delete expired grants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("actiongate: delete expired grants rows: %w", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Action operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAction(ctx context.Context, a *action.Request) error {
	m, err := actionToModel(a)
	if err != nil {
		return fmt.Errorf("actiongate: create action: %w", err)
	}
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("actiongate: create action: %w", err)
	}
	return nil
}

func (s *Store) GetAction(ctx context.Context, actionID id.ActionID) (*action.Request, error) {
	m := new(actionModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", actionID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("action %s: %w", actionID, errNotFound)
		}
		return nil, fmt.Errorf("actiongate: get action: %w", err)
	}
	return actionFromModel(m)
}

// UpdateAction persists the full row for a inside a transaction that first
// reads the row's current status, the same guard as the SQLite backend: a
// missing row fails with errNotFound, a row already in a terminal status
// (COMPLETED or FAILED) fails with store.ErrInvalidTransition instead of
// being silently overwritten.
func (s *Store) UpdateAction(ctx context.Context, a *action.Request) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("actiongate: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	existing := new(actionModel)
	err = tx.NewSelect(existing).Where("id = ?", a.ID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("action %s: %w", a.ID, errNotFound)
		}
		return fmt.Errorf("actiongate: update action: %w", err)
	}
	if action.Status(existing.Status).Terminal() {
		return fmt.Errorf("action %s: already %s: %w", a.ID, existing.Status, store.ErrInvalidTransition)
	}

	m, err := actionToModel(a)
	if err != nil {
		return fmt.Errorf("actiongate: update action: %w", err)
	}
	if _, err := tx.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("actiongate: update action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("actiongate: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListActions(ctx context.Context, filter *action.ListFilter) ([]*action.Request, error) {
	var models []actionModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.HandlerID != "" {
			q = q.Where("handler_id = ?", filter.HandlerID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("actiongate: list actions: %w", err)
	}
	result := make([]*action.Request, len(models))
	for i := range models {
		a, err := actionFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("actiongate: list actions: %w", err)
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) ListPendingActions(ctx context.Context) ([]*action.Request, error) {
	var models []actionModel
	err := s.pgdb.NewSelect(&models).
		Where("status = ?", string(action.StatusPending)).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("actiongate: list pending actions: %w", err)
	}
	result := make([]*action.Request, len(models))
	for i := range models {
		a, err := actionFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("actiongate: list pending actions: %w", err)
		}
		result[i] = a
	}
	return result, nil
}
