package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/id"
	"github.com/arborian/actiongate/store"
)

// Collection name constants.
const (
	colGrants  = "actiongate_grants"
	colActions = "actiongate_actions"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound is the sentinel for missing entities.
var errNotFound = fmt.Errorf("not found")

// Store is a MongoDB implementation of the composite action-gate store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for the grants and actions collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("actiongate/mongo: migrate %s indexes: %w", col, err)
		}
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

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the grants and
// actions collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colGrants: {
			{Keys: bson.D{{Key: "handler_id", Value: 1}, {Key: "permission_name", Value: 1}, {Key: "revoked", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colActions: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "handler_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("actiongate: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
		}
		return nil, fmt.Errorf("actiongate: get grant: %w", err)
	}
	return grantFromModel(&m)
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID) error {
	_, err := s.mdb.NewUpdate((*grantModel)(nil)).
		Filter(bson.M{"_id": grantID.String()}).
		Set("revoked", true).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("actiongate: revoke grant: %w", err)
	}
	return nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	f := bson.M{}
	if filter != nil {
		if filter.HandlerID != "" {
			f["handler_id"] = filter.HandlerID
		}
		if filter.PermissionName != "" {
			f["permission_name"] = filter.PermissionName
		}
		if !filter.IncludeRevoked {
			f["revoked"] = false
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "granted_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"handler_id":      handlerID,
			"permission_name": permissionName,
			"revoked":         false,
			"$or": []bson.M{
				{"expires_at": nil},
				{"expires_at": bson.M{"$gt": now}},
			},
		}).
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
	res, err := s.mdb.NewDelete((*grantModel)(nil)).
		Filter(bson.M{"expires_at": bson.M{"$ne": nil, "$lt": now}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("actiongate: delete expired grants: %w", err)
	}
	return res.DeletedCount(), nil
}

// ──────────────────────────────────────────────────
// Action operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAction(ctx context.Context, a *action.Request) error {
	m := actionToModel(a)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("actiongate: create action: %w", err)
	}
	return nil
}

func (s *Store) GetAction(ctx context.Context, actionID id.ActionID) (*action.Request, error) {
	var m actionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": actionID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("action %s: %w", actionID, errNotFound)
		}
		return nil, fmt.Errorf("actiongate: get action: %w", err)
	}
	return actionFromModel(&m)
}

// UpdateAction replaces the full document for a. The filter excludes
// documents already in a terminal status, the Mongo-native analogue of the
// SQL backends' transactional status check: a single atomic
// filter-and-replace either lands on the still-open row or matches
// nothing, and a no-match is then disambiguated into "doesn't exist"
// (errNotFound) versus "exists but already terminal"
// (store.ErrInvalidTransition).
func (s *Store) UpdateAction(ctx context.Context, a *action.Request) error {
	m := actionToModel(a)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{
			"_id": a.ID.String(),
			"status": bson.M{"$nin": []string{
				string(action.StatusCompleted),
				string(action.StatusFailed),
			}},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("actiongate: update action: %w", err)
	}
	if res.MatchedCount() == 0 {
		exists, existsErr := s.actionExists(ctx, a.ID)
		if existsErr != nil {
			return fmt.Errorf("actiongate: update action: %w", existsErr)
		}
		if exists {
			return fmt.Errorf("action %s: already in a terminal status: %w", a.ID, store.ErrInvalidTransition)
		}
		return fmt.Errorf("action %s: %w", a.ID, errNotFound)
	}
	return nil
}

func (s *Store) actionExists(ctx context.Context, actionID id.ActionID) (bool, error) {
	count, err := s.mdb.NewFind((*actionModel)(nil)).
		Filter(bson.M{"_id": actionID.String()}).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListActions(ctx context.Context, filter *action.ListFilter) ([]*action.Request, error) {
	var models []actionModel
	f := bson.M{}
	if filter != nil {
		if filter.HandlerID != "" {
			f["handler_id"] = filter.HandlerID
		}
		if filter.Status != "" {
			f["status"] = string(filter.Status)
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"status": string(action.StatusPending)}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
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
