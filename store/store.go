// Package store defines the aggregate persistence interface for grants and
// action requests. Backends: Memory, SQLite, Postgres, and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/grant"
)

// ErrInvalidTransition is returned by UpdateAction when the row's current
// status, read under the same transaction/session as the write, is already
// terminal (COMPLETED or FAILED): no backend allows overwriting a finished
// action, regardless of what the caller's in-memory Request claims its
// previous status was.
var ErrInvalidTransition = errors.New("store: action already in a terminal status")

// Store is the aggregate persistence interface. grant.Store and
// action.Store are separate composable interfaces — same pattern as a
// control-plane composed of per-entity stores — but a single backend
// (memory, sqlite, postgres, mongo) implements both.
type Store interface {
	grant.Store
	action.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
