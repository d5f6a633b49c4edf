package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the action-gate SQLite store.
var Migrations = migrate.NewGroup("actiongate")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS actiongate_grants (
    id                TEXT PRIMARY KEY,
    handler_id        TEXT NOT NULL,
    permission_name   TEXT NOT NULL,
    scope             TEXT NOT NULL DEFAULT '{}',
    granted_at        TEXT NOT NULL,
    expires_at        TEXT,
    granted_by        TEXT NOT NULL DEFAULT '',
    revoked           INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_actiongate_grants_lookup ON actiongate_grants (handler_id, permission_name, revoked);
CREATE INDEX IF NOT EXISTS idx_actiongate_grants_expires ON actiongate_grants (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS actiongate_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_actions",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS actiongate_actions (
    id                         TEXT PRIMARY KEY,
    handler_id                 TEXT NOT NULL,
    action_name                TEXT NOT NULL,
    params                     TEXT NOT NULL DEFAULT '{}',
    required_permission_name   TEXT NOT NULL DEFAULT '',
    required_scope             TEXT NOT NULL DEFAULT '{}',
    status                     TEXT NOT NULL,
    result                     TEXT,
    error                      TEXT NOT NULL DEFAULT '',
    created_at                 TEXT NOT NULL,
    completed_at               TEXT
);

CREATE INDEX IF NOT EXISTS idx_actiongate_actions_status ON actiongate_actions (status);
CREATE INDEX IF NOT EXISTS idx_actiongate_actions_handler ON actiongate_actions (handler_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS actiongate_actions`)
				return err
			},
		},
	)
}
