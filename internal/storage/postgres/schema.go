package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent. Objects keep their insertion order through seq; the
// primary key on (project_id, object_id) is what makes a duplicate add a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		color      TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		owner_id    TEXT NOT NULL DEFAULT '',
		camera      JSONB NOT NULL,
		shared      BOOLEAN NOT NULL DEFAULT FALSE,
		shared_with TEXT[] NOT NULL DEFAULT '{}',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS projects_owner_id_idx ON projects (owner_id)`,
	`CREATE TABLE IF NOT EXISTS scene_objects (
		project_id TEXT NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
		object_id  TEXT NOT NULL,
		seq        BIGSERIAL,
		payload    JSONB NOT NULL,
		PRIMARY KEY (project_id, object_id)
	)`,
	`CREATE INDEX IF NOT EXISTS scene_objects_order_idx ON scene_objects (project_id, seq)`,
}

// EnsureSchema creates the tables used by SceneStore and UserStore.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
