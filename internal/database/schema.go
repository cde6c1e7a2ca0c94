package database

import (
	"context"
	"fmt"
)

// schema is the DDL for the victims store. Images are owned by their victim:
// deleting a victim cascades to its images.
const schema = `
CREATE TABLE IF NOT EXISTS victims (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT NOT NULL,
	last_name   TEXT NOT NULL,
	death_type  TEXT NOT NULL DEFAULT 'Heart Attack',
	details     TEXT,
	is_alive    BOOLEAN NOT NULL DEFAULT TRUE,
	version     INTEGER NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	edited_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_victims_is_alive ON victims (is_alive) WHERE is_alive;

CREATE TABLE IF NOT EXISTS victim_images (
	id         BIGSERIAL PRIMARY KEY,
	victim_id  UUID NOT NULL REFERENCES victims (id) ON DELETE CASCADE,
	position   INTEGER NOT NULL DEFAULT 0,
	url        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_victim_images_victim_id ON victim_images (victim_id);
`

// EnsureSchema creates the victims tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
