package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The unique index over (LEAST, GREATEST) makes {a, b} and {b, a} collide, so two requests
// racing from opposite directions cannot both insert.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID        PRIMARY KEY,
    username      TEXT        NOT NULL DEFAULT '',
    display_name  TEXT        NOT NULL DEFAULT '',
    avatar_url    TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS relationships (
    id            UUID        PRIMARY KEY,
    requester_id  UUID        NOT NULL,
    receiver_id   UUID        NOT NULL,
    status        TEXT        NOT NULL CHECK (status IN ('pending', 'accepted')),
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT relationships_distinct_users CHECK (requester_id <> receiver_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_relationships_pair
    ON relationships (LEAST(requester_id, receiver_id), GREATEST(requester_id, receiver_id));
CREATE INDEX IF NOT EXISTS idx_relationships_requester ON relationships (requester_id, status);
CREATE INDEX IF NOT EXISTS idx_relationships_receiver  ON relationships (receiver_id, status);
`

// EnsureSchema creates the users and relationships tables and their indexes if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
