package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/keepsake/internal/models"
)

// likeEscaper escapes LIKE metacharacters so user input only ever matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// UserDirectory reads and syncs user profiles in the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory returns a directory backed by pool.
func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// FindByNameSubstring does a case-insensitive substring match on display_name.
func (d *UserDirectory) FindByNameSubstring(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.UserSummary, error) {
	q := `
	SELECT id, username, display_name, avatar_url
	FROM users
	WHERE id <> $1
	  AND display_name ILIKE '%' || $2 || '%' ESCAPE '\'
	ORDER BY LOWER(display_name), id
	LIMIT $3
	`
	users, err := d.query(ctx, q, excludeID, likeEscaper.Replace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// FindByIDs returns the profiles for ids that exist.
func (d *UserDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}
	q := `
	SELECT id, username, display_name, avatar_url
	FROM users
	WHERE id = ANY($1::uuid[])
	`
	users, err := d.query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	return users, nil
}

// UpsertUser creates the profile or updates it in place. The identity provider owns the
// account; this only mirrors the fields the relationship views display.
func (d *UserDirectory) UpsertUser(ctx context.Context, u models.UserSummary) error {
	q := `
	INSERT INTO users (id, username, display_name, avatar_url)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET username = EXCLUDED.username,
	              display_name = EXCLUDED.display_name,
	              avatar_url = EXCLUDED.avatar_url,
	              updated_at = NOW()
	`
	err := pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, u.ID, u.Username, u.DisplayName, u.AvatarURL)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to upsert user %v: %w", u.ID, err)
	}
	return nil
}

func (d *UserDirectory) query(ctx context.Context, q string, args ...any) ([]models.UserSummary, error) {
	rows, err := d.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
