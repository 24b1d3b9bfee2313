package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/jason-s-yu/keepsake/internal/relationship"
)

const pgUniqueViolation = "23505"

const relationshipColumns = `id, requester_id, receiver_id, status, created_at, updated_at`

// RelationshipStore implements relationship.Store on PostgreSQL.
type RelationshipStore struct {
	pool *pgxpool.Pool
}

// NewRelationshipStore returns a store backed by pool.
func NewRelationshipStore(pool *pgxpool.Pool) *RelationshipStore {
	return &RelationshipStore{pool: pool}
}

// Insert writes a new relationship row. A collision on the unordered-pair index is
// reported as relationship.ErrDuplicatePair.
func (s *RelationshipStore) Insert(ctx context.Context, rel *models.Relationship) error {
	q := `
		INSERT INTO relationships (` + relationshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			rel.ID, rel.RequesterID, rel.ReceiverID, string(rel.Status),
			rel.CreatedAt, rel.UpdatedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return relationship.ErrDuplicatePair
		}
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

// GetByID fetches a relationship by id.
func (s *RelationshipStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error) {
	q := `SELECT ` + relationshipColumns + ` FROM relationships WHERE id = $1`
	rel, err := scanRelationship(s.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, relationship.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship %v: %w", id, err)
	}
	return rel, nil
}

// FindByPair returns the row between a and b in either direction, or nil if none exists.
func (s *RelationshipStore) FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Relationship, error) {
	q := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE LEAST(requester_id, receiver_id) = LEAST($1::uuid, $2::uuid)
		  AND GREATEST(requester_id, receiver_id) = GREATEST($1::uuid, $2::uuid)
	`
	rel, err := scanRelationship(s.pool.QueryRow(ctx, q, a, b))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find relationship between %v and %v: %w", a, b, err)
	}
	return rel, nil
}

// FindForPairs returns every row between userID and any of others, keyed by the other user.
func (s *RelationshipStore) FindForPairs(ctx context.Context, userID uuid.UUID, others []uuid.UUID) (map[uuid.UUID]*models.Relationship, error) {
	out := make(map[uuid.UUID]*models.Relationship, len(others))
	if len(others) == 0 {
		return out, nil
	}

	q := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE (requester_id = $1 AND receiver_id = ANY($2::uuid[]))
		   OR (receiver_id = $1 AND requester_id = ANY($2::uuid[]))
	`
	rels, err := s.query(ctx, q, userID, others)
	if err != nil {
		return nil, fmt.Errorf("failed to find relationships for %v: %w", userID, err)
	}
	for i := range rels {
		rel := rels[i]
		out[rel.Other(userID)] = &rel
	}
	return out, nil
}

// Accept sets status='accepted' on the row if receiverID is its receiver.
func (s *RelationshipStore) Accept(ctx context.Context, id, receiverID uuid.UUID) (*models.Relationship, error) {
	q := `
		UPDATE relationships
		SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND receiver_id = $2
		RETURNING ` + relationshipColumns

	var rel *models.Relationship
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var scanErr error
		rel, scanErr = scanRelationship(tx.QueryRow(ctx, q, id, receiverID))
		return scanErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, relationship.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to accept relationship %v: %w", id, err)
	}
	return rel, nil
}

// Delete hard deletes the row if receiverID is its receiver.
func (s *RelationshipStore) Delete(ctx context.Context, id, receiverID uuid.UUID) error {
	q := `DELETE FROM relationships WHERE id = $1 AND receiver_id = $2`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, id, receiverID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return relationship.ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, relationship.ErrNotFound) {
		return fmt.Errorf("failed to delete relationship %v: %w", id, err)
	}
	return err
}

// ListAccepted returns accepted rows where userID is either participant.
func (s *RelationshipStore) ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	q := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE status = 'accepted' AND (requester_id = $1 OR receiver_id = $1)
		ORDER BY created_at, id
	`
	rels, err := s.query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of %v: %w", userID, err)
	}
	return rels, nil
}

// ListIncoming returns pending rows addressed to userID.
func (s *RelationshipStore) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	q := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE status = 'pending' AND receiver_id = $1
		ORDER BY created_at, id
	`
	rels, err := s.query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests for %v: %w", userID, err)
	}
	return rels, nil
}

// ListOutgoing returns pending rows sent by userID.
func (s *RelationshipStore) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	q := `
		SELECT ` + relationshipColumns + `
		FROM relationships
		WHERE status = 'pending' AND requester_id = $1
		ORDER BY created_at, id
	`
	rels, err := s.query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing requests for %v: %w", userID, err)
	}
	return rels, nil
}

func (s *RelationshipStore) query(ctx context.Context, q string, args ...any) ([]models.Relationship, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rels := []models.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *rel)
	}
	return rels, rows.Err()
}

func scanRelationship(row pgx.Row) (*models.Relationship, error) {
	var rel models.Relationship
	var status string
	err := row.Scan(
		&rel.ID, &rel.RequesterID, &rel.ReceiverID, &status,
		&rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rel.Status = models.RelationshipStatus(status)
	return &rel, nil
}
