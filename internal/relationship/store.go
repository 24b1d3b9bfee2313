package relationship

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/models"
)

// Store persists relationship rows. Implementations must enforce at most one row per
// unordered pair at the storage layer and return ErrDuplicatePair on collision; the
// service's pre-check alone does not close the race.
type Store interface {
	// Insert stores a new relationship.
	Insert(ctx context.Context, rel *models.Relationship) error

	// GetByID returns ErrNotFound if no row has that id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error)

	// FindByPair returns the row for {a, b} in either direction, or nil with no error.
	FindByPair(ctx context.Context, a, b uuid.UUID) (*models.Relationship, error)

	// FindForPairs returns the rows between userID and each of others, keyed by the other id.
	FindForPairs(ctx context.Context, userID uuid.UUID, others []uuid.UUID) (map[uuid.UUID]*models.Relationship, error)

	// Accept marks the row accepted if receiverID is its receiver, returning the
	// updated row. Returns ErrNotFound when no row matches both.
	Accept(ctx context.Context, id, receiverID uuid.UUID) (*models.Relationship, error)

	// Delete removes the row if receiverID is its receiver. Returns ErrNotFound
	// when no row matches both.
	Delete(ctx context.Context, id, receiverID uuid.UUID) error

	// ListAccepted returns accepted rows where userID is on either side, oldest first.
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)

	// ListIncoming returns pending rows received by userID, oldest first.
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)

	// ListOutgoing returns pending rows sent by userID, oldest first.
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
}

// Directory resolves user profile data. It is owned outside this package.
type Directory interface {
	// FindByNameSubstring does a case-insensitive substring match on display name.
	FindByNameSubstring(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.UserSummary, error)

	// FindByIDs returns the summaries it knows about, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error)
}
