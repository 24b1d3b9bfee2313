// Package memstore holds in-process implementations of the relationship store and the user
// directory. They back tests and the STORE_BACKEND=memory development mode.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/jason-s-yu/keepsake/internal/relationship"
)

// Store keeps relationships in maps guarded by a single mutex. The pair index gives it the
// same unordered-pair uniqueness the Postgres unique index provides.
type Store struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*models.Relationship
	pairs map[models.PairKey]uuid.UUID
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		byID:  make(map[uuid.UUID]*models.Relationship),
		pairs: make(map[models.PairKey]uuid.UUID),
	}
}

func (s *Store) Insert(_ context.Context, rel *models.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.NewPairKey(rel.RequesterID, rel.ReceiverID)
	if _, exists := s.pairs[key]; exists {
		return relationship.ErrDuplicatePair
	}
	cp := *rel
	s.byID[cp.ID] = &cp
	s.pairs[key] = cp.ID
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rel, ok := s.byID[id]
	if !ok {
		return nil, relationship.ErrNotFound
	}
	cp := *rel
	return &cp, nil
}

func (s *Store) FindByPair(_ context.Context, a, b uuid.UUID) (*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[models.NewPairKey(a, b)]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *Store) FindForPairs(_ context.Context, userID uuid.UUID, others []uuid.UUID) (map[uuid.UUID]*models.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]*models.Relationship, len(others))
	for _, other := range others {
		id, ok := s.pairs[models.NewPairKey(userID, other)]
		if !ok {
			continue
		}
		cp := *s.byID[id]
		out[other] = &cp
	}
	return out, nil
}

func (s *Store) Accept(_ context.Context, id, receiverID uuid.UUID) (*models.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, ok := s.byID[id]
	if !ok || rel.ReceiverID != receiverID {
		return nil, relationship.ErrNotFound
	}
	rel.Status = models.StatusAccepted
	rel.UpdatedAt = time.Now().UTC()
	cp := *rel
	return &cp, nil
}

func (s *Store) Delete(_ context.Context, id, receiverID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, ok := s.byID[id]
	if !ok || rel.ReceiverID != receiverID {
		return relationship.ErrNotFound
	}
	delete(s.pairs, models.NewPairKey(rel.RequesterID, rel.ReceiverID))
	delete(s.byID, id)
	return nil
}

func (s *Store) ListAccepted(_ context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return s.list(func(r *models.Relationship) bool {
		return r.Status == models.StatusAccepted && r.Involves(userID)
	}), nil
}

func (s *Store) ListIncoming(_ context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return s.list(func(r *models.Relationship) bool {
		return r.Status == models.StatusPending && r.ReceiverID == userID
	}), nil
}

func (s *Store) ListOutgoing(_ context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return s.list(func(r *models.Relationship) bool {
		return r.Status == models.StatusPending && r.RequesterID == userID
	}), nil
}

// Len returns the number of stored relationships.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) list(match func(*models.Relationship) bool) []models.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Relationship{}
	for _, rel := range s.byID {
		if match(rel) {
			out = append(out, *rel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Directory is an in-memory user directory.
type Directory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.UserSummary
}

// NewDirectory returns a Directory seeded with users.
func NewDirectory(users ...models.UserSummary) *Directory {
	d := &Directory{users: make(map[uuid.UUID]models.UserSummary, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *Directory) FindByNameSubstring(_ context.Context, query string, excludeID uuid.UUID, limit int) ([]models.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(query)
	out := []models.UserSummary{}
	for _, u := range d.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.DisplayName), needle) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (d *Directory) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.UserSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// UpsertUser creates or replaces the profile for u.ID.
func (d *Directory) UpsertUser(_ context.Context, u models.UserSummary) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
	return nil
}
