// Package relationship implements the friend-request state machine: sending, accepting and
// rejecting requests, and the read paths that derive friendship status from a single
// relationship row per unordered pair of users.
//
//	       SendFriendRequest
//	(none) ─────────────────▶ pending
//	  ▲                         │  │
//	  │ RejectFriendRequest     │  │ AcceptFriendRequest (receiver only)
//	  └─────────────────────────┘  ▼
//	                            accepted
package relationship

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// MinSearchQueryLength is the shortest query SearchUsers forwards to the directory.
	MinSearchQueryLength = 2

	// SearchResultLimit caps the number of candidates returned by SearchUsers.
	SearchResultLimit = 10
)

// Service is the only writer of relationship rows. It is stateless; every method takes the
// caller resolved at the request boundary.
type Service struct {
	store Store
	dir   Directory
	log   logrus.FieldLogger

	now func() time.Time
}

// NewService builds a Service. A nil logger discards output.
func NewService(store Store, dir Directory, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{
		store: store,
		dir:   dir,
		log:   logger.WithField("component", "relationship"),
		now:   time.Now,
	}
}

// SendFriendRequest creates a pending relationship from caller to target.
func (s *Service) SendFriendRequest(ctx context.Context, caller, target uuid.UUID) (*models.Relationship, error) {
	if caller == target {
		return nil, ErrSelfRequest
	}

	existing, err := s.store.FindByPair(ctx, caller, target)
	if err != nil {
		return nil, s.fail("find_by_pair", err)
	}
	if existing != nil {
		return nil, conflictFor(existing)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, s.fail("generate_id", err)
	}
	now := s.now().UTC()
	rel := &models.Relationship{
		ID:          id,
		RequesterID: caller,
		ReceiverID:  target,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(ctx, rel); err != nil {
		if !errors.Is(err, ErrDuplicatePair) {
			return nil, s.fail("insert", err)
		}
		// lost the race to a concurrent insert for the same pair
		winner, findErr := s.store.FindByPair(ctx, caller, target)
		if findErr != nil {
			return nil, s.fail("find_by_pair", findErr)
		}
		if winner == nil {
			return nil, ErrRequestAlreadyPending
		}
		return nil, conflictFor(winner)
	}

	s.log.WithFields(logrus.Fields{
		"relationship_id": rel.ID,
		"requester":       caller,
		"receiver":        target,
	}).Debug("friend request sent")
	return rel, nil
}

// AcceptFriendRequest moves a pending request to accepted. Only the receiver may accept.
func (s *Service) AcceptFriendRequest(ctx context.Context, caller, relationshipID uuid.UUID) (*models.Relationship, error) {
	rel, err := s.store.GetByID(ctx, relationshipID)
	if err != nil {
		return nil, s.fail("get_by_id", err)
	}
	if rel.ReceiverID != caller {
		return nil, ErrForbidden
	}

	updated, err := s.store.Accept(ctx, relationshipID, caller)
	if err != nil {
		return nil, s.fail("accept", err)
	}

	s.log.WithFields(logrus.Fields{
		"relationship_id": updated.ID,
		"requester":       updated.RequesterID,
		"receiver":        updated.ReceiverID,
	}).Debug("friend request accepted")
	return updated, nil
}

// RejectFriendRequest deletes the relationship. Only the receiver may reject, and the row is
// deleted whatever its status, so a receiver can also use this to drop an accepted friend.
func (s *Service) RejectFriendRequest(ctx context.Context, caller, relationshipID uuid.UUID) error {
	rel, err := s.store.GetByID(ctx, relationshipID)
	if err != nil {
		return s.fail("get_by_id", err)
	}
	if rel.ReceiverID != caller {
		return ErrForbidden
	}

	if err := s.store.Delete(ctx, relationshipID, caller); err != nil {
		return s.fail("delete", err)
	}

	s.log.WithFields(logrus.Fields{
		"relationship_id": rel.ID,
		"status":          rel.Status,
	}).Debug("relationship deleted by receiver")
	return nil
}

// GetFriendsList returns the caller's accepted friends, oldest friendship first.
func (s *Service) GetFriendsList(ctx context.Context, caller uuid.UUID) ([]models.UserSummary, error) {
	rels, err := s.store.ListAccepted(ctx, caller)
	if err != nil {
		return nil, s.fail("list_accepted", err)
	}

	ids := make([]uuid.UUID, 0, len(rels))
	for i := range rels {
		if other := rels[i].Other(caller); other != caller {
			ids = append(ids, other)
		}
	}

	users, err := s.lookupUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	friends := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		u, ok := users[id]
		if !ok {
			s.log.WithField("user_id", id).Warn("friend missing from user directory")
			continue
		}
		friends = append(friends, u)
	}
	return friends, nil
}

// GetPendingRequests returns requests the caller has received and not yet answered.
// Requests the caller sent are not included.
func (s *Service) GetPendingRequests(ctx context.Context, caller uuid.UUID) ([]models.PendingRequest, error) {
	rels, err := s.store.ListIncoming(ctx, caller)
	if err != nil {
		return nil, s.fail("list_incoming", err)
	}

	ids := make([]uuid.UUID, 0, len(rels))
	for i := range rels {
		ids = append(ids, rels[i].RequesterID)
	}
	users, err := s.lookupUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PendingRequest, 0, len(rels))
	for _, rel := range rels {
		requester, ok := users[rel.RequesterID]
		if !ok {
			requester = models.UserSummary{ID: rel.RequesterID}
		}
		out = append(out, models.PendingRequest{
			RelationshipID: rel.ID,
			CreatedAt:      rel.CreatedAt,
			Requester:      requester,
		})
	}
	return out, nil
}

// GetSentRequests returns the caller's outgoing requests that are still pending.
func (s *Service) GetSentRequests(ctx context.Context, caller uuid.UUID) ([]models.SentRequest, error) {
	rels, err := s.store.ListOutgoing(ctx, caller)
	if err != nil {
		return nil, s.fail("list_outgoing", err)
	}

	ids := make([]uuid.UUID, 0, len(rels))
	for i := range rels {
		ids = append(ids, rels[i].ReceiverID)
	}
	users, err := s.lookupUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.SentRequest, 0, len(rels))
	for _, rel := range rels {
		receiver, ok := users[rel.ReceiverID]
		if !ok {
			receiver = models.UserSummary{ID: rel.ReceiverID}
		}
		out = append(out, models.SentRequest{
			RelationshipID: rel.ID,
			CreatedAt:      rel.CreatedAt,
			Receiver:       receiver,
		})
	}
	return out, nil
}

// SearchUsers matches display names case-insensitively, excluding the caller. Queries
// shorter than MinSearchQueryLength return an empty result without touching the directory.
func (s *Service) SearchUsers(ctx context.Context, caller uuid.UUID, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return []models.UserSummary{}, nil
	}

	users, err := s.dir.FindByNameSubstring(ctx, query, caller, SearchResultLimit)
	if err != nil {
		return nil, s.fail("directory_search", err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		if u.ID == caller {
			continue
		}
		out = append(out, u)
		if len(out) == SearchResultLimit {
			break
		}
	}
	return out, nil
}

// SearchUsersWithStatus is SearchUsers with each hit annotated by CheckFriendshipStatus
// semantics, using a single store read for all hits.
func (s *Service) SearchUsersWithStatus(ctx context.Context, caller uuid.UUID, query string) ([]models.UserSearchResult, error) {
	users, err := s.SearchUsers(ctx, caller, query)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []models.UserSearchResult{}, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	rels, err := s.store.FindForPairs(ctx, caller, ids)
	if err != nil {
		return nil, s.fail("find_for_pairs", err)
	}

	out := make([]models.UserSearchResult, len(users))
	for i, u := range users {
		out[i] = models.UserSearchResult{
			UserSummary: u,
			Status:      rels[u.ID].StatusFor(caller),
		}
	}
	return out, nil
}

// CheckFriendshipStatus reports the relationship between caller and target from the
// caller's side. It is a pure read.
func (s *Service) CheckFriendshipStatus(ctx context.Context, caller, target uuid.UUID) (models.FriendshipStatus, error) {
	rel, err := s.store.FindByPair(ctx, caller, target)
	if err != nil {
		return "", s.fail("find_by_pair", err)
	}
	return rel.StatusFor(caller), nil
}

func (s *Service) lookupUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.dir.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.fail("directory_lookup", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// fail passes domain outcomes through and wraps everything else as a StoreError.
func (s *Service) fail(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicatePair) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	s.log.WithError(err).WithField("op", op).Error("relationship store failure")
	return storeErr(op, err)
}

func conflictFor(rel *models.Relationship) error {
	if rel.Status == models.StatusAccepted {
		return ErrAlreadyFriends
	}
	return ErrRequestAlreadyPending
}
