package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// RelationshipStatus is the persisted state of a relationship row.
type RelationshipStatus string

const (
	StatusPending  RelationshipStatus = "pending"
	StatusAccepted RelationshipStatus = "accepted"
)

// Relationship represents a row in the relationships table. There is at most one row per
// unordered pair of users, regardless of which side sent the request.
type Relationship struct {
	ID          uuid.UUID          `json:"id"`
	RequesterID uuid.UUID          `json:"requester_id"`
	ReceiverID  uuid.UUID          `json:"receiver_id"`
	Status      RelationshipStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Involves reports whether userID is either participant.
func (r *Relationship) Involves(userID uuid.UUID) bool {
	return r.RequesterID == userID || r.ReceiverID == userID
}

// Other returns the participant that is not userID.
func (r *Relationship) Other(userID uuid.UUID) uuid.UUID {
	if r.RequesterID == userID {
		return r.ReceiverID
	}
	return r.RequesterID
}

// StatusFor derives the friendship status as seen by viewer.
func (r *Relationship) StatusFor(viewer uuid.UUID) FriendshipStatus {
	if r == nil {
		return FriendshipNone
	}
	switch {
	case r.Status == StatusAccepted:
		return FriendshipFriends
	case r.RequesterID == viewer:
		return FriendshipSent
	default:
		return FriendshipPending
	}
}

// FriendshipStatus is the relationship between two users from one side's point of view.
// FriendshipNone means no row exists; it is never stored.
type FriendshipStatus string

const (
	FriendshipNone    FriendshipStatus = "none"
	FriendshipFriends FriendshipStatus = "friends"
	FriendshipSent    FriendshipStatus = "sent"    // caller sent a request still awaiting the other side
	FriendshipPending FriendshipStatus = "pending" // caller received a request and has not answered
)

// PairKey is the canonical form of an unordered pair of user ids: Low sorts before High.
type PairKey struct {
	Low  uuid.UUID
	High uuid.UUID
}

// NewPairKey orders a and b so that NewPairKey(a, b) == NewPairKey(b, a).
func NewPairKey(a, b uuid.UUID) PairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}
