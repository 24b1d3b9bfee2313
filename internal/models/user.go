package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSummary is the public profile data shown next to a relationship or search hit.
type UserSummary struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// PendingRequest is an incoming friend request awaiting the receiver's decision.
type PendingRequest struct {
	RelationshipID uuid.UUID   `json:"relationship_id"`
	CreatedAt      time.Time   `json:"created_at"`
	Requester      UserSummary `json:"requester"`
}

// SentRequest is an outgoing friend request the other side has not answered yet.
type SentRequest struct {
	RelationshipID uuid.UUID   `json:"relationship_id"`
	CreatedAt      time.Time   `json:"created_at"`
	Receiver       UserSummary `json:"receiver"`
}

// UserSearchResult pairs a search hit with its friendship status relative to the searcher.
type UserSearchResult struct {
	UserSummary
	Status FriendshipStatus `json:"status"`
}
