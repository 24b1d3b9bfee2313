// internal/handlers/friend.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

type friendRequestPayload struct {
	UserID string `json:"user_id"`
}

type relationshipPayload struct {
	RelationshipID string `json:"relationship_id"`
}

// SendFriendRequestHandler handles a user sending a friend request to another user.
//
// Request payload: { "user_id": "some-uuid-string" }
// Responds 201 with the pending relationship.
func (s *APIServer) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	var req friendRequestPayload
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	targetID, err := parseID(req.UserID)
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	rel, err := s.Relationships.SendFriendRequest(r.Context(), caller, targetID)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

// AcceptFriendRequestHandler handles the receiver accepting a pending request.
//
// Request payload: { "relationship_id": "some-uuid-string" }
func (s *APIServer) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	var req relationshipPayload
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	relID, err := parseID(req.RelationshipID)
	if err != nil {
		http.Error(w, "invalid relationship_id", http.StatusBadRequest)
		return
	}

	rel, err := s.Relationships.AcceptFriendRequest(r.Context(), caller, relID)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

// RejectFriendRequestHandler handles the receiver rejecting a request. The relationship is
// deleted, so the same pair may send a new request afterwards.
//
// Request payload: { "relationship_id": "some-uuid-string" }
func (s *APIServer) RejectFriendRequestHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	var req relationshipPayload
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	relID, err := parseID(req.RelationshipID)
	if err != nil {
		http.Error(w, "invalid relationship_id", http.StatusBadRequest)
		return
	}

	if err := s.Relationships.RejectFriendRequest(r.Context(), caller, relID); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("friend request rejected"))
}

// ListFriendsHandler returns a JSON array of the caller's accepted friends.
func (s *APIServer) ListFriendsHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	friends, err := s.Relationships.GetFriendsList(r.Context(), caller)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// PendingRequestsHandler returns incoming requests awaiting the caller's decision.
func (s *APIServer) PendingRequestsHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	pending, err := s.Relationships.GetPendingRequests(r.Context(), caller)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// SentRequestsHandler returns the caller's outgoing requests that are still pending.
func (s *APIServer) SentRequestsHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	sent, err := s.Relationships.GetSentRequests(r.Context(), caller)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sent)
}

// FriendshipStatusHandler reports none, friends, sent or pending for ?user_id=.
func (s *APIServer) FriendshipStatusHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	targetID, err := parseID(r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	status, err := s.Relationships.CheckFriendshipStatus(r.Context(), caller, targetID)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
