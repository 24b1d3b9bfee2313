package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/relationship"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// parseID parses a uuid field from a request, rejecting the nil uuid.
func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errors.New("nil uuid")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps relationship outcomes to a status code and a message per kind.
func writeServiceError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, relationship.ErrNotFound):
		http.Error(w, "friend request not found", http.StatusNotFound)
	case errors.Is(err, relationship.ErrForbidden):
		http.Error(w, "only the receiver can respond to this friend request", http.StatusForbidden)
	case errors.Is(err, relationship.ErrAlreadyFriends):
		http.Error(w, "you are already friends with this user", http.StatusConflict)
	case errors.Is(err, relationship.ErrRequestAlreadyPending):
		http.Error(w, "a friend request with this user is already pending", http.StatusConflict)
	case errors.Is(err, relationship.ErrSelfRequest):
		http.Error(w, "cannot friend yourself", http.StatusBadRequest)
	default:
		logger.WithError(err).Error("relationship operation failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
