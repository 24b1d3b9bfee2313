package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/models"
)

const maxDisplayNameLen = 100

type profileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// SearchUsersHandler searches users by display name. With with_status=true each result
// carries the caller's friendship status.
//
// Query: ?q=ann&with_status=true
func (s *APIServer) SearchUsersHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	q := r.URL.Query()
	withStatus, _ := strconv.ParseBool(q.Get("with_status"))

	if withStatus {
		results, err := s.Relationships.SearchUsersWithStatus(r.Context(), caller, q.Get("q"))
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	users, err := s.Relationships.SearchUsers(r.Context(), caller, q.Get("q"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateProfileHandler mirrors the caller's profile from the identity provider into the
// user directory so they can be found and displayed.
//
// Request payload:
//
//	{
//	  "username": "ann",
//	  "display_name": "Ann Perkins",
//	  "avatar_url": "https://..."
//	}
func (s *APIServer) UpdateProfileHandler(w http.ResponseWriter, r *http.Request, caller uuid.UUID) {
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	u := models.UserSummary{
		ID:          caller,
		Username:    strings.TrimSpace(req.Username),
		DisplayName: strings.TrimSpace(req.DisplayName),
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
	}
	if u.DisplayName == "" || utf8.RuneCountInString(u.DisplayName) > maxDisplayNameLen {
		http.Error(w, "display_name must be 1-100 characters", http.StatusBadRequest)
		return
	}

	if err := s.Profiles.UpsertUser(r.Context(), u); err != nil {
		s.Logger.WithError(err).WithField("user_id", caller).Error("failed to update profile")
		http.Error(w, "error updating profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
