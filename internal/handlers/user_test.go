package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createTestUser(t, "alice", "Alice Anders")
	bob := env.createTestUser(t, "bob", "Bob Anderson")
	env.createTestUser(t, "carol", "Carol")

	w := env.do(t, http.MethodGet, "/users/search?q=a", &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(t, http.MethodGet, "/users/search?q="+url.QueryEscape("ANDER"), &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeBody[[]models.UserSummary](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)

	w = env.do(t, http.MethodPost, "/friends/request", &alice, map[string]string{"user_id": bob.ID.String()})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/users/search?q=ander&with_status=true", &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody[[]models.UserSearchResult](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, models.FriendshipSent, results[0].Status)

	w = env.do(t, http.MethodGet, "/users/search?q=ander&with_status=1", &bob, nil)
	results = decodeBody[[]models.UserSearchResult](t, w)
	require.Len(t, results, 1)
	assert.Equal(t, alice.ID, results[0].ID)
	assert.Equal(t, models.FriendshipPending, results[0].Status)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createTestUser(t, "alice", "Alice")
	bob := env.createTestUser(t, "bob", "Bob")

	w := env.do(t, http.MethodPut, "/user/profile", &alice, map[string]string{
		"username":     "alice",
		"display_name": "  Alice Wonderland ",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[models.UserSummary](t, w)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "Alice Wonderland", got.DisplayName)

	w = env.do(t, http.MethodGet, "/users/search?q=wonder", &bob, nil)
	users := decodeBody[[]models.UserSummary](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)

	w = env.do(t, http.MethodPut, "/user/profile", &alice, map[string]string{"display_name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/user/profile", nil, map[string]string{"display_name": "Mallory"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
