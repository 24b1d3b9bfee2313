package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCallerFromCookieAndBearer(t *testing.T) {
	require.NoError(t, Init(time.Hour))
	userID := uuid.New()
	token, err := CreateJWT(userID.String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/friends/list", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	got, err := ResolveCaller(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	req = httptest.NewRequest(http.MethodGet, "/friends/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	got, err = ResolveCaller(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestResolveCallerRejects(t *testing.T) {
	require.NoError(t, Init(0))

	notUUID, err := CreateJWT("user_2abc")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub": uuid.New().String(),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredToken, err := expired.SignedString(privateKey)
	require.NoError(t, err)

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.New().String()})
	hmacToken, err := hmac.SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"garbage":      "not-a-jwt",
		"non-uuid sub": notUUID,
		"expired":      expiredToken,
		"wrong alg":    hmacToken,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			_, err := ResolveCaller(req)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestTokenFromRotatedKeyRejected(t *testing.T) {
	require.NoError(t, Init(0))
	token, err := CreateJWT(uuid.New().String())
	require.NoError(t, err)

	require.NoError(t, Init(0))
	_, err = AuthenticateJWT(token)
	assert.Error(t, err)
}

func TestInitFromPathRawKeys(t *testing.T) {
	require.NoError(t, Init(0))
	dir := t.TempDir()
	privPath := filepath.Join(dir, "key")
	pubPath := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(privPath, privateKey, 0o600))
	require.NoError(t, os.WriteFile(pubPath, publicKey, 0o644))
	wantPub := publicKey

	require.NoError(t, InitFromPath(privPath, pubPath, time.Hour))
	assert.Equal(t, wantPub, publicKey)

	userID := uuid.New()
	token, err := CreateJWT(userID.String())
	require.NoError(t, err)
	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), sub)
}
