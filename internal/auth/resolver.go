package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the identity provider's session token.
const CookieName = "auth_token"

// ErrUnauthenticated is returned when a request carries no valid identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// ResolveCaller returns the verified user id for r. The token is read from the
// Authorization bearer header, falling back to the auth_token cookie.
func ResolveCaller(r *http.Request) (uuid.UUID, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		if c, err := r.Cookie(CookieName); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return uuid.Nil, fmt.Errorf("%w: missing %s", ErrUnauthenticated, CookieName)
	}

	sub, err := AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid user id in token", ErrUnauthenticated)
	}
	return userID, nil
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
