package session

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Session is the client-held record of the authenticated principal.
// The zero value means logged out. Token, Role and UserID are always set
// and cleared together; the Store is the only component that mutates them.
type Session struct {
	Token     string    // Opaque bearer credential
	Role      Role      // aspirant, institution or admin
	UserID    string    // Opaque account identifier
	ExpiresAt time.Time // Best-effort expiry hint, zero when unreadable
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// ExpiredBy reports whether the token is locally known to be expired at the
// given instant. A session without a readable expiry never reports expired;
// the server remains the authority either way.
func (s Session) ExpiredBy(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// tokenExpiry extracts the exp claim from a JWT-shaped bearer token without
// verifying the signature. The token stays opaque otherwise: a token that is
// not a JWT, or carries no exp claim, yields a zero time.
func tokenExpiry(rawToken string) time.Time {
	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	claims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return time.Time{}
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}
	}
	return time.Unix(int64(exp), 0)
}
