package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a bearer token without verifying it.
// Tokens are opaque to this client, so every field is optional.
type TokenInfo struct {
	Subject   string
	Name      string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry in the past.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Inspect reads the claims of a JWT bearer token without checking its
// signature. Opaque tokens yield a zero TokenInfo and false.
func Inspect(token string) (TokenInfo, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if name, ok := claims["name"].(string); ok {
		info.Name = name
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, true
}
