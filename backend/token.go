package backend

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired inspects token as an unverified JWT. ok is false for opaque tokens
// or JWTs without an exp claim; the service stays authoritative for those.
func tokenExpired(token string, now time.Time) (expired, ok bool) {
	if strings.Count(token, ".") != 2 {
		return false, false
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false, false
	}
	if claims.ExpiresAt == nil {
		return false, false
	}
	return !now.Before(claims.ExpiresAt.Time), true
}
