package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a JWT session token without verifying
// its signature. Opaque tokens report ok=false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenTTL is the remaining lifetime of token, or 0 when it carries no
// expiry. An already expired token reports a negative duration.
func TokenTTL(token string, now time.Time) time.Duration {
	exp, ok := TokenExpiry(token)
	if !ok {
		return 0
	}
	ttl := exp.Sub(now)
	if ttl == 0 {
		return -1
	}
	return ttl
}
