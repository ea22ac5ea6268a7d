// Package auth inspects bearer tokens on the client side.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned for a blank token.
var ErrEmptyToken = errors.New("token is empty")

// ExpiresAt returns the expiry encoded in a JWT, if it has one.
//
// The signature is not verified. The result only drives client warnings;
// the server stays authoritative and rejects bad tokens.
func ExpiresAt(token string) (time.Time, bool) {
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

// ExpiringSoon reports whether token is expired or expires within window of
// now. Opaque tokens without an expiry never count as expiring.
func ExpiringSoon(token string, window time.Duration, now time.Time) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return true, ErrEmptyToken
	}
	exp, ok := ExpiresAt(token)
	if !ok {
		return false, nil
	}
	return exp.Sub(now) <= window, nil
}
