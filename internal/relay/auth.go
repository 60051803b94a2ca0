package relay

import (
	"crypto/subtle"
	"strings"
)

// ResolveCredential picks the caller credential: the normalized token
// parameter when present, otherwise the Authorization header. A
// two-part "Bearer <value>" header yields the value; any other header
// shape is taken verbatim.
func ResolveCredential(p Params, authHeader string) string {
	if tok := p["token"]; tok != "" {
		return tok
	}
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return authHeader
}

// Authenticate compares the presented credential against the shared
// secret. An unconfigured server-side secret is a configuration
// error, never an auth success.
func Authenticate(credential, secret string) error {
	if secret == "" {
		return ErrNoServerToken
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
