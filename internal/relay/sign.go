package relay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// signLen is the hex-prefix length of the link signature. The tag has
// no expiry or nonce: already-issued deep links must keep verifying,
// so the scheme cannot change without breaking them.
const signLen = 16

// Sign derives the authenticity tag for a landing-page link over
// source, content and datetime, keyed by the shared secret.
func Sign(source, content, datetime, secret string) string {
	sum := sha256.Sum256([]byte(source + "|" + content + "|" + datetime + "|" + secret))
	return hex.EncodeToString(sum[:])[:signLen]
}

// VerifySign recomputes the tag and accepts only on exact equality.
func VerifySign(source, content, datetime, secret, presented string) bool {
	expected := Sign(source, content, datetime, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
