package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// generateSecret returns a fresh URL-safe random secret with 256 bits of
// entropy. The raw value is handed to the caller exactly once; only its hash
// is ever persisted.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashSecret computes the hex-encoded SHA-256 digest used as the storage key
// for refresh handles and single-use tokens.
func hashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// constantTimeEquals compares two hash strings without leaking the position
// of the first differing byte through timing.
func constantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
