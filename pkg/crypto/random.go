package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	DefaultRandomBytes = 32 // 256 bits
	fingerprintLength  = 12
)

// RandomString returns byteLength random bytes, URL-safe base64 encoded.
// A non-positive length uses DefaultRandomBytes.
func RandomString(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultRandomBytes
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Fingerprint is a short, non-reversible label for a secret value, safe
// to log when two requests need to be correlated.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
