package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

var errTokenLength = errors.New("token byte length must be positive")

// GenerateSecureToken draws byteLength bytes from crypto/rand and encodes
// them URL-safe without padding, ready for use in links and JSON bodies.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", errTokenLength
	}

	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashToken returns the hex SHA-256 digest of a token. Refresh and reset
// tokens are persisted only in this form, never as plaintext.
func HashToken(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
