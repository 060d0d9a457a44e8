// Package authplane implements TalkTo's three-principal authentication
// plane: cookie sessions, bearer API keys, and the localhost bypass.
package authplane

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

const (
	SessionTokenPrefix = "ses_"
	APIKeyTokenPrefix  = "tk_"
	keyPrefixDisplayLen = 11
)

// GenerateToken returns a CSPRNG 32-byte token, URL-safe-base64 encoded
// and prefixed, per spec §4.1.
func GenerateToken(prefix string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken hashes a token with plain SHA-256 — no salt, since the token
// itself is 256 bits of CSPRNG entropy.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualHash performs a constant-time comparison of two hex-encoded hashes.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// KeyPrefix returns the first keyPrefixDisplayLen characters of a token
// for display purposes (e.g. "tk_AbCdEfGh").
func KeyPrefix(token string) string {
	if len(token) <= keyPrefixDisplayLen {
		return token
	}
	return token[:keyPrefixDisplayLen]
}

// IsAPIKeyToken reports whether a bearer token looks like a workspace API
// key; only tk_-prefixed tokens are treated as keys, per spec §4.1.
func IsAPIKeyToken(token string) bool {
	return len(token) > len(APIKeyTokenPrefix) && token[:len(APIKeyTokenPrefix)] == APIKeyTokenPrefix
}
