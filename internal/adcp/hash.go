package adcp

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes the authentication digest sent in reply to a challenge.
type Hasher interface {
	// Digest returns the lowercase hex digest of challenge followed by secret.
	Digest(challenge, secret []byte) string
}

// SHA256Hasher is the digest scheme ADCP projectors expect.
type SHA256Hasher struct{}

// Digest returns hex(sha256(challenge || secret)), 64 lowercase characters.
func (SHA256Hasher) Digest(challenge, secret []byte) string {
	h := sha256.New()
	h.Write(challenge)
	h.Write(secret)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest is a convenience wrapper around SHA256Hasher.
func Digest(challenge, secret []byte) string {
	return SHA256Hasher{}.Digest(challenge, secret)
}
