package hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"rewards-admin/internal/config"
)

var ErrInvalidHash = errors.New("invalid hash format")

// Params control the PBKDF2 work factor. Iterations below 100,000 are
// rejected by config validation.
type Params struct {
	Iterations int
	SaltLength int
	KeyLength  int
}

// Hasher derives salted PBKDF2-SHA256 digests for passwords and recovery
// codes. Digests are stored as "salt:key", both hex encoded, so the salt
// travels with the digest.
type Hasher struct {
	params Params
}

func NewHasher(cfg *config.Config) *Hasher {
	return &Hasher{
		params: Params{
			Iterations: cfg.Hashing.PBKDF2Iterations,
			SaltLength: cfg.Hashing.SaltLength,
			KeyLength:  32,
		},
	}
}

// NewHasherWithParams is used by tests that need a cheaper work factor.
func NewHasherWithParams(params Params) *Hasher {
	return &Hasher{params: params}
}

// Hash derives a digest with a fresh random salt. Equal inputs produce
// different digests across calls.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(plaintext), salt, h.params.Iterations, h.params.KeyLength, sha256.New)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify recomputes the digest with the embedded salt and compares in
// constant time. A malformed digest verifies as false, never as an error
// visible to callers.
func (h *Hasher) Verify(plaintext, digest string) bool {
	salt, expected, err := decodeDigest(digest)
	if err != nil {
		return false
	}

	key := pbkdf2.Key([]byte(plaintext), salt, h.params.Iterations, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(key, expected) == 1
}

func decodeDigest(digest string) (salt, key []byte, err error) {
	parts := strings.SplitN(digest, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, nil, ErrInvalidHash
	}
	salt, err = hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, ErrInvalidHash
	}
	key, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, ErrInvalidHash
	}
	return salt, key, nil
}
