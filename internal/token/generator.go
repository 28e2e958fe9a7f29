package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const sessionTokenBytes = 32

var recoveryCodeSpace = big.NewInt(1000000)

// NewSessionToken returns a 64-character hex string from 32 bytes of
// crypto-random data. Tokens are opaque; nothing is encoded in them.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewRecoveryCode returns a zero-padded 6-digit code, uniformly
// distributed over 000000-999999.
func NewRecoveryCode() (string, error) {
	n, err := rand.Int(rand.Reader, recoveryCodeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate recovery code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
