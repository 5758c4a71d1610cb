package security

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the fixed bcrypt work factor.
const PasswordCost = 10

// bcrypt only reads the first 72 bytes of its input and newer x/crypto
// releases reject longer passwords outright.
const maxPasswordBytes = 72

// BcryptHasher hashes passwords in the calling goroutine. It satisfies
// ports.PasswordHasher; production wires it behind queue.HashPool.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using PasswordCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: PasswordCost}
}

// Hash returns a salted bcrypt digest of plaintext. Empty input is accepted.
func (h *BcryptHasher) Hash(_ context.Context, plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncate(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches digest. A mismatch and a malformed
// digest both yield false.
func (h *BcryptHasher) Compare(_ context.Context, digest, plaintext string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), truncate(plaintext)); err != nil {
		return false, nil
	}
	return true, nil
}

func truncate(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}
