package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks plaintext passwords against stored bcrypt
// hashes. bcrypt embeds its salt in the hash and compares in constant
// time, so a mismatch is indistinguishable from the outside.
type CredentialVerifier struct {
	cost int
}

func NewCredentialVerifier() *CredentialVerifier {
	return &CredentialVerifier{cost: bcrypt.DefaultCost}
}

// Hash derives a salted bcrypt hash from the plaintext password.
func (v *CredentialVerifier) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches storedHash. A mismatch is not
// an error; error is reserved for malformed hash input. Neither the
// plaintext nor the hash is ever logged or returned.
func (v *CredentialVerifier) Verify(plaintext, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("malformed password hash: %w", err)
}
