package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher generates and verifies salted password hashes (spec §4.5).
// bcrypt embeds its own salt and algorithm tag (e.g. "$2a$10$...") inside
// the stored form, so Verify never needs a separate salt column.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. cost is the bcrypt work factor; 0 selects
// bcrypt.DefaultCost.
func NewHasher(cost int) Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

// Hash returns the stored form for a plaintext password.
func (h Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the password that produced
// storedForm. storedForm carries its own salt and cost, extracted by
// bcrypt from the "$2a$cost$salthash" structure, so no external salt
// needs to be threaded through.
func (h Hasher) Verify(plaintext, storedForm string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedForm), []byte(plaintext))
	return err == nil
}
