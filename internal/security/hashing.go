package security

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt cost used when none is configured. At cost 10 a hash takes
// tens of milliseconds on commodity hardware.
const DefaultHashCost = 10

// Hasher one-way hashes and verifies secrets with bcrypt. It is used for both passwords and
// refresh-token fingerprints. Callers must not log or persist plaintext secrets.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to [bcrypt.MinCost, bcrypt.MaxCost].
// A non-positive cost selects DefaultHashCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = DefaultHashCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// HashSecret produces a salted bcrypt hash of plaintext suitable for storage.
func (h *Hasher) HashSecret(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prepareSecret(plaintext), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret reports whether plaintext matches hash, using bcrypt's constant-time
// comparison. An empty or malformed hash never matches.
func (h *Hasher) VerifySecret(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prepareSecret(plaintext)) == nil
}
