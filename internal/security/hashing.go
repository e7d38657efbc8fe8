package security

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password. Returns the hash as a string
// suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash using constant-time
// comparison. Returns nil if they match; returns an error (including
// bcrypt.ErrMismatchedHashAndPassword) if they do not or on invalid hash.
// Callers must not distinguish malformed-hash errors from mismatches when
// reporting to end users.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}

// Character classes for generated credentials. Every generated password draws
// from all four so it always satisfies the password policy.
const (
	genUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	genLower   = "abcdefghijklmnopqrstuvwxyz"
	genDigits  = "0123456789"
	genSymbols = "!@#$%^&*"

	// GeneratedPasswordLength is the length of passwords from GenerateSecurePassword.
	GeneratedPasswordLength = 16
)

// GenerateSecurePassword returns a random 16-character password drawn
// uniformly from upper/lower/digit/symbol characters, with at least one
// character from each class. Used for generated-credential flows.
func GenerateSecurePassword() (string, error) {
	alphabet := genUpper + genLower + genDigits + genSymbols
	buf := make([]byte, GeneratedPasswordLength)

	// One guaranteed pick per class, the rest from the full alphabet.
	classes := []string{genUpper, genLower, genDigits, genSymbols}
	for i, class := range classes {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	for i := len(classes); i < GeneratedPasswordLength; i++ {
		c, err := randomByte(alphabet)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// Shuffle so the guaranteed class characters are not position-predictable.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func randomByte(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
