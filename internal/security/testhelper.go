package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a fixed secret and short
// TTLs. For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	return NewTokenProvider([]byte("test-secret-0123456789abcdef"), "test-issuer", 15*time.Minute, 24*time.Hour)
}
