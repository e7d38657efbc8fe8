// Package store provides session persistence behind a storage-agnostic
// interface, so the in-memory store can be swapped for a distributed backend
// without changing call sites.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"auction-marketplace/backend/internal/session/domain"
)

// sessionIDBytes is the entropy of a session identifier (64 hex chars).
const sessionIDBytes = 32

// Store defines persistence for sessions. Implementations must serialize
// operations per session id: no lost updates to LastAccessed and no
// read-then-delete races across concurrent requests for the same session.
type Store interface {
	// Create allocates an opaque random id and stores the record with
	// CreatedAt = LastAccessed = now. Returns the new session id.
	Create(ctx context.Context, data domain.Data) (string, error)
	// Get returns the session for id, or nil if missing or already reaped.
	// A successful lookup touches LastAccessed (sliding expiry).
	Get(ctx context.Context, id string) (*domain.Session, error)
	// Destroy removes the session. Returns false if it did not exist.
	Destroy(ctx context.Context, id string) (bool, error)
	// DestroyAllForUser removes every session owned by userID and returns the count.
	DestroyAllForUser(ctx context.Context, userID string) (int, error)
	// SweepExpired removes sessions with now - LastAccessed > maxIdle and
	// returns the count. Called on a fixed schedule independent of traffic.
	SweepExpired(ctx context.Context, maxIdle time.Duration) (int, error)
}

// NewSessionID returns an opaque random session identifier.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
