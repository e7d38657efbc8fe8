package domain

import "time"

// SecurityEvent is one durable record in the security log: failed logins,
// password changes, forced logouts. Unlike the in-memory error buffer these
// survive restarts and feed incident review.
type SecurityEvent struct {
	ID        string
	EventType string
	UserID    string
	Email     string
	Reason    string
	IP        string
	UserAgent string
	Metadata  string
	CreatedAt time.Time
}
