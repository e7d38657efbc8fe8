package domain

import "time"

// Data is the client-provided portion of a session, captured at login.
type Data struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Session represents one authenticated device/browser. Token validity is
// tracked separately; destroying a session invalidates the device even while
// its tokens are unexpired.
type Session struct {
	ID           string    `json:"id"`
	Data         Data      `json:"data"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
