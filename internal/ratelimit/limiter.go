// Package ratelimit implements fixed-window request counting keyed by client
// identity and endpoint class. Windows reset lazily on access; a periodic
// Cleanup bounds memory. State is process-local (see the session store note
// on horizontal scaling).
package ratelimit

import (
	"sync"
	"time"
)

// window is one fixed counting window for a key.
type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window rate limiter. All operations serialize per the
// internal lock, so concurrent requests for the same key cannot lose counts.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	nowF    func() time.Time
}

// NewLimiter returns an empty Limiter.
func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// Allow reports whether another request for key fits in the current window of
// windowDur with the given max. The first request of a window is always
// allowed and starts the window; once the window has passed its reset time
// the counter restarts at 1.
func (l *Limiter) Allow(key string, windowDur time.Duration, max int) bool {
	now := l.nowF()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(windowDur)}
		return true
	}
	if w.count >= max {
		return false
	}
	w.count++
	return true
}

// AllowClass applies the policy for class to the given client identity.
// Unknown classes fall back to the general policy.
func (l *Limiter) AllowClass(clientID string, class Class) bool {
	p, ok := Policies[class]
	if !ok {
		p = Policies[ClassGeneral]
	}
	return l.Allow(clientID+":"+string(class), p.Window, p.Max)
}

// Cleanup removes windows past their reset time and returns the count.
// Run on a fixed schedule (every 5 minutes) to bound memory.
func (l *Limiter) Cleanup() int {
	now := l.nowF()
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked windows. Used by tests.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
