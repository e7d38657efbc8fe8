// Package breaker provides a circuit breaker for calls to external
// dependencies (payment gateway, email provider). After a run of failures
// the circuit opens and calls fail fast; after a cool-down one probe call
// is let through to test recovery.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// State is the circuit position.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned when the circuit rejects a call without running it.
var ErrOpen = errors.New("circuit breaker is open")

// Options configure a Breaker. Zero values fall back to the defaults.
type Options struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit. Default 5.
	FailureThreshold int
	// ResetTimeout is how long after the last failure the circuit waits
	// before allowing a probe. Default 30s.
	ResetTimeout time.Duration
	// OnStateChange, if set, is called after every transition with the
	// previous and new state. Called outside the breaker lock.
	OnStateChange func(name string, from, to State)
}

// Breaker guards one named dependency.
type Breaker struct {
	name string
	opts Options

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	nowF        func() time.Time
}

// New returns a closed Breaker for the named dependency.
func New(name string, opts Options) *Breaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 30 * time.Second
	}
	return &Breaker{
		name:  name,
		opts:  opts,
		state: StateClosed,
		nowF:  func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs fn under the circuit's protection. When the circuit is open
// and the cool-down has not elapsed, fn is not run and ErrOpen is returned.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}
	err := fn()
	b.afterCall(err)
	return err
}

// State returns the current circuit position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count. Used by tests and the
// health endpoint.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	var changed *State
	if b.state == StateOpen {
		if b.nowF().Sub(b.lastFailure) < b.opts.ResetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		changed = b.transition(StateHalfOpen)
	}
	b.mu.Unlock()
	b.notify(changed, StateHalfOpen)
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	var changed *State
	var to State
	if err != nil {
		b.failures++
		b.lastFailure = b.nowF()
		if b.state == StateHalfOpen || b.failures >= b.opts.FailureThreshold {
			changed, to = b.transition(StateOpen), StateOpen
		}
	} else {
		b.failures = 0
		if b.state != StateClosed {
			changed, to = b.transition(StateClosed), StateClosed
		}
	}
	b.mu.Unlock()
	b.notify(changed, to)
}

// transition changes state while the caller holds b.mu. It returns the
// previous state when a real change happened, nil otherwise; the callback
// fires later, outside the lock.
func (b *Breaker) transition(to State) *State {
	from := b.state
	b.state = to
	if from == to {
		return nil
	}
	return &from
}

func (b *Breaker) notify(from *State, to State) {
	if from == nil {
		return
	}
	if cb := b.opts.OnStateChange; cb != nil {
		cb(b.name, *from, to)
	}
}
