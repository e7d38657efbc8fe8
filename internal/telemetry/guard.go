package telemetry

import (
	"context"
	"log"

	auditdomain "auction-marketplace/backend/internal/audit/domain"
	"auction-marketplace/backend/internal/breaker"
)

// GuardedEmitter wraps an EventEmitter with a circuit breaker so a dead
// pipeline sheds load instead of stacking timed-out emits. While the breaker
// is open, Emit fails fast with breaker.ErrOpen.
type GuardedEmitter struct {
	target EventEmitter
	cb     *breaker.Breaker
}

// NewGuardedEmitter returns target wrapped in a named breaker with default
// thresholds. State changes are logged.
func NewGuardedEmitter(name string, target EventEmitter) *GuardedEmitter {
	return &GuardedEmitter{
		target: target,
		cb: breaker.New(name, breaker.Options{
			OnStateChange: func(name string, from, to breaker.State) {
				log.Printf("telemetry: breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Emit forwards to the wrapped emitter through the breaker.
func (g *GuardedEmitter) Emit(ctx context.Context, e *auditdomain.SecurityEvent) error {
	return g.cb.Execute(func() error {
		return g.target.Emit(ctx, e)
	})
}

// State exposes the breaker state for health reporting.
func (g *GuardedEmitter) State() breaker.State {
	return g.cb.State()
}
