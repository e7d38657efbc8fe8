package telemetry

import (
	"context"
	"errors"
	"testing"

	auditdomain "auction-marketplace/backend/internal/audit/domain"
	"auction-marketplace/backend/internal/breaker"
)

type stubEmitter struct {
	calls int
	err   error
}

func (s *stubEmitter) Emit(context.Context, *auditdomain.SecurityEvent) error {
	s.calls++
	return s.err
}

func TestGuardedEmitterForwards(t *testing.T) {
	stub := &stubEmitter{}
	g := NewGuardedEmitter("test", stub)

	if err := g.Emit(context.Background(), &auditdomain.SecurityEvent{}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("calls = %d, want 1", stub.calls)
	}
	if got := g.State(); got != breaker.StateClosed {
		t.Fatalf("state = %v, want closed", got)
	}
}

func TestGuardedEmitterOpensAfterRepeatedFailures(t *testing.T) {
	stub := &stubEmitter{err: errors.New("broker down")}
	g := NewGuardedEmitter("test", stub)

	for i := 0; i < 5; i++ {
		if err := g.Emit(context.Background(), &auditdomain.SecurityEvent{}); err == nil {
			t.Fatalf("Emit %d: want error", i)
		}
	}
	if got := g.State(); got != breaker.StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	// Open circuit fails fast without touching the target.
	before := stub.calls
	if err := g.Emit(context.Background(), &auditdomain.SecurityEvent{}); !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("Emit on open circuit: err = %v, want ErrOpen", err)
	}
	if stub.calls != before {
		t.Fatalf("target called while circuit open")
	}
}

func TestMultiEmitterFansOutAndReportsFirstError(t *testing.T) {
	ok := &stubEmitter{}
	bad := &stubEmitter{err: errors.New("sink down")}
	ok2 := &stubEmitter{}
	m := MultiEmitter{ok, bad, ok2}

	err := m.Emit(context.Background(), &auditdomain.SecurityEvent{})
	if err == nil || err.Error() != "sink down" {
		t.Fatalf("err = %v, want sink down", err)
	}
	if ok.calls != 1 || bad.calls != 1 || ok2.calls != 1 {
		t.Fatalf("all children should be called: %d %d %d", ok.calls, bad.calls, ok2.calls)
	}
}
