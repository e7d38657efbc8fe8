package breaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(opts Options) (*Breaker, *time.Time) {
	b := New("payment-gateway", opts)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.nowF = func() time.Time { return now }
	return b, &now
}

func fail(b *Breaker) error { return b.Execute(func() error { return errBoom }) }
func ok(b *Breaker) error   { return b.Execute(func() error { return nil }) }

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(Options{FailureThreshold: 3, ResetTimeout: 30 * time.Second})

	fail(b)
	fail(b)
	if got := b.State(); got != StateClosed {
		t.Fatalf("state after 2 failures = %s, want CLOSED", got)
	}
	fail(b)
	if got := b.State(); got != StateOpen {
		t.Fatalf("state after 3 failures = %s, want OPEN", got)
	}
	if err := ok(b); !errors.Is(err, ErrOpen) {
		t.Errorf("call while open: err = %v, want ErrOpen", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Options{FailureThreshold: 3})

	fail(b)
	fail(b)
	ok(b)
	if got := b.Failures(); got != 0 {
		t.Fatalf("failures after success = %d, want 0", got)
	}
	fail(b)
	fail(b)
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %s, want CLOSED (count was reset)", got)
	}
}

func TestBreaker_HalfOpenProbeSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(Options{FailureThreshold: 1, ResetTimeout: 30 * time.Second})

	fail(b)
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %s, want OPEN", got)
	}

	*now = now.Add(31 * time.Second)
	probed := false
	err := b.Execute(func() error { probed = true; return nil })
	if err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if !probed {
		t.Fatal("probe function never ran")
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state after successful probe = %s, want CLOSED", got)
	}
}

func TestBreaker_HalfOpenProbeFailureReopens(t *testing.T) {
	b, now := newTestBreaker(Options{FailureThreshold: 5, ResetTimeout: 30 * time.Second})

	for i := 0; i < 5; i++ {
		fail(b)
	}
	*now = now.Add(31 * time.Second)
	if err := fail(b); !errors.Is(err, errBoom) {
		t.Fatalf("probe: err = %v, want errBoom", err)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state after failed probe = %s, want OPEN", got)
	}
	// Cool-down restarts from the probe failure.
	if err := ok(b); !errors.Is(err, ErrOpen) {
		t.Errorf("call right after failed probe: err = %v, want ErrOpen", err)
	}
}

func TestBreaker_UnderlyingErrorPassesThrough(t *testing.T) {
	b, _ := newTestBreaker(Options{FailureThreshold: 5})
	if err := fail(b); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
}

func TestBreaker_OnStateChange(t *testing.T) {
	type change struct{ from, to State }
	var got []change
	b, now := newTestBreaker(Options{
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		OnStateChange: func(name string, from, to State) {
			if name != "payment-gateway" {
				t.Errorf("callback name = %q", name)
			}
			got = append(got, change{from, to})
		},
	})

	fail(b)
	*now = now.Add(2 * time.Second)
	ok(b)

	want := []change{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, got[i], want[i])
		}
	}
}
