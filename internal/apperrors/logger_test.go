package apperrors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type captureSink struct{ entries []Entry }

func (s *captureSink) Forward(e Entry) { s.entries = append(s.entries, e) }

type captureSecurity struct{ entries []Entry }

func (s *captureSecurity) RecordAuthFailure(e Entry) { s.entries = append(s.entries, e) }

func TestLogger_LevelsFromSeverity(t *testing.T) {
	l := NewLogger(false, nil, nil)

	l.Log(NewValidation("low"), RequestContext{})
	l.Log(NewConflict("medium"), RequestContext{})
	l.Log(NewDatabase("high", nil), RequestContext{})
	l.Log(errors.New("unclassified"), RequestContext{})

	got := l.Recent(Filter{})
	if len(got) != 4 {
		t.Fatalf("Recent returned %d entries, want 4", len(got))
	}
	// Newest first.
	wantLevels := []Level{LevelError, LevelError, LevelWarn, LevelInfo}
	for i, want := range wantLevels {
		if got[i].Level != want {
			t.Errorf("entry %d level = %s, want %s", i, got[i].Level, want)
		}
	}
	if got[0].Code != "INTERNAL_SERVER_ERROR" || got[0].Severity != SeverityCritical {
		t.Errorf("unclassified entry = %+v, want CRITICAL system fault", got[0])
	}
}

func TestLogger_RingBufferCaps(t *testing.T) {
	l := NewLogger(false, nil, nil)
	for i := 0; i < BufferCap+10; i++ {
		l.Log(NewValidation(fmt.Sprintf("e%d", i)), RequestContext{})
	}
	got := l.Recent(Filter{})
	if len(got) != BufferCap {
		t.Fatalf("buffer holds %d entries, want %d", len(got), BufferCap)
	}
	if got[0].Message != fmt.Sprintf("e%d", BufferCap+9) {
		t.Errorf("newest entry = %q", got[0].Message)
	}
	if got[len(got)-1].Message != "e10" {
		t.Errorf("oldest entry = %q, want e10 (e0..e9 evicted)", got[len(got)-1].Message)
	}
}

func TestLogger_Filters(t *testing.T) {
	l := NewLogger(false, nil, nil)
	l.Log(NewValidation("a"), RequestContext{UserID: "alice"})
	l.Log(NewDatabase("b", nil), RequestContext{UserID: "alice"})
	l.Log(NewValidation("c"), RequestContext{UserID: "bob"})

	if got := l.Recent(Filter{UserID: "alice"}); len(got) != 2 {
		t.Errorf("by user: %d entries, want 2", len(got))
	}
	if got := l.Recent(Filter{Level: LevelError}); len(got) != 1 || got[0].Message != "b" {
		t.Errorf("by level: %v", got)
	}
	if got := l.Recent(Filter{Limit: 1}); len(got) != 1 || got[0].Message != "c" {
		t.Errorf("limit: %v", got)
	}
}

func TestLogger_SinkOnlyInProduction(t *testing.T) {
	sink := &captureSink{}
	dev := NewLogger(false, sink, nil)
	dev.Log(NewValidation("dev"), RequestContext{})
	if len(sink.entries) != 0 {
		t.Errorf("dev posture forwarded %d entries", len(sink.entries))
	}

	prod := NewLogger(true, sink, nil)
	prod.Log(NewValidation("prod"), RequestContext{})
	if len(sink.entries) != 1 || sink.entries[0].Message != "prod" {
		t.Errorf("production posture: sink = %v", sink.entries)
	}
}

func TestLogger_AuthenticationMirroredToSecurityLog(t *testing.T) {
	sec := &captureSecurity{}
	l := NewLogger(false, nil, sec)
	l.Log(NewAuthentication("invalid credentials"), RequestContext{IP: "1.2.3.4"})
	l.Log(NewValidation("not auth"), RequestContext{})

	if len(sec.entries) != 1 {
		t.Fatalf("security log got %d entries, want 1", len(sec.entries))
	}
	if sec.entries[0].IP != "1.2.3.4" || sec.entries[0].Category != CategoryAuthentication {
		t.Errorf("mirrored entry = %+v", sec.entries[0])
	}
}

func TestLogger_EntryTimestamps(t *testing.T) {
	l := NewLogger(false, nil, nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.nowF = func() time.Time { return fixed }
	l.Log(NewValidation("x"), RequestContext{RequestID: "r-1"})
	got := l.Recent(Filter{})[0]
	if !got.Time.Equal(fixed) || got.RequestID != "r-1" {
		t.Errorf("entry = %+v", got)
	}
}
