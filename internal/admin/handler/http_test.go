package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-marketplace/backend/internal/apperrors"
	auditdomain "auction-marketplace/backend/internal/audit/domain"
)

type fakeEvents struct {
	recent []*auditdomain.SecurityEvent
	byUser map[string][]*auditdomain.SecurityEvent
}

func (f *fakeEvents) Create(context.Context, *auditdomain.SecurityEvent) error { return nil }

func (f *fakeEvents) ListByUser(_ context.Context, userID string, _, _ int32) ([]*auditdomain.SecurityEvent, error) {
	return f.byUser[userID], nil
}

func (f *fakeEvents) ListRecent(context.Context, int32, int32) ([]*auditdomain.SecurityEvent, error) {
	return f.recent, nil
}

func TestRecentErrors(t *testing.T) {
	errLog := apperrors.NewLogger(false, nil, nil)
	errLog.Log(apperrors.NewValidation("bad email"), apperrors.RequestContext{UserID: "u-1"})
	errLog.Log(apperrors.NewDatabase("boom", nil), apperrors.RequestContext{UserID: "u-2"})
	h := NewHandler(errLog, nil)

	rec := httptest.NewRecorder()
	h.RecentErrors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/errors?level=error", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data []apperrors.Entry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].Message != "boom" {
		t.Errorf("data = %+v, want only the error-level entry", body.Data)
	}
}

func TestSecurityEvents(t *testing.T) {
	events := &fakeEvents{
		recent: []*auditdomain.SecurityEvent{{ID: "e1", EventType: "login_failure"}},
		byUser: map[string][]*auditdomain.SecurityEvent{
			"u-1": {{ID: "e2", EventType: "password_changed", UserID: "u-1"}},
		},
	}
	h := NewHandler(apperrors.NewLogger(false, nil, nil), events)

	rec := httptest.NewRecorder()
	h.SecurityEvents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/security-events", nil))
	var body struct {
		Data []auditdomain.SecurityEvent `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != "e1" {
		t.Errorf("recent data = %+v", body.Data)
	}

	rec = httptest.NewRecorder()
	h.SecurityEvents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/security-events?userId=u-1", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 1 || body.Data[0].ID != "e2" {
		t.Errorf("by-user data = %+v", body.Data)
	}
}
