package loki

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/backend/internal/apperrors"
)

func TestSink_Forward(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode push body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewSink(srv.URL)
	sink.Forward(apperrors.Entry{
		Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Level:    apperrors.LevelError,
		Message:  "query failed",
		Category: apperrors.CategoryDatabase,
	})

	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	stream := got.Streams[0]
	if stream.Stream["job"] != "marketplace" || stream.Stream["level"] != "error" {
		t.Errorf("labels = %v", stream.Stream)
	}
	if len(stream.Values) != 1 || len(stream.Values[0]) != 2 {
		t.Fatalf("values = %v", stream.Values)
	}
}

func TestNewSink_EmptyURL(t *testing.T) {
	if s := NewSink("  "); s != nil {
		t.Error("expected nil sink for empty URL")
	}
}
