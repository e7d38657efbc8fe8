// Package loki pushes log entries to Grafana Loki. Used as the production
// sink for the application error logger.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"auction-marketplace/backend/internal/apperrors"
)

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // each value is [timestamp_ns, log_line]
}

// Loki label names must match [a-zA-Z_:][a-zA-Z0-9_:]*; values get the same
// treatment to stay queryable.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:]`)

// Sink forwards error log entries to a Loki instance. Implements
// apperrors.Sink; failures are swallowed after the request, the in-memory
// buffer is the source of truth either way.
type Sink struct {
	baseURL string
	client  *http.Client
}

// NewSink returns a Sink pushing to baseURL (e.g. http://localhost:3100),
// or nil when baseURL is empty so callers can treat Loki as optional.
func NewSink(baseURL string) *Sink {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	return &Sink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Forward pushes one entry. Best-effort with a short deadline.
func (s *Sink) Forward(e apperrors.Entry) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	line, err := json.Marshal(e)
	if err != nil {
		return
	}
	labels := map[string]string{
		"level":    string(e.Level),
		"category": string(e.Category),
	}
	_ = s.push(ctx, e.Time, string(line), labels)
}

// PushSecurityEventJSON pushes one already-serialized security event under
// the security_events stream. Used by the worker that drains the Kafka topic.
func (s *Sink) PushSecurityEventJSON(ctx context.Context, payload []byte) error {
	labels := map[string]string{"stream": "security_events"}
	return s.push(ctx, time.Now().UTC(), string(payload), labels)
}

// push sends a single log line with the given stream labels.
func (s *Sink) push(ctx context.Context, timestamp time.Time, line string, labels map[string]string) error {
	streamLabels := map[string]string{"job": "marketplace"}
	for k, v := range labels {
		sanitized := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_")
		if sanitized != "" {
			streamLabels[k] = sanitized
		}
	}
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}
	body, err := json.Marshal(PushRequest{
		Streams: []Stream{{
			Stream: streamLabels,
			Values: [][]string{{fmt.Sprintf("%d", timestamp.UnixNano()), line}},
		}},
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/loki/api/v1/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
