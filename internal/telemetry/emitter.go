// Package telemetry exports security events to external pipelines (Kafka,
// OTLP) without coupling the auth path to any one backend.
package telemetry

import (
	"context"
	"log"
	"time"

	auditdomain "auction-marketplace/backend/internal/audit/domain"
)

// EventEmitter sends one security event to an external pipeline.
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *auditdomain.SecurityEvent) error
}

// emitTimeout bounds a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long main waits after the HTTP server drains
// before shutting down the OTel providers, so in-flight async emits finish.
// Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine so the request path never waits on the
// pipeline. The goroutine uses a fresh context: request cancellation must
// not abort an emit already under way.
func EmitAsync(emitter EventEmitter, event *auditdomain.SecurityEvent) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}

// AsyncAdapter bridges the audit logger's Emitter to an EventEmitter using
// EmitAsync, so persistence and export never block each other.
type AsyncAdapter struct {
	Target EventEmitter
}

// Emit satisfies audit.Emitter.
func (a AsyncAdapter) Emit(_ context.Context, e *auditdomain.SecurityEvent) {
	EmitAsync(a.Target, e)
}

// MultiEmitter fans one event out to several pipelines.
type MultiEmitter []EventEmitter

// Emit sends to every child, returning the first error after trying all.
func (m MultiEmitter) Emit(ctx context.Context, e *auditdomain.SecurityEvent) error {
	var firstErr error
	for _, child := range m {
		if child == nil {
			continue
		}
		if err := child.Emit(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
