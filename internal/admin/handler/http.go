// Package handler serves the admin-only observability surface: the
// in-memory error buffer and the durable security event log.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"auction-marketplace/backend/internal/apperrors"
	auditrepo "auction-marketplace/backend/internal/audit/repository"
)

const defaultListLimit = 100

// Handler serves the /api/v1/admin routes. Runs behind the auth middleware
// with an admin role requirement.
type Handler struct {
	errLog *apperrors.Logger
	events auditrepo.Repository
}

// NewHandler returns an admin handler. events may be nil; the security
// event route then returns an empty list.
func NewHandler(errLog *apperrors.Logger, events auditrepo.Repository) *Handler {
	return &Handler{errLog: errLog, events: events}
}

// RecentErrors handles GET /api/v1/admin/errors. Query params: level
// (info|warn|error), userId, limit. The buffer is in-memory only, so this
// is a debugging window, not a durable audit trail.
func (h *Handler) RecentErrors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := apperrors.Filter{
		Level:  apperrors.Level(q.Get("level")),
		UserID: q.Get("userId"),
		Limit:  queryInt(q.Get("limit"), defaultListLimit),
	}
	entries := h.errLog.Recent(filter)
	respond(w, map[string]any{"success": true, "data": entries})
}

// SecurityEvents handles GET /api/v1/admin/security-events. Query params:
// userId, limit, offset.
func (h *Handler) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := int32(queryInt(q.Get("limit"), defaultListLimit))
	offset := int32(queryInt(q.Get("offset"), 0))

	if h.events == nil {
		respond(w, map[string]any{"success": true, "data": []any{}})
		return
	}
	var events any
	var err error
	if userID := q.Get("userId"); userID != "" {
		events, err = h.events.ListByUser(r.Context(), userID, limit, offset)
	} else {
		events, err = h.events.ListRecent(r.Context(), limit, offset)
	}
	if err != nil {
		apperrors.WriteError(w, apperrors.NewDatabase("list security events", err), "", true)
		return
	}
	respond(w, map[string]any{"success": true, "data": events})
}

func respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
