package apperrors

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// AsAppError unwraps err to an *AppError, or nil.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// errorBody is the client-visible envelope for classified errors.
type errorBody struct {
	Message   string            `json:"message"`
	Code      string            `json:"code"`
	Category  Category          `json:"category,omitempty"`
	Severity  Severity          `json:"severity,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Stack     string            `json:"stack,omitempty"`
}

// WriteError is the single place that turns an error into an HTTP response.
// Operational AppErrors echo their classification; everything else collapses
// to a generic 500. Outside production the internal cause and context are
// included to aid debugging.
func WriteError(w http.ResponseWriter, err error, requestID string, production bool) {
	w.Header().Set("Content-Type", "application/json")

	appErr := AsAppError(err)
	if appErr == nil || !appErr.Operational {
		body := errorBody{
			Message:   "Something went wrong",
			Code:      "INTERNAL_SERVER_ERROR",
			RequestID: requestID,
		}
		if !production && err != nil {
			body.Stack = err.Error()
		}
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]errorBody{"error": body})
		return
	}

	body := errorBody{
		Message:   appErr.Message,
		Code:      appErr.Code,
		Category:  appErr.Category,
		Severity:  appErr.Severity,
		RequestID: requestID,
	}
	if !production {
		body.Context = appErr.Context
		if cause := appErr.Unwrap(); cause != nil {
			body.Stack = cause.Error()
		}
	}
	w.WriteHeader(appErr.StatusCode)
	writeJSON(w, map[string]errorBody{"error": body})
}

// WriteSimpleError emits the flat {error: message} shape used by the rate
// limit and auth middleware contracts.
func WriteSimpleError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing to do but note it.
		log.Printf("apperrors: encode response: %v", err)
	}
}
