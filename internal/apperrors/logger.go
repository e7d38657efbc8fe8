package apperrors

import (
	"log"
	"sync"
	"time"
)

// BufferCap bounds the in-memory log buffer.
const BufferCap = 1000

// Level is the log level derived from an error's severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// levelFor maps severity to level. CRITICAL and HIGH are errors, MEDIUM is
// a warning, LOW is informational.
func levelFor(s Severity) Level {
	switch s {
	case SeverityCritical, SeverityHigh:
		return LevelError
	case SeverityMedium:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// RequestContext is what the transport layer knows about the request that
// produced an error.
type RequestContext struct {
	RequestID string
	UserID    string
	IP        string
	UserAgent string
}

// Entry is one structured log record.
type Entry struct {
	Time      time.Time         `json:"time"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Category  Category          `json:"category,omitempty"`
	Severity  Severity          `json:"severity,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// Sink receives entries for external delivery. Forward must not block the
// caller for long; implementations own their buffering.
type Sink interface {
	Forward(Entry)
}

// SecurityRecorder receives the mirror copy of authentication-category
// entries, independent of the general sink.
type SecurityRecorder interface {
	RecordAuthFailure(Entry)
}

// Logger classifies errors, keeps the last BufferCap entries in a ring and
// emits each entry to the process log at a level matching its severity.
// In a production posture entries are also forwarded to the sink.
type Logger struct {
	mu    sync.Mutex
	buf   []Entry
	start int
	count int

	production bool
	sink       Sink
	security   SecurityRecorder
	nowF       func() time.Time
}

// NewLogger returns a Logger. sink and security may be nil.
func NewLogger(production bool, sink Sink, security SecurityRecorder) *Logger {
	return &Logger{
		buf:        make([]Entry, BufferCap),
		production: production,
		sink:       sink,
		security:   security,
		nowF:       func() time.Time { return time.Now().UTC() },
	}
}

// Log records err with the given request context. Unclassified errors are
// treated as CRITICAL system faults.
func (l *Logger) Log(err error, req RequestContext) {
	e := Entry{
		Time:      l.nowF(),
		Message:   err.Error(),
		RequestID: req.RequestID,
		UserID:    req.UserID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
	}
	if appErr := AsAppError(err); appErr != nil {
		e.Code = appErr.Code
		e.Category = appErr.Category
		e.Severity = appErr.Severity
		e.Context = appErr.Context
		if appErr.UserID != "" {
			e.UserID = appErr.UserID
		}
		if appErr.RequestID != "" {
			e.RequestID = appErr.RequestID
		}
	} else {
		e.Code = "INTERNAL_SERVER_ERROR"
		e.Category = CategorySystem
		e.Severity = SeverityCritical
	}
	e.Level = levelFor(e.Severity)

	l.mu.Lock()
	l.buf[(l.start+l.count)%BufferCap] = e
	if l.count < BufferCap {
		l.count++
	} else {
		l.start = (l.start + 1) % BufferCap
	}
	l.mu.Unlock()

	log.Printf("[%s] %s code=%s category=%s requestId=%s userId=%s",
		e.Level, e.Message, e.Code, e.Category, e.RequestID, e.UserID)

	if l.production && l.sink != nil {
		l.sink.Forward(e)
	}
	if e.Category == CategoryAuthentication && l.security != nil {
		l.security.RecordAuthFailure(e)
	}
}

// Filter narrows a Recent query. Zero values match everything.
type Filter struct {
	Level  Level
	UserID string
	Limit  int
}

// Recent returns buffered entries, newest first, narrowed by f.
func (l *Logger) Recent(f Filter) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, l.count)
	for i := l.count - 1; i >= 0; i-- {
		e := l.buf[(l.start+i)%BufferCap]
		if f.Level != "" && e.Level != f.Level {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}
