// Package observability carries per-request structured logging for the assistant.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldSessionID is the field name for session ID.
	LogFieldSessionID = "session_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldIntent is the field name for the detected intent.
	LogFieldIntent = "intent"
	// LogFieldBranch is the field name for the response branch.
	LogFieldBranch = "branch"
	// LogFieldConfidence is the field name for response confidence.
	LogFieldConfidence = "confidence"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldMessageLen is the field name for message length.
	LogFieldMessageLen = "message_length"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext represents the context for a single message with structured logging.
type RequestContext struct {
	RequestID string
	SessionID string
	UserID    string
	Intent    string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a request context with a generated request ID.
// A nil logger uses slog.Default().
func NewRequestContext(logger *slog.Logger, sessionID, userID string) *RequestContext {
	return NewRequestContextWithID(logger, uuid.NewString(), sessionID, userID)
}

// NewRequestContextWithID creates a request context with a specific request ID.
func NewRequestContextWithID(logger *slog.Logger, requestID, sessionID, userID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID: requestID,
		SessionID: sessionID,
		UserID:    userID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// SetIntent records the detected intent for subsequent log lines.
func (r *RequestContext) SetIntent(intent string) {
	r.Intent = intent
}

// Info logs an info message.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelInfo, msg, attrs...)
}

// Debug logs a debug message.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelDebug, msg, attrs...)
}

// Warn logs a warning message.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.log(slog.LevelWarn, msg, attrs...)
}

// Error logs an error message with the error.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("error", err.Error()))
	r.log(slog.LevelError, msg, attrs...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) log(level slog.Level, msg string, attrs ...slog.Attr) {
	combined := make([]slog.Attr, 0, len(attrs)+4)
	combined = append(combined,
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldSessionID, r.SessionID),
	)
	if r.UserID != "" {
		combined = append(combined, slog.String(LogFieldUserID, r.UserID))
	}
	if r.Intent != "" {
		combined = append(combined, slog.String(LogFieldIntent, r.Intent))
	}
	combined = append(combined, attrs...)
	r.Logger.LogAttrs(context.Background(), level, msg, combined...)
}

type ctxKey struct{}

// WithRequestContext adds the request context to the context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context from the context.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}
