package telemetry

import (
	"context"
	"time"
)

// EventType names the session operation a SessionEvent describes.
type EventType string

const (
	EventSignup  EventType = "signup"
	EventLogin   EventType = "login"
	EventRefresh EventType = "refresh"
	EventLogout  EventType = "logout"
)

// Outcome values for SessionEvent.Outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SessionEvent is the JSON shape written to Kafka and mirrored as an OTel log record.
// It never carries credentials, tokens or hashes.
type SessionEvent struct {
	Type      EventType `json:"eventType"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	UserID    int64     `json:"userId,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// RequestInfo is per-request metadata attached to session events.
type RequestInfo struct {
	ClientIP  string
	RequestID string
}

type requestInfoKey struct{}

// WithRequestInfo returns a context carrying info. The HTTP middleware sets it once per request.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the RequestInfo from ctx and true if set; otherwise the zero value, false.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	v, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return v, ok
}
