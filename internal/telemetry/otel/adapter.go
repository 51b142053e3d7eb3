package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-auth/backend/internal/telemetry"
)

// instrumentationScope names the OTel logger that session events are emitted through.
const instrumentationScope = "session-auth.events"

// recordEmitter is the subset of otellog.Logger the adapter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends session events as OTel log records via the given
// LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationScope))
}

// NewEventEmitterWithLogger wraps any record emitter (an otellog.Logger in production).
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.SessionEvent) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the session event to an OTel log record. Failures are warn-level records.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.SessionEvent) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	if event.Outcome == telemetry.OutcomeFailure {
		rec.SetSeverity(otellog.SeverityWarn)
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
	}
	rec.SetBody(otellog.StringValue("session " + string(event.Type) + " " + event.Outcome))

	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", string(event.Type)))
	}
	if event.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", event.Outcome))
	}
	if event.Reason != "" {
		rec.AddAttributes(otellog.String("reason", event.Reason))
	}
	if event.UserID > 0 {
		rec.AddAttributes(otellog.Int64("user_id", event.UserID))
	}
	if event.ClientIP != "" {
		rec.AddAttributes(otellog.String("client_ip", event.ClientIP))
	}
	if event.RequestID != "" {
		rec.AddAttributes(otellog.String("request_id", event.RequestID))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
