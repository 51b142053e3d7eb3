package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"session-auth/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.SessionEvent{Type: telemetry.EventLogin}); err != nil {
		t.Errorf("noop Emit(ctx, event): %v", err)
	}
}

func TestEmit_RealProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.SessionEvent{Type: telemetry.EventLogout}); err != nil {
		t.Errorf("Emit(ctx, event): %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func attributes(rec otellog.Record) map[string]otellog.Value {
	attrs := make(map[string]otellog.Value)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	return attrs
}

func TestEmit_AttributeMapping(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := &telemetry.SessionEvent{
		Type:      telemetry.EventRefresh,
		Outcome:   telemetry.OutcomeFailure,
		Reason:    "authentication",
		UserID:    42,
		ClientIP:  "10.0.0.1",
		RequestID: "req-1",
		Source:    "session_service",
		CreatedAt: created,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec

	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if rec.Severity() != otellog.SeverityWarn {
		t.Errorf("severity = %v, want warn", rec.Severity())
	}
	if got := rec.Body().AsString(); got != "session refresh failure" {
		t.Errorf("body = %q", got)
	}

	attrs := attributes(rec)
	wantStrings := map[string]string{
		"event_type": "refresh", "outcome": "failure", "reason": "authentication",
		"client_ip": "10.0.0.1", "request_id": "req-1", "source": "session_service",
	}
	for k, v := range wantStrings {
		if got := attrs[k].AsString(); got != v {
			t.Errorf("attr %q = %q, want %q", k, got, v)
		}
	}
	if got := attrs["user_id"].AsInt64(); got != 42 {
		t.Errorf("user_id = %d, want 42", got)
	}
}

func TestEmit_SuccessAndPartialFields(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	if err := em.Emit(context.Background(), &telemetry.SessionEvent{
		Type:    telemetry.EventLogin,
		Outcome: telemetry.OutcomeSuccess,
	}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := capture.rec
	if rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want info", rec.Severity())
	}
	attrs := attributes(rec)
	for _, k := range []string{"user_id", "reason", "client_ip", "request_id", "source"} {
		if _, ok := attrs[k]; ok {
			t.Errorf("attr %q should not be set", k)
		}
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	capture := &recordCapture{}
	em := NewEventEmitterWithLogger(capture)
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), &telemetry.SessionEvent{Type: telemetry.EventSignup}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := capture.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
}
