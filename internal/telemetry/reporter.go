package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const eventSource = "session_service"

// Reporter records the outcome of every session operation: a Prometheus counter, and a
// SessionEvent handed to the emitter asynchronously. A nil *Reporter is a no-op.
type Reporter struct {
	log      *zap.Logger
	emitter  EventEmitter
	outcomes *prometheus.CounterVec
	now      func() time.Time
}

// NewReporter registers the session_operations_total counter on reg and returns a Reporter.
// emitter may be nil, in which case only the counter is updated.
func NewReporter(log *zap.Logger, emitter EventEmitter, reg prometheus.Registerer) (*Reporter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_operations_total",
		Help: "Session operations by type and outcome.",
	}, []string{"operation", "outcome", "reason"})
	if reg != nil {
		if err := reg.Register(outcomes); err != nil {
			return nil, err
		}
	}
	return &Reporter{
		log:      log,
		emitter:  emitter,
		outcomes: outcomes,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Report records one operation. reason is empty on success and a short error class
// (e.g. "authentication", "validation") on failure.
func (r *Reporter) Report(ctx context.Context, typ EventType, userID int64, reason string) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if reason != "" {
		outcome = OutcomeFailure
	}
	r.outcomes.WithLabelValues(string(typ), outcome, reason).Inc()

	info, _ := RequestInfoFrom(ctx)
	EmitAsync(r.log, r.emitter, &SessionEvent{
		Type:      typ,
		Outcome:   outcome,
		Reason:    reason,
		UserID:    userID,
		ClientIP:  info.ClientIP,
		RequestID: info.RequestID,
		Source:    eventSource,
		CreatedAt: r.now(),
	})
}
