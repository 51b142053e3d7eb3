// Package handler serves readiness over HTTP (/healthz) and the standard gRPC health protocol.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultCheckTimeout = 2 * time.Second

// Pinger checks connectivity to the user store (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server reports readiness. With a nil Pinger (in-memory store) it is always ready.
type Server struct {
	db      Pinger
	timeout time.Duration
	grpc    *health.Server
	log     *zap.Logger
}

// NewServer returns a health Server. db and log may be nil.
func NewServer(db Pinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		db:      db,
		timeout: defaultCheckTimeout,
		grpc:    health.NewServer(),
		log:     log,
	}
}

// Check returns nil when the service can serve requests.
func (s *Server) Check(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

type statusResponse struct {
	Status string `json:"status"`
}

// ServeHTTP answers 200 when ready and 503 otherwise.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.Check(r.Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(statusResponse{Status: "unavailable"})
		return
	}
	_ = json.NewEncoder(w).Encode(statusResponse{Status: "ok"})
}

// GRPC returns the grpc.health.v1 server whose overall status tracks Check.
func (s *Server) GRPC() healthpb.HealthServer {
	return s.grpc
}

// Update runs Check once and publishes the result to the gRPC health server.
func (s *Server) Update(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.Check(ctx); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.grpc.SetServingStatus("", status)
}

// Watch calls Update every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Update(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Update(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so clients drain before the listener closes.
func (s *Server) Shutdown() {
	s.grpc.Shutdown()
}
