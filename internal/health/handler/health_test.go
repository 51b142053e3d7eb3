package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// mockPinger implements Pinger for tests.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) PingContext(context.Context) error {
	return m.pingErr
}

func grpcStatus(t *testing.T, s *Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.GRPC().Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return resp.GetStatus()
}

func TestCheck_NilPinger(t *testing.T) {
	srv := NewServer(nil, nil)
	if err := srv.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestServeHTTP(t *testing.T) {
	testCases := []struct {
		name   string
		pinger Pinger
		want   int
		body   string
	}{
		{"in-memory store", nil, http.StatusOK, `{"status":"ok"}`},
		{"db reachable", &mockPinger{}, http.StatusOK, `{"status":"ok"}`},
		{"db down", &mockPinger{pingErr: errors.New("connection refused")}, http.StatusServiceUnavailable, `{"status":"unavailable"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			NewServer(tc.pinger, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rr.Code != tc.want {
				t.Errorf("status = %d, want %d", rr.Code, tc.want)
			}
			if got := rr.Body.String(); got != tc.body+"\n" {
				t.Errorf("body = %q, want %q", got, tc.body)
			}
		})
	}
}

func TestUpdate_TracksPinger(t *testing.T) {
	pinger := &mockPinger{}
	srv := NewServer(pinger, nil)

	srv.Update(context.Background())
	if got := grpcStatus(t, srv); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", got)
	}

	pinger.pingErr = errors.New("connection refused")
	srv.Update(context.Background())
	if got := grpcStatus(t, srv); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", got)
	}

	pinger.pingErr = nil
	srv.Update(context.Background())
	if got := grpcStatus(t, srv); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING after recovery", got)
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	srv := NewServer(&mockPinger{pingErr: errors.New("down")}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Watch(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done
	if got := grpcStatus(t, srv); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", got)
	}
}

func TestShutdown(t *testing.T) {
	srv := NewServer(nil, nil)
	srv.Shutdown()
	if got := grpcStatus(t, srv); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", got)
	}
}
