package middleware

import (
	"net"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"session-auth/backend/internal/telemetry"
)

// ClientIP returns the client IP of r, or "unknown". X-Forwarded-For (first hop) and X-Real-IP
// are honoured only when trustProxy is set; otherwise any client could pick its own address.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); s != "" {
			if i := strings.Index(s, ","); i > 0 {
				s = strings.TrimSpace(s[:i])
			}
			return s
		}
		if s := strings.TrimSpace(r.Header.Get("X-Real-IP")); s != "" {
			return s
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

// RequestInfo stores the client IP and chi request id in the context for session events,
// the access log and the rate limiter. Mount after chi's RequestID middleware.
func RequestInfo(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := telemetry.WithRequestInfo(r.Context(), telemetry.RequestInfo{
				ClientIP:  ClientIP(r, trustProxy),
				RequestID: chimw.GetReqID(r.Context()),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestIP is the IP resolved by RequestInfo, or the remote address when RequestInfo is not mounted.
func requestIP(r *http.Request) string {
	if info, ok := telemetry.RequestInfoFrom(r.Context()); ok && info.ClientIP != "" {
		return info.ClientIP
	}
	return ClientIP(r, false)
}
