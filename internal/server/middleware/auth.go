package middleware

import (
	"context"
	"net/http"
)

// Authenticator verifies an access token and returns its subject.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (int64, error)
}

// RequireAccess returns middleware that reads the access token from the named cookie and
// rejects the request with 401 unless it verifies. On success the user id is in the context
// (see UserID).
func RequireAccess(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
