package middleware

import "context"

type contextKey struct{ name string }

var userIDKey = contextKey{"user_id"}

// WithUserID returns a context carrying the authenticated user id. Set by RequireAccess.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id from context and true if set; otherwise 0, false.
func UserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey).(int64)
	return v, ok
}
