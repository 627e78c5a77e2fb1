package auth

import "context"

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID stores the acting user's id on the context. The HTTP layer calls
// this from the X-User-Id header; the listener uses a fixed system actor.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the acting user's id, or "" when unattributed.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}
	return ""
}
