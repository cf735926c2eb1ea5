package auth

import "context"

type contextKey struct{}

type AuthContext struct {
	UserID    string
	SessionID string
	Email     string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

func SessionID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.SessionID
}
