package shared

import "context"

type sessionContextKey struct{}

type rememberContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithRememberSession stores the long lived "remember me" session.
func ContextWithRememberSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, rememberContextKey{}, sess)
}

// RememberSessionFromContext extracts the "remember me" session.
func RememberSessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(rememberContextKey{}).(*Session)
	return sess
}
