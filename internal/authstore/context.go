package authstore

import (
	"context"
	"net/http"

	"github.com/taopiaopiao/boxoffice/internal/shared"
)

type storeContextKey struct{}

// WithStore attaches the store to ctx.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, store)
}

// FromContext returns the request store or nil.
func FromContext(ctx context.Context) *Store {
	store, _ := ctx.Value(storeContextKey{}).(*Store)
	return store
}

// TokenFromContext returns the token of the request store.
func TokenFromContext(ctx context.Context) string {
	return FromContext(ctx).Token()
}

// ClearFromContext clears the request store. Wired as the API client's
// auth-expired hook.
func ClearFromContext(ctx context.Context) {
	FromContext(ctx).Clear()
}

// Middleware builds a Store over the request's session and remember session.
// It must run after both sessions are loaded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		store := New(scope(shared.SessionFromContext(ctx)), scope(shared.RememberSessionFromContext(ctx)))
		next.ServeHTTP(w, r.WithContext(WithStore(ctx, store)))
	})
}

func scope(sess *shared.Session) Scope {
	if sess == nil {
		return nil
	}
	return sess
}
