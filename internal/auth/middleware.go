package auth

import (
	"net/http"
	"net/url"

	"github.com/taopiaopiao/boxoffice/internal/authstore"
)

// RequireLogin redirects anonymous requests to the sign-in page. GET requests
// come back to the page they asked for after signing in.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authstore.FromContext(r.Context()).IsAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}
		target := LoginURL
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
