// Package authstore keeps the admin credential in one of two scopes: the
// browser session, or the long lived "remember me" scope.
package authstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenKey stores the bearer token.
	TokenKey = "admin_token"
	// UserInfoKey stores the JSON encoded UserInfo.
	UserInfoKey = "admin_userInfo"
)

// UserInfo describes the signed in administrator as returned by the login call.
type UserInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RealName string `json:"realName,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// DisplayName prefers the real name over the login name.
func (u UserInfo) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Admin"
}

// Scope is a string key/value container such as *shared.Session.
type Scope interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// Store reads and writes credentials across the two scopes.
type Store struct {
	session  Scope
	remember Scope
	now      func() time.Time
}

// New builds a Store. A nil scope behaves as always empty.
func New(session, remember Scope) *Store {
	if session == nil {
		session = noopScope{}
	}
	if remember == nil {
		remember = noopScope{}
	}
	return &Store{session: session, remember: remember, now: time.Now}
}

// Token returns the session scoped token, falling back to the remembered one.
// A token whose exp claim has passed is cleared and reported as absent.
func (s *Store) Token() string {
	if s == nil {
		return ""
	}
	for _, scope := range []Scope{s.session, s.remember} {
		token := scope.Get(TokenKey)
		if token == "" {
			continue
		}
		if s.expired(token) {
			s.Clear()
			return ""
		}
		return token
	}
	return ""
}

// Save writes the credential to the session scope, and to the remember scope
// only when remember is set. Without remember any older remembered
// credential is removed.
func (s *Store) Save(token string, user UserInfo, remember bool) error {
	if s == nil {
		return errors.New("authstore: store not initialised")
	}
	if token == "" {
		return errors.New("authstore: empty token")
	}
	encoded, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.session.Set(TokenKey, token)
	s.session.Set(UserInfoKey, string(encoded))
	if remember {
		s.remember.Set(TokenKey, token)
		s.remember.Set(UserInfoKey, string(encoded))
		return nil
	}
	s.remember.Delete(TokenKey)
	s.remember.Delete(UserInfoKey)
	return nil
}

// UserInfo returns the stored user or nil.
func (s *Store) UserInfo() *UserInfo {
	if s == nil {
		return nil
	}
	for _, scope := range []Scope{s.session, s.remember} {
		raw := scope.Get(UserInfoKey)
		if raw == "" {
			continue
		}
		var user UserInfo
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil
		}
		return &user
	}
	return nil
}

// IsAuthenticated reports whether a usable token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Clear removes the credential from both scopes.
func (s *Store) Clear() {
	if s == nil {
		return
	}
	for _, scope := range []Scope{s.session, s.remember} {
		scope.Delete(TokenKey)
		scope.Delete(UserInfoKey)
	}
}

// Revoker invalidates the token on the server.
type Revoker interface {
	Post(ctx context.Context, path string, body any, out any) error
}

// LogoutPath is the upstream endpoint revoking the current token.
const LogoutPath = "/auth/logout"

// Logout asks the server to revoke the token and always clears local state.
// The returned error only reports the server call.
func (s *Store) Logout(ctx context.Context, api Revoker) error {
	if s == nil {
		return nil
	}
	var err error
	if api != nil && s.Token() != "" {
		err = api.Post(ctx, LogoutPath, nil, nil)
	}
	s.Clear()
	return err
}

func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

type noopScope struct{}

func (noopScope) Get(string) string  { return "" }
func (noopScope) Set(string, string) {}
func (noopScope) Delete(string)      {}
