package authstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope map[string]string

func (m mapScope) Get(key string) string { return m[key] }
func (m mapScope) Set(key, value string) { m[key] = value }
func (m mapScope) Delete(key string)     { delete(m, key) }

type stubRevoker struct {
	calls int
	path  string
	err   error
}

func (s *stubRevoker) Post(ctx context.Context, path string, body any, out any) error {
	s.calls++
	s.path = path
	return s.err
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "9", "exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return token
}

func TestSaveWithoutRememberUsesSessionOnly(t *testing.T) {
	session, remember := mapScope{}, mapScope{TokenKey: "old", UserInfoKey: `{"id":1}`}
	store := New(session, remember)

	require.NoError(t, store.Save("opaque-token", UserInfo{ID: 9, Username: "ops"}, false))

	assert.Equal(t, "opaque-token", session[TokenKey])
	assert.Empty(t, remember[TokenKey])
	assert.Empty(t, remember[UserInfoKey])
	assert.Equal(t, "opaque-token", store.Token())
	require.NotNil(t, store.UserInfo())
	assert.Equal(t, "ops", store.UserInfo().DisplayName())
}

func TestSaveWithRememberWritesBothScopes(t *testing.T) {
	session, remember := mapScope{}, mapScope{}
	store := New(session, remember)

	require.NoError(t, store.Save("tok", UserInfo{ID: 9, RealName: "Li Lei"}, true))
	assert.Equal(t, "tok", session[TokenKey])
	assert.Equal(t, "tok", remember[TokenKey])

	// A fresh browser session still finds the remembered credential.
	restarted := New(mapScope{}, remember)
	assert.Equal(t, "tok", restarted.Token())
	assert.Equal(t, "Li Lei", restarted.UserInfo().DisplayName())
}

func TestTokenPrefersSessionScope(t *testing.T) {
	store := New(mapScope{TokenKey: "session"}, mapScope{TokenKey: "remembered"})
	assert.Equal(t, "session", store.Token())
}

func TestExpiredJWTIsCleared(t *testing.T) {
	session, remember := mapScope{}, mapScope{}
	store := New(session, remember)
	require.NoError(t, store.Save(signed(t, time.Now().Add(-time.Minute)), UserInfo{ID: 1}, true))

	assert.Empty(t, store.Token())
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, session)
	assert.Empty(t, remember)
}

func TestValidJWTIsKept(t *testing.T) {
	store := New(mapScope{}, mapScope{})
	token := signed(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Save(token, UserInfo{ID: 1}, false))
	assert.Equal(t, token, store.Token())
}

func TestLogoutAlwaysClears(t *testing.T) {
	session, remember := mapScope{}, mapScope{}
	store := New(session, remember)
	require.NoError(t, store.Save("tok", UserInfo{ID: 1}, true))

	revoker := &stubRevoker{err: errors.New("server down")}
	err := store.Logout(context.Background(), revoker)

	assert.Error(t, err)
	assert.Equal(t, 1, revoker.calls)
	assert.Equal(t, LogoutPath, revoker.path)
	assert.Empty(t, session)
	assert.Empty(t, remember)
}

func TestLogoutWithoutTokenSkipsServer(t *testing.T) {
	revoker := &stubRevoker{}
	require.NoError(t, New(mapScope{}, nil).Logout(context.Background(), revoker))
	assert.Zero(t, revoker.calls)
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *Store
	assert.Empty(t, store.Token())
	assert.Nil(t, store.UserInfo())
	store.Clear()
	assert.Empty(t, TokenFromContext(context.Background()))
}
