package auth

import (
	"context"
	"errors"
	"strings"
)

// LoginPath is the upstream endpoint exchanging credentials for a token.
const LoginPath = "/auth/login"

// ErrMissingToken is returned when the upstream accepted the login but sent no token.
var ErrMissingToken = errors.New("login response carried no token")

// API is the subset of the admin API client used for authentication.
type API interface {
	Post(ctx context.Context, path string, body any, out any) error
}

// Service wraps the upstream login call.
type Service struct {
	api API
}

// NewService constructs a new Service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Authenticate exchanges username and password for a bearer token.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*LoginResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	var result LoginResult
	if err := s.api.Post(ctx, LoginPath, creds, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, ErrMissingToken
	}
	if result.UserInfo.Username == "" {
		result.UserInfo.Username = creds.Username
	}
	return &result, nil
}
