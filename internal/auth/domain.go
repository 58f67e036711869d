package auth

import "github.com/taopiaopiao/boxoffice/internal/authstore"

// Credentials is the body of the upstream login call.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the data payload returned by a successful login.
type LoginResult struct {
	Token    string             `json:"token"`
	UserInfo authstore.UserInfo `json:"userInfo"`
}
