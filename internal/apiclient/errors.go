package apiclient

import (
	"context"
	"errors"
	"net/http"
)

// Error kinds returned by Client. Match them with errors.Is.
var (
	ErrNetwork     = errors.New("network error")
	ErrAuthExpired = errors.New("login expired, please sign in again")
	ErrForbidden   = errors.New("permission denied")
	ErrBusiness    = errors.New("request rejected")
)

// Error is the classified failure of a single upstream call.
type Error struct {
	Kind    error
	Method  string
	Path    string
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind sentinel and the transport cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Message returns the user facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out, please try again"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// IsAuthExpired reports whether err means the stored credentials are no longer valid.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsNotFound reports whether the server answered 404 for the call.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
