// Package apiclient talks to the upstream ticketing API. Every response is a
// {code, msg, data} envelope; the client unwraps it and classifies failures.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	codeOK          = 200
	maxResponseSize = 8 << 20
)

// TokenSource yields the bearer token for a request. An empty token sends no
// Authorization header.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) string {
	return f(ctx)
}

// Observer receives one observation per upstream call.
type Observer interface {
	ObserveUpstream(method, route, outcome string, elapsed time.Duration)
}

// Client wraps HTTP access to one API prefix such as /api/admin.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokens        TokenSource
	onAuthExpired func(context.Context)
	observer      Observer
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps the context deadline only.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTokenSource attaches bearer tokens to requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithAuthExpiredHook registers fn to run whenever the upstream answers 401.
func WithAuthExpiredHook(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onAuthExpired = fn
	}
}

// WithObserver records call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithLogger sets the logger used for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a Client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Do performs one request and returns the envelope's data payload.
func (c *Client) Do(ctx context.Context, method, path string, params any, body any) (json.RawMessage, error) {
	start := time.Now()
	data, err := c.do(ctx, method, path, params, body)
	c.observe(method, path, err, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrAuthExpired) && c.onAuthExpired != nil {
			c.onAuthExpired(ctx)
		}
		c.logger.Warn("upstream request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err))
	}
	return data, err
}

// Get issues a GET and decodes data into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, params any, out any) error {
	data, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	data, err := c.Do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	data, err := c.Do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// FetchPage issues a GET and normalizes the list envelope.
func (c *Client) FetchPage(ctx context.Context, path string, params any) (Page, error) {
	data, err := c.Do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return Page{}, err
	}
	page, err := DecodePage(data)
	if err != nil {
		return Page{}, &Error{Kind: ErrNetwork, Method: http.MethodGet, Path: path, Message: "unexpected response from server", Err: err}
	}
	return page, nil
}

func (c *Client) do(ctx context.Context, method, path string, params any, body any) (json.RawMessage, error) {
	query, err := Values(params)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode query: %w", err)
	}
	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID(ctx))
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Method: method, Path: path, Message: "network error, please check your connection", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Method: method, Path: path, Status: resp.StatusCode, Message: "network error, please check your connection", Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &Error{Kind: ErrAuthExpired, Method: method, Path: path, Status: resp.StatusCode}
	case http.StatusForbidden:
		msg := ErrForbidden.Error()
		if decodeErr == nil && env.Msg != "" {
			msg = env.Msg
		}
		return nil, &Error{Kind: ErrForbidden, Method: method, Path: path, Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if decodeErr != nil {
		msg := "the server is not responding, please try again later"
		if resp.StatusCode >= http.StatusBadRequest {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, &Error{Kind: ErrNetwork, Method: method, Path: path, Status: resp.StatusCode, Message: msg, Err: decodeErr}
	}

	if env.Code != codeOK {
		msg := env.Msg
		if msg == "" {
			msg = fmt.Sprintf("request failed (HTTP %d)", resp.StatusCode)
		}
		return nil, &Error{Kind: ErrBusiness, Method: method, Path: path, Status: resp.StatusCode, Code: env.Code, Message: msg}
	}
	return env.Data, nil
}

func (c *Client) observe(method, path string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, RouteLabel(path), outcome(err), elapsed)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrBusiness):
		return "business"
	default:
		return "network"
	}
}

// RouteLabel replaces numeric path segments so metrics keep a bounded label set.
func RouteLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part != "" && strings.Trim(part, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func requestID(ctx context.Context) string {
	if id := chimw.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func decodeInto(data json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Kind: ErrNetwork, Message: "unexpected response from server", Err: err}
	}
	return nil
}

// EscapeID formats an id for use as a path segment.
func EscapeID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
