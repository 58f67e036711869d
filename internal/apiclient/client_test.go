package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	_ "github.com/taopiaopiao/boxoffice/testing"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type recordingObserver struct {
	outcomes []string
	routes   []string
}

func (o *recordingObserver) ObserveUpstream(method, route, outcome string, elapsed time.Duration) {
	o.routes = append(o.routes, route)
	o.outcomes = append(o.outcomes, outcome)
}

func TestDoUnwrapsEnvelopeAndSendsBearer(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"code":200,"msg":"ok","data":{"id":7,"name":"Jay Chou Live"}}`)
	}))
	defer srv.Close()

	client := apiclient.New(srv.URL+"/api/admin", apiclient.WithTokenSource(apiclient.TokenFunc(func(context.Context) string {
		return "tok-1"
	})))

	var out struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	err := client.Get(context.Background(), "/events/7", url.Values{"keyword": {"  "}, "status": {"on_sale"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "status=on_sale", gotQuery)
	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, "Jay Chou Live", out.Name)
}

func TestDoClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"code":401,"msg":"token expired"}`, kind: apiclient.ErrAuthExpired, message: apiclient.ErrAuthExpired.Error()},
		{name: "forbidden with msg", status: http.StatusForbidden, body: `{"code":403,"msg":"admins only"}`, kind: apiclient.ErrForbidden, message: "admins only"},
		{name: "forbidden bare", status: http.StatusForbidden, body: `nope`, kind: apiclient.ErrForbidden, message: "permission denied"},
		{name: "business", status: http.StatusOK, body: `{"code":500,"msg":"session has orders"}`, kind: apiclient.ErrBusiness, message: "session has orders"},
		{name: "non json", status: http.StatusOK, body: `<html>gateway</html>`, kind: apiclient.ErrNetwork, message: "the server is not responding, please try again later"},
		{name: "non json error status", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, kind: apiclient.ErrNetwork, message: "HTTP 502: Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			}))
			defer srv.Close()

			_, err := apiclient.New(srv.URL).Do(context.Background(), http.MethodGet, "/events", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			assert.Equal(t, tc.message, apiclient.Message(err))
		})
	}
}

func TestAuthExpiredHookFires(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var fired atomic.Int32
	client := apiclient.New(srv.URL, apiclient.WithAuthExpiredHook(func(context.Context) {
		fired.Add(1)
	}))
	err := client.Put(context.Background(), "/sessions/3/status", map[string]string{"status": "on_sale"}, nil)
	require.Error(t, err)
	assert.True(t, apiclient.IsAuthExpired(err))
	assert.Equal(t, int32(1), fired.Load())
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	_, err := apiclient.New(addr, apiclient.WithObserver(obs)).Do(context.Background(), http.MethodGet, "/venues/12", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrNetwork)
	assert.Equal(t, []string{"network"}, obs.outcomes)
	assert.Equal(t, []string{"/venues/{id}"}, obs.routes)
}

func TestPostSendsJSONBody(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"code":200,"data":{"id":41}}`)
	}))
	defer srv.Close()

	var created struct {
		ID int64 `json:"id"`
	}
	err := apiclient.New(srv.URL).Post(context.Background(), "/venues", map[string]any{"name": "Mercedes-Benz Arena", "capacity": 18000}, &created)
	require.NoError(t, err)
	assert.Equal(t, int64(41), created.ID)
	assert.Equal(t, "Mercedes-Benz Arena", got["name"])
	assert.EqualValues(t, 18000, got["capacity"])
}

func TestValuesFromStruct(t *testing.T) {
	type params struct {
		Page     int    `url:"page"`
		PageSize int    `url:"pageSize"`
		Type     string `url:"type,omitempty"`
		Keyword  string `url:"keyword,omitempty"`
	}
	vals, err := apiclient.Values(params{Page: 2, PageSize: 20, Type: "concert"})
	require.NoError(t, err)
	assert.Equal(t, "page=2&pageSize=20&type=concert", vals.Encode())
}
