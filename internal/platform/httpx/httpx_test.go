package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

func TestRespondErrorMapsUpstreamKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{err: fmt.Errorf("event 9: %w", ErrNotFound), status: http.StatusNotFound, detail: "event 9: resource not found"},
		{err: &apiclient.Error{Kind: apiclient.ErrBusiness, Message: "session has orders"}, status: http.StatusUnprocessableEntity, detail: "session has orders"},
		{err: &apiclient.Error{Kind: apiclient.ErrAuthExpired}, status: http.StatusUnauthorized, detail: apiclient.ErrAuthExpired.Error()},
		{err: &apiclient.Error{Kind: apiclient.ErrNetwork, Message: "the server is not responding, please try again later"}, status: http.StatusBadGateway, detail: "the server is not responding, please try again later"},
		{err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)

		assert.Equal(t, tc.status, rr.Code)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, tc.detail, body.Detail)
	}
}

func TestProblemIsNotCached(t *testing.T) {
	rr := httptest.NewRecorder()
	Problem(rr, http.StatusServiceUnavailable, "Queue Unavailable", "")

	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"type":"about:blank","title":"Queue Unavailable","status":503}`, rr.Body.String())
}

func TestJSONRejectsUnencodableValue(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]int{"id": 7})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id":7}`, rr.Body.String())
}
