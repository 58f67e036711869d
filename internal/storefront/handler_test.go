package storefront

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
	"github.com/taopiaopiao/boxoffice/internal/view"
)

func newTestRouter(t *testing.T, catalog *Catalog) http.Handler {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), catalog, engine, 20).MountRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHomeRendersEventGrid(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/events/1"`)
	assert.Contains(t, body, "Jay Chou Carnival")
	assert.Contains(t, body, "2026-11-01 - 2026-11-03")
	assert.Contains(t, body, "From ¥380")
	assert.Contains(t, body, `<span class="ribbon">Sold out</span>`)
	assert.Contains(t, body, `data-page-size="20"`)
	assert.NotContains(t, body, `id="load-more"`)
}

func TestHomeFiltersByType(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/?type=musical")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cats")
	assert.NotContains(t, rec.Body.String(), "Jay Chou Carnival")
	assert.Contains(t, rec.Body.String(), `<option value="musical" selected>`)
}

func TestHomeLinksNextPage(t *testing.T) {
	u := newUpstream(t)
	catalog := NewCatalog(u.client(), nil, 1)
	router := newTestRouter(t, catalog)

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="load-more" href="/?page=2"`)
}

func TestHomeShowsRetryWhenUpstreamIsDown(t *testing.T) {
	u := newUpstream(t)
	catalog := NewCatalog(u.client(), nil, 20)
	u.server.Close()
	router := newTestRouter(t, catalog)

	rec := get(t, router, "/?type=concert")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Try again")
	assert.Contains(t, rec.Body.String(), `href="/?type=concert"`)
}

func TestEventsJSON(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/api/events?type=musical&page=1&pageSize=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events  []EventCard `json:"events"`
		Page    int         `json:"page"`
		HasMore bool        `json:"hasMore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "Cats", resp.Events[0].Name)
	assert.Equal(t, "Musical", resp.Events[0].TypeLabel)
	assert.Equal(t, "¥280", resp.Events[0].PriceFrom)
	assert.Equal(t, "Dates to be announced", resp.Events[0].Dates)
	assert.True(t, resp.Events[0].SoldOut)
	assert.Equal(t, 1, resp.Page)
	assert.False(t, resp.HasMore)
}

func TestEventsJSONUpstreamFailure(t *testing.T) {
	u := newUpstream(t)
	catalog := NewCatalog(u.client(), nil, 20)
	u.server.Close()

	rec := get(t, newTestRouter(t, catalog), "/api/events")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestEventDetail(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/events/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Jay Chou Carnival</h1>")
	assert.Contains(t, body, `href="/venues/5"`)
	assert.Contains(t, body, "Night one")
	assert.Contains(t, body, "2026-11-01 19:30")
	assert.Contains(t, body, "750 left")
	assert.Contains(t, body, "25% sold")
	assert.Contains(t, body, "On sale")
}

func TestEventDetailDegradesWhenSessionsFail(t *testing.T) {
	u := newUpstream(t)
	u.failSessions = true
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/events/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jay Chou Carnival")
	assert.Contains(t, rec.Body.String(), "Sessions could not be loaded right now.")
}

func TestEventDetailNotFound(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	for _, target := range []string{"/events/404", "/events/abc", "/events/0"} {
		rec := get(t, router, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "This show does not exist.", target)
	}
	assert.Equal(t, 1, u.count("/api/events/404"))
}

func TestVenueListIsReadOnly(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/venues?city=Shanghai")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<a href="/venues/5">Mercedes-Benz Arena</a>`)
	assert.Contains(t, body, "18,000")
	assert.NotContains(t, body, "/edit")
	assert.NotContains(t, body, "/delete")
	assert.Equal(t, "city=Shanghai&page=1&pageSize=20", u.lastQuery())
}

func TestVenueDetail(t *testing.T) {
	u := newUpstream(t)
	router := newTestRouter(t, newTestCatalog(t, u))

	rec := get(t, router, "/venues/5")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "18,000 seats")
	assert.Contains(t, body, "Parking, VIP lounge, shuttle")
	assert.Contains(t, body, "1200 Expo Avenue")

	rec = get(t, router, "/venues/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicRowsKeepsViewOnly(t *testing.T) {
	table := listview.Table{Rows: []listview.RowView{{
		ID:      5,
		Cells:   []listview.Cell{{Text: "5"}, {Text: "Mercedes-Benz Arena"}},
		Actions: ticketing.VenueActions.ActionsFor("", 0),
	}}}
	publicRows(table, "/venues/")

	require.Len(t, table.Rows[0].Actions, 1)
	assert.Equal(t, actions.KindView, table.Rows[0].Actions[0].Kind)
	assert.Equal(t, "/venues/5", table.Rows[0].Cells[1].Link)
}

func TestCapacity(t *testing.T) {
	seats := 1500
	assert.Equal(t, "1,500 seats", capacity(ticketing.Venue{Capacity: &seats}))
	assert.Equal(t, "-", capacity(ticketing.Venue{}))
}
