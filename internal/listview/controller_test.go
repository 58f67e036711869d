package listview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

type item struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type fakeFetcher struct {
	mu      sync.Mutex
	total   int
	err     error
	queries []url.Values
	paths   []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, path string, params any) (apiclient.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := params.(url.Values)
	f.queries = append(f.queries, q)
	f.paths = append(f.paths, path)
	if f.err != nil {
		return apiclient.Page{}, f.err
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	var list []json.RawMessage
	for i := (page-1)*size + 1; i <= page*size && i <= f.total; i++ {
		raw, _ := json.Marshal(item{ID: int64(i), Name: fmt.Sprintf("Event %d", i), Status: "on_sale"})
		list = append(list, raw)
	}
	return apiclient.Page{List: list, Total: f.total}, nil
}

func testConfig() Config[item] {
	return Config[item]{
		Path:    "/events",
		Columns: []Column{{Label: "ID"}, {Label: "Name"}, {Label: "Status"}},
		Filters: []Filter{
			{Key: "keyword", Label: "Keyword", Kind: FilterText},
			{Key: "status", Label: "Status", Kind: FilterSelect},
		},
		Row: func(it item) RowView {
			return RowView{
				ID:      it.ID,
				Cells:   []Cell{{Text: strconv.FormatInt(it.ID, 10)}, {Text: it.Name}, {Text: it.Status}},
				Actions: []actions.Action{{Kind: actions.KindView, Label: "View"}},
			}
		},
	}
}

func TestLoadEmptyList(t *testing.T) {
	ctrl := New(&fakeFetcher{total: 0}, testConfig())
	tbl, err := ctrl.Load(context.Background(), NewState())
	require.NoError(t, err)
	assert.True(t, tbl.Empty)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, 4, tbl.Colspan)
	assert.False(t, tbl.Pager.Visible())
	assert.Equal(t, "No data", tbl.EmptyText)
}

func TestLoadSinglePageHasNoPager(t *testing.T) {
	ctrl := New(&fakeFetcher{total: 7}, testConfig())
	tbl, err := ctrl.Load(context.Background(), NewState())
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 7)
	assert.Equal(t, 1, tbl.Pagination.TotalPages)
	assert.False(t, tbl.Pager.Visible())
	assert.Equal(t, "Showing 1-7 of 7", tbl.PageInfo())
}

func TestTotalPagesIsCeiling(t *testing.T) {
	for _, total := range []int{1, 9, 10, 11, 37, 100} {
		ctrl := New(&fakeFetcher{total: total}, testConfig())
		tbl, err := ctrl.Load(context.Background(), NewState())
		require.NoError(t, err)
		assert.Equal(t, (total+9)/10, tbl.Pagination.TotalPages, "total %d", total)
	}
}

func TestFilterResetsPageAndPagingKeepsFilters(t *testing.T) {
	fetcher := &fakeFetcher{total: 45}
	ctrl := New(fetcher, testConfig())
	state := NewState()
	ctx := context.Background()

	_, err := ctrl.Load(ctx, state)
	require.NoError(t, err)

	state.SetFilter("status", "on_sale")
	require.True(t, state.GoTo(3))
	_, err = ctrl.Load(ctx, state)
	require.NoError(t, err)

	state.SetFilter("keyword", "jay")
	_, err = ctrl.Load(ctx, state)
	require.NoError(t, err)

	require.Len(t, fetcher.queries, 3)
	assert.Equal(t, "3", fetcher.queries[1].Get("page"))
	assert.Equal(t, "on_sale", fetcher.queries[1].Get("status"))
	assert.Equal(t, "1", fetcher.queries[2].Get("page"))
	assert.Equal(t, "on_sale", fetcher.queries[2].Get("status"))
	assert.Equal(t, "jay", fetcher.queries[2].Get("keyword"))
	assert.Equal(t, "10", fetcher.queries[2].Get("pageSize"))
	_, hasKeyword := fetcher.queries[1]["keyword"]
	assert.False(t, hasKeyword, "empty filters are not sent")
}

func TestGoToRejectsOutOfRange(t *testing.T) {
	ctrl := New(&fakeFetcher{total: 25}, testConfig())
	state := NewState()
	_, err := ctrl.Load(context.Background(), state)
	require.NoError(t, err)

	assert.False(t, state.GoTo(0))
	assert.False(t, state.GoTo(4))
	assert.True(t, state.GoTo(3))
	assert.Equal(t, 3, state.Page())
}

func TestLoadFailureRendersErrorRow(t *testing.T) {
	fetcher := &fakeFetcher{err: &apiclient.Error{Kind: apiclient.ErrBusiness, Message: "database unavailable"}}
	ctrl := New(fetcher, testConfig())
	state := FromQuery(url.Values{"keyword": {"jay"}, "page": {"2"}}, testConfig().Filters)

	tbl, err := ctrl.Load(context.Background(), state)
	require.Error(t, err)
	assert.Equal(t, "database unavailable", tbl.Error)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, 2, state.Page())
	assert.Equal(t, "jay", state.Filter("keyword"))
	assert.Equal(t, "jay", tbl.Filters[0].Value)
}

func TestLoadClampsPageBeyondRange(t *testing.T) {
	fetcher := &fakeFetcher{total: 12}
	ctrl := New(fetcher, testConfig())
	state := FromQuery(url.Values{"page": {"5"}}, nil)

	tbl, err := ctrl.Load(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Page())
	assert.Len(t, tbl.Rows, 2)
	assert.Len(t, fetcher.queries, 2)
}

func TestPageHrefKeepsFilters(t *testing.T) {
	ctrl := New(&fakeFetcher{total: 30}, testConfig())
	state := NewState()
	state.SetFilter("status", "off_sale")
	tbl, err := ctrl.Load(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "?page=2&status=off_sale", tbl.PageHref(2))
	assert.Equal(t, "?status=off_sale", tbl.PageHref(1))
	assert.Equal(t, "status=off_sale", tbl.CurrentQuery())

	require.True(t, state.GoTo(3))
	tbl, err = ctrl.Load(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "page=3&status=off_sale", tbl.CurrentQuery())
}

type gatedFetcher struct {
	fakeFetcher
	gate    chan struct{}
	entered chan struct{}
	calls   int
	mu      sync.Mutex
}

func (g *gatedFetcher) FetchPage(ctx context.Context, path string, params any) (apiclient.Page, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.gate
		g.fakeFetcher.total = 3
	}
	return g.fakeFetcher.FetchPage(ctx, path, params)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fetcher := &gatedFetcher{fakeFetcher: fakeFetcher{total: 25}, gate: make(chan struct{}), entered: make(chan struct{})}
	ctrl := New(fetcher, testConfig())
	state := NewState()

	type result struct {
		tbl Table
		err error
	}
	slow := make(chan result, 1)
	go func() {
		tbl, err := ctrl.Load(context.Background(), state)
		slow <- result{tbl, err}
	}()
	<-fetcher.entered

	state.SetFilter("keyword", "newer")
	fresh, err := ctrl.Load(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, 25, fresh.Pagination.Total)

	close(fetcher.gate)
	stale := <-slow
	assert.ErrorIs(t, stale.err, ErrSuperseded)
	assert.Equal(t, 25, state.Pagination().Total)
	assert.Equal(t, "newer", state.Filter("keyword"))
}
