package storefront

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
)

type recordingQueue struct {
	reasons []string
	err     error
}

func (q *recordingQueue) EnqueueCatalogWarmup(_ context.Context, reason string) error {
	q.reasons = append(q.reasons, reason)
	return q.err
}

func newTestCatalog(t *testing.T, u *upstream, opts ...Option) *Catalog {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCatalog(u.client(), NewCache(client, time.Minute, nil), 20, opts...)
}

func TestCatalogEventsAreCached(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u)
	ctx := context.Background()

	first, err := catalog.Events(ctx, EventQuery{Type: "concert"})
	require.NoError(t, err)
	second, err := catalog.Events(ctx, EventQuery{Type: "concert", Page: 1, PageSize: 20})
	require.NoError(t, err)

	require.Len(t, first.Events, 1)
	assert.Equal(t, "Jay Chou Carnival", second.Events[0].Name)
	assert.Equal(t, 1, second.Page)
	assert.Equal(t, 20, second.PageSize)
	assert.False(t, second.HasMore())
	assert.Equal(t, 1, u.count("/api/events"))
	assert.Equal(t, "page=1&pageSize=20&type=concert", u.lastQuery())
}

func TestCatalogClampsPageSize(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u)

	page, err := catalog.Events(context.Background(), EventQuery{Page: -3, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
}

func TestCatalogEventNotFound(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u)

	_, err := catalog.Event(context.Background(), "404")
	assert.True(t, apiclient.IsNotFound(err))

	// Failures are never cached.
	_, err = catalog.Event(context.Background(), "404")
	assert.Error(t, err)
	assert.Equal(t, 2, u.count("/api/events/404"))
}

func TestCatalogInvalidateBumpsAndSchedulesWarmup(t *testing.T) {
	u := newUpstream(t)
	queue := &recordingQueue{}
	catalog := newTestCatalog(t, u, WithWarmupQueue(queue))
	ctx := context.Background()

	_, err := catalog.Venue(ctx, "5")
	require.NoError(t, err)
	require.NoError(t, catalog.Invalidate(ctx, "venue", "5"))
	_, err = catalog.Venue(ctx, "5")
	require.NoError(t, err)

	assert.Equal(t, 2, u.count("/api/venues/5"))
	assert.Equal(t, []string{"venue:5"}, queue.reasons)
}

func TestCatalogInvalidateReportsQueueFailure(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u, WithWarmupQueue(&recordingQueue{err: errors.New("queue down")}))

	assert.EqualError(t, catalog.Invalidate(context.Background(), "event", "1"), "queue down")
}

func TestCatalogFetchPageIsCached(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u)
	ctx := context.Background()

	for range 2 {
		page, err := catalog.FetchPage(ctx, ticketing.VenuesPath, url.Values{"page": {"1"}, "pageSize": {"20"}})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	}
	assert.Equal(t, 1, u.count("/api/venues"))
}

func TestCatalogWarmLoadsEveryType(t *testing.T) {
	u := newUpstream(t)
	catalog := newTestCatalog(t, u)

	pages, err := catalog.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(ticketing.EventTypes())+1, pages)
	assert.Equal(t, pages, u.count("/api/events"))
}

func TestCatalogWithoutRedis(t *testing.T) {
	u := newUpstream(t)
	catalog := NewCatalog(u.client(), nil, 0)

	sessions, err := catalog.EventSessions(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Night one", sessions[0].SessionName)
	assert.Equal(t, 20, catalog.PageSize())
	assert.NoError(t, catalog.Invalidate(context.Background(), "session", "7"))
}
