// Package storefront serves the public catalogue: the event grid, event
// detail pages and the venue directory.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
)

// maxPageSize caps the page size a visitor may ask for.
const maxPageSize = 100

// API is the part of the public API client the storefront reads through.
type API interface {
	Get(ctx context.Context, path string, params any, out any) error
	FetchPage(ctx context.Context, path string, params any) (apiclient.Page, error)
}

// WarmupQueue schedules a background refill of the catalogue cache.
type WarmupQueue interface {
	EnqueueCatalogWarmup(ctx context.Context, reason string) error
}

// EventQuery selects one page of the event grid.
type EventQuery struct {
	Type     string `url:"type,omitempty"`
	Status   string `url:"status,omitempty"`
	Page     int    `url:"page"`
	PageSize int    `url:"pageSize"`
}

// EventPage is one page of the event grid.
type EventPage struct {
	Events   []ticketing.Event `json:"events"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// HasMore reports whether another page follows.
func (p EventPage) HasMore() bool {
	return p.Page*p.PageSize < p.Total
}

// Catalog reads the public catalogue through the cache.
type Catalog struct {
	api      API
	cache    *Cache
	queue    WarmupQueue
	logger   *slog.Logger
	pageSize int
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithWarmupQueue makes Invalidate schedule a cache warmup.
func WithWarmupQueue(q WarmupQueue) Option {
	return func(c *Catalog) {
		c.queue = q
	}
}

// WithLogger sets the logger used for cache degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalog builds the catalogue reader. cache may be nil.
func NewCatalog(api API, cache *Cache, pageSize int, opts ...Option) *Catalog {
	if pageSize <= 0 {
		pageSize = 20
	}
	c := &Catalog{api: api, cache: cache, pageSize: pageSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageSize is the default event grid page size.
func (c *Catalog) PageSize() int {
	return c.pageSize
}

func (c *Catalog) normalize(q EventQuery) EventQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = c.pageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

// cached reads dest through the cache under the key built from parts. When
// the version key cannot be read the loader runs uncached.
func (c *Catalog) cached(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error {
	key, err := c.cache.BuildKey(ctx, parts...)
	if err != nil {
		c.logger.Warn("catalogue cache unavailable", slog.Any("error", err))
		return load(ctx, dest, loader)
	}
	return c.cache.FetchJSON(ctx, key, dest, loader)
}

// Events returns one page of the event grid.
func (c *Catalog) Events(ctx context.Context, q EventQuery) (EventPage, error) {
	q = c.normalize(q)
	var out EventPage
	err := c.cached(ctx, &out, func(ctx context.Context) (any, error) {
		page, err := c.api.FetchPage(ctx, ticketing.EventsPath, q)
		if err != nil {
			return nil, err
		}
		events, err := apiclient.Decode[ticketing.Event](page)
		if err != nil {
			return nil, err
		}
		return EventPage{Events: events, Total: page.Total, Page: q.Page, PageSize: q.PageSize}, nil
	}, "events", q.Type, q.Status, strconv.Itoa(q.Page), strconv.Itoa(q.PageSize))
	return out, err
}

// Event returns one event with its ticket tiers.
func (c *Catalog) Event(ctx context.Context, id string) (ticketing.Event, error) {
	var out ticketing.Event
	err := c.cached(ctx, &out, func(ctx context.Context) (any, error) {
		var event ticketing.Event
		err := c.api.Get(ctx, ticketing.EventsPath+"/"+apiclient.EscapeID(id), nil, &event)
		return event, err
	}, "event", id)
	return out, err
}

// EventSessions returns the sessions of an event.
func (c *Catalog) EventSessions(ctx context.Context, id string) ([]ticketing.Session, error) {
	var out []ticketing.Session
	err := c.cached(ctx, &out, func(ctx context.Context) (any, error) {
		page, err := c.api.FetchPage(ctx, ticketing.EventsPath+"/"+apiclient.EscapeID(id)+"/sessions", nil)
		if err != nil {
			return nil, err
		}
		return apiclient.Decode[ticketing.Session](page)
	}, "event", id, "sessions")
	return out, err
}

// Venue returns one venue.
func (c *Catalog) Venue(ctx context.Context, id string) (ticketing.Venue, error) {
	var out ticketing.Venue
	err := c.cached(ctx, &out, func(ctx context.Context) (any, error) {
		var venue ticketing.Venue
		err := c.api.Get(ctx, ticketing.VenuesPath+"/"+apiclient.EscapeID(id), nil, &venue)
		return venue, err
	}, "venue", id)
	return out, err
}

// FetchPage is a cached listview.Fetcher over the public API.
func (c *Catalog) FetchPage(ctx context.Context, path string, params any) (apiclient.Page, error) {
	query, err := apiclient.Values(params)
	if err != nil {
		return apiclient.Page{}, err
	}
	var out apiclient.Page
	err = c.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return c.api.FetchPage(ctx, path, query)
	}, "page", path, query.Encode())
	return out, err
}

// Invalidate retires every cached read after an admin write and schedules a
// warmup. It satisfies admin.Invalidator.
func (c *Catalog) Invalidate(ctx context.Context, entity, id string) error {
	err := c.cache.Bump(ctx)
	if c.queue != nil {
		if qerr := c.queue.EnqueueCatalogWarmup(ctx, entity+":"+id); qerr != nil {
			err = errors.Join(err, qerr)
		}
	}
	return err
}

// Warm loads the first grid page of every event type into the cache and
// reports how many pages were loaded.
func (c *Catalog) Warm(ctx context.Context) (int, error) {
	types := []string{""}
	for _, t := range ticketing.EventTypes() {
		types = append(types, t.Value)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, eventType := range types {
		g.Go(func() error {
			_, err := c.Events(gctx, EventQuery{Type: eventType})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(types), nil
}
