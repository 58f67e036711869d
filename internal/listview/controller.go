// Package listview implements the paginated, filterable entity list used by
// every admin list page and the public venue list.
package listview

import (
	"context"
	"errors"
	"net/url"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

// DefaultPageSize is used when a Config leaves PageSize unset.
const DefaultPageSize = 10

// ErrSuperseded is returned by Load when a newer load on the same State has
// already been applied.
var ErrSuperseded = errors.New("listview: response superseded by a newer load")

// Fetcher retrieves one page of entities.
type Fetcher interface {
	FetchPage(ctx context.Context, path string, params any) (apiclient.Page, error)
}

// Config describes one list: its endpoint, columns, filters and row template.
type Config[T any] struct {
	Path      string
	PageSize  int
	Columns   []Column
	Filters   []Filter
	EmptyText string
	Row       func(T) RowView
}

// Controller loads a list into a Table.
type Controller[T any] struct {
	fetcher Fetcher
	cfg     Config[T]
}

// New constructs a Controller.
func New[T any](fetcher Fetcher, cfg Config[T]) *Controller[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.EmptyText == "" {
		cfg.EmptyText = "No data"
	}
	return &Controller[T]{fetcher: fetcher, cfg: cfg}
}

// Filters returns the declared filters.
func (c *Controller[T]) Filters() []Filter {
	return c.cfg.Filters
}

// PageSize returns the fixed page size.
func (c *Controller[T]) PageSize() int {
	return c.cfg.PageSize
}

// WithFilterOptions returns a copy of the controller whose filter key uses options.
func (c *Controller[T]) WithFilterOptions(key string, options []Option) *Controller[T] {
	cfg := c.cfg
	cfg.Filters = make([]Filter, len(c.cfg.Filters))
	copy(cfg.Filters, c.cfg.Filters)
	for i := range cfg.Filters {
		if cfg.Filters[i].Key == key {
			cfg.Filters[i].Options = options
		}
	}
	return &Controller[T]{fetcher: c.fetcher, cfg: cfg}
}

// Load fetches the current page of state. On failure the returned Table holds
// a single error row and state is left untouched; the error is also returned
// so callers can react to specific kinds such as expired credentials.
func (c *Controller[T]) Load(ctx context.Context, state *State) (Table, error) {
	return c.load(ctx, state, true)
}

func (c *Controller[T]) load(ctx context.Context, state *State, allowClamp bool) (Table, error) {
	t := state.begin(c.cfg.PageSize)
	page, err := c.fetcher.FetchPage(ctx, c.cfg.Path, t.query)
	if err != nil {
		if !state.current(t) {
			return Table{}, ErrSuperseded
		}
		return c.errorTable(state, apiclient.Message(err)), err
	}
	items, err := apiclient.Decode[T](page)
	if err != nil {
		if !state.current(t) {
			return Table{}, ErrSuperseded
		}
		return c.errorTable(state, "unexpected response from server"), err
	}

	if allowClamp && page.Total > 0 && len(items) == 0 {
		last := (page.Total + c.cfg.PageSize - 1) / c.cfg.PageSize
		if t.page > last && state.current(t) {
			state.clamp(last)
			return c.load(ctx, state, false)
		}
	}

	pagination, ok := state.apply(t, page.Total)
	if !ok {
		return Table{}, ErrSuperseded
	}

	tbl := c.frame(state)
	tbl.Pagination = pagination
	if page.Total == 0 || len(items) == 0 {
		tbl.Empty = true
		return tbl, nil
	}
	tbl.Rows = make([]RowView, 0, len(items))
	for _, item := range items {
		tbl.Rows = append(tbl.Rows, c.cfg.Row(item))
	}
	tbl.Pager = BuildPager(pagination.Page, pagination.TotalPages)
	return tbl, nil
}

func (c *Controller[T]) errorTable(state *State, message string) Table {
	tbl := c.frame(state)
	tbl.Error = message
	return tbl
}

func (c *Controller[T]) frame(state *State) Table {
	current := state.Filters()
	views := make([]FilterView, 0, len(c.cfg.Filters))
	for _, f := range c.cfg.Filters {
		views = append(views, FilterView{Filter: f, Value: current[f.Key]})
	}
	encoded := url.Values{}
	for k, v := range current {
		encoded.Set(k, v)
	}
	return Table{
		Columns:   c.cfg.Columns,
		Filters:   views,
		EmptyText: c.cfg.EmptyText,
		Colspan:   len(c.cfg.Columns) + 1,
		filters:   encoded,
	}
}
