package listview

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/shared"
)

// FilterKind tells the renderer how a filter reloads the list.
type FilterKind int

const (
	// FilterText reloads on explicit submit.
	FilterText FilterKind = iota
	// FilterSelect reloads as soon as the value changes.
	FilterSelect
)

// Option is one choice of a select filter.
type Option struct {
	Value string
	Label string
}

// Filter declares a list filter.
type Filter struct {
	Key         string
	Label       string
	Placeholder string
	Kind        FilterKind
	Options     []Option
}

// FilterView is a filter paired with its current value.
type FilterView struct {
	Filter
	Value string
}

// IsSelect is a template helper.
func (f FilterView) IsSelect() bool {
	return f.Kind == FilterSelect
}

// Column is a table header.
type Column struct {
	Label string
	Class string
}

// Cell is one rendered table cell.
type Cell struct {
	Text  string
	Sub   string
	Link  string
	Class string
	Badge *actions.Badge
}

// RowView is one rendered entity row.
type RowView struct {
	ID      int64
	Cells   []Cell
	Actions []actions.Action
}

// Table is the complete list view-model handed to a renderer.
type Table struct {
	Columns    []Column
	Filters    []FilterView
	Rows       []RowView
	Empty      bool
	EmptyText  string
	Error      string
	Colspan    int
	Pagination shared.Pagination
	Pager      Pager
	filters    url.Values
}

// HasRows reports whether entity rows are present.
func (t Table) HasRows() bool {
	return len(t.Rows) > 0
}

// PageInfo is the "showing a-b of n" label.
func (t Table) PageInfo() string {
	if t.Pagination.Total == 0 {
		return "No records"
	}
	return fmt.Sprintf("Showing %d-%d of %d", t.Pagination.Start(), t.Pagination.End(), t.Pagination.Total)
}

// TotalInfo is the "n records" label.
func (t Table) TotalInfo() string {
	return fmt.Sprintf("%d records", t.Pagination.Total)
}

// PageHref links to page keeping the current filters.
func (t Table) PageHref(page int) string {
	q := url.Values{}
	for k, v := range t.filters {
		q[k] = v
	}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if len(q) == 0 {
		return "?"
	}
	return "?" + q.Encode()
}

// FilterQuery returns the encoded filters without the page, for return links.
func (t Table) FilterQuery() string {
	return t.filters.Encode()
}

// CurrentQuery encodes the filters and the current page, so a row action can
// send the operator back to the same list view.
func (t Table) CurrentQuery() string {
	q := url.Values{}
	for k, v := range t.filters {
		q[k] = v
	}
	if t.Pagination.Page > 1 {
		q.Set("page", strconv.Itoa(t.Pagination.Page))
	}
	return q.Encode()
}
