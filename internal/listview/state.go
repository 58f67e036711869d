package listview

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/taopiaopiao/boxoffice/internal/shared"
)

// State is the filter and pagination view-model of one list view. It is safe
// for concurrent use; loads are sequenced so only the newest response applies.
type State struct {
	mu      sync.Mutex
	filters map[string]string
	page    int
	last    shared.Pagination
	issued  uint64
	applied uint64
}

// NewState returns a state on page 1 with no filters.
func NewState() *State {
	return &State{filters: make(map[string]string), page: 1}
}

// FromQuery restores a state from a list URL. Only the declared filter keys
// are read. A missing or invalid page means page 1.
func FromQuery(values url.Values, filters []Filter) *State {
	s := NewState()
	for _, f := range filters {
		if v := strings.TrimSpace(values.Get(f.Key)); v != "" {
			s.filters[f.Key] = v
		}
	}
	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 1 {
		s.page = page
	}
	return s
}

// SetFilter updates one filter and resets to page 1. An empty value removes
// the constraint.
func (s *State) SetFilter(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value = strings.TrimSpace(value)
	if value == "" {
		delete(s.filters, key)
	} else {
		s.filters[key] = value
	}
	s.page = 1
}

// Filter returns the current value of key.
func (s *State) Filter(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters[key]
}

// Filters returns a copy of the non-empty filters.
func (s *State) Filters() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.filters))
	for k, v := range s.filters {
		out[k] = v
	}
	return out
}

// Page returns the current page.
func (s *State) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Pagination returns the metadata of the last applied load.
func (s *State) Pagination() shared.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// GoTo moves to page, keeping filters. Pages outside 1..max(totalPages,1) of
// the last applied load are ignored and GoTo returns false.
func (s *State) GoTo(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.last.InRange(page) {
		return false
	}
	s.page = page
	return true
}

// Query composes the request parameters: non-empty filters, page and pageSize.
func (s *State) Query(pageSize int) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query(pageSize)
}

func (s *State) query(pageSize int) url.Values {
	q := url.Values{}
	for k, v := range s.filters {
		q.Set(k, v)
	}
	q.Set("page", strconv.Itoa(s.page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q
}

type ticket struct {
	seq      uint64
	page     int
	pageSize int
	query    url.Values
}

func (s *State) begin(pageSize int) ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return ticket{seq: s.issued, page: s.page, pageSize: pageSize, query: s.query(pageSize)}
}

// current reports whether no newer load has been issued since t.
func (s *State) current(t ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.seq == s.issued
}

// apply records the result of t unless a newer load already applied.
func (s *State) apply(t ticket, total int) (shared.Pagination, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.seq < s.applied {
		return shared.Pagination{}, false
	}
	s.applied = t.seq
	s.last = shared.NewPagination(t.page, t.pageSize, total)
	s.page = t.page
	return s.last, true
}

func (s *State) clamp(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}
