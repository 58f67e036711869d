package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func render(p Pager) []any {
	out := make([]any, 0, len(p.Links))
	for _, l := range p.Links {
		if l.Ellipsis {
			out = append(out, "...")
			continue
		}
		out = append(out, l.Page)
	}
	return out
}

func TestBuildPager(t *testing.T) {
	cases := []struct {
		name    string
		current int
		total   int
		want    []any
	}{
		{name: "no pages", current: 1, total: 0, want: []any{}},
		{name: "single page", current: 1, total: 1, want: []any{}},
		{name: "small", current: 2, total: 4, want: []any{1, 2, 3, 4}},
		{name: "first of many", current: 1, total: 10, want: []any{1, 2, 3, "...", 10}},
		{name: "middle", current: 5, total: 10, want: []any{1, "...", 3, 4, 5, 6, 7, "...", 10}},
		{name: "last", current: 10, total: 10, want: []any{1, "...", 8, 9, 10}},
		{name: "adjacent gap", current: 4, total: 10, want: []any{1, 2, 3, 4, 5, 6, "...", 10}},
		{name: "gap of one page", current: 1, total: 5, want: []any{1, 2, 3, "...", 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(BuildPager(tc.current, tc.total)))
		})
	}
}

func TestPagerEdges(t *testing.T) {
	first := BuildPager(1, 5)
	assert.True(t, first.Visible())
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last := BuildPager(5, 5)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)
	assert.Equal(t, 4, last.Prev)

	for _, l := range BuildPager(3, 9).Links {
		if l.Page == 3 {
			assert.True(t, l.Current)
		}
	}
}

func TestPagerAlwaysIncludesBounds(t *testing.T) {
	for total := 2; total <= 30; total++ {
		for current := 1; current <= total; current++ {
			links := BuildPager(current, total).Links
			assert.Equal(t, 1, links[0].Page)
			assert.Equal(t, total, links[len(links)-1].Page)
			for i := 1; i < len(links); i++ {
				if links[i].Ellipsis || links[i-1].Ellipsis {
					continue
				}
				assert.Equal(t, links[i-1].Page+1, links[i].Page, "missing ellipsis at %d/%d", current, total)
			}
		}
	}
}
