package listview

import "sort"

// PageLink is one pager entry. Ellipsis entries carry no page.
type PageLink struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// Pager is the page navigation view-model.
type Pager struct {
	Links   []PageLink
	Prev    int
	Next    int
	HasPrev bool
	HasNext bool
}

// Visible reports whether the pager should be drawn at all.
func (p Pager) Visible() bool {
	return len(p.Links) > 0
}

// BuildPager shows the first page, the last page and current±2. Gaps between
// shown pages collapse into a single ellipsis. Zero or one page yields an
// empty pager.
func BuildPager(current, totalPages int) Pager {
	if totalPages <= 1 {
		return Pager{}
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	seen := map[int]bool{1: true, totalPages: true}
	for i := current - 2; i <= current+2; i++ {
		if i >= 1 && i <= totalPages {
			seen[i] = true
		}
	}
	pages := make([]int, 0, len(seen))
	for page := range seen {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	links := make([]PageLink, 0, len(pages)+2)
	for i, page := range pages {
		if i > 0 && page-pages[i-1] > 1 {
			links = append(links, PageLink{Ellipsis: true})
		}
		links = append(links, PageLink{Page: page, Current: page == current})
	}
	return Pager{
		Links:   links,
		Prev:    current - 1,
		Next:    current + 1,
		HasPrev: current > 1,
		HasNext: current < totalPages,
	}
}
