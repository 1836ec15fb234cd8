package listing

import (
	"encoding/json"
	"strconv"
)

const (
	// StorePageSize is the page size of store listings.
	StorePageSize = 10
	// ProductPageSize is the page size of product listings.
	ProductPageSize = 20
)

const ellipsis = "..."

// TotalPages returns ceil(length/size), never less than one.
func TotalPages(length, size int) int {
	if size <= 0 || length <= 0 {
		return 1
	}
	return (length + size - 1) / size
}

// PageSlice returns the 1-based page window of items. Pages outside the
// sequence yield an empty slice.
func PageSlice[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Marker is one entry of a page-index strip: a page number or an ellipsis.
type Marker struct {
	page int
}

// PageMarker returns a marker for page.
func PageMarker(page int) Marker {
	return Marker{page: page}
}

// EllipsisMarker returns the collapsed-range marker.
func EllipsisMarker() Marker {
	return Marker{}
}

// Page returns the page number and false for the ellipsis.
func (m Marker) Page() (int, bool) {
	return m.page, m.page > 0
}

// IsEllipsis reports whether the marker stands for collapsed pages.
func (m Marker) IsEllipsis() bool {
	return m.page <= 0
}

func (m Marker) String() string {
	if m.IsEllipsis() {
		return ellipsis
	}
	return strconv.Itoa(m.page)
}

// MarshalJSON renders page markers as numbers and the ellipsis as "...".
func (m Marker) MarshalJSON() ([]byte, error) {
	if m.IsEllipsis() {
		return json.Marshal(ellipsis)
	}
	return json.Marshal(m.page)
}

// MarshalYAML mirrors MarshalJSON.
func (m Marker) MarshalYAML() (any, error) {
	if m.IsEllipsis() {
		return ellipsis, nil
	}
	return m.page, nil
}

// Markers renders the compact page strip around current:
// the first page and an ellipsis when current > 2, the neighbours of current,
// and an ellipsis and the last page when current < total-1.
func Markers(current, total int) []Marker {
	markers := make([]Marker, 0, 7)
	if current > 2 {
		markers = append(markers, PageMarker(1), EllipsisMarker())
	}
	if current > 1 {
		markers = append(markers, PageMarker(current-1))
	}
	markers = append(markers, PageMarker(current))
	if current < total {
		markers = append(markers, PageMarker(current+1))
	}
	if current < total-1 {
		markers = append(markers, EllipsisMarker(), PageMarker(total))
	}
	return markers
}

// Pager tracks the current page of a listing.
type Pager struct {
	current int
	total   int
}

// NewPager starts at page one of totalPages.
func NewPager(totalPages int) *Pager {
	if totalPages < 1 {
		totalPages = 1
	}
	return &Pager{current: 1, total: totalPages}
}

// Current returns the current page.
func (p *Pager) Current() int {
	return p.current
}

// TotalPages returns the number of pages.
func (p *Pager) TotalPages() int {
	return p.total
}

// GoTo moves to page. Out-of-range pages leave the pager unchanged and return false.
func (p *Pager) GoTo(page int) bool {
	if page < 1 || page > p.total {
		return false
	}
	p.current = page
	return true
}

// Select moves to the page a marker points at. The ellipsis is a no-op.
func (p *Pager) Select(marker Marker) bool {
	page, ok := marker.Page()
	if !ok {
		return false
	}
	return p.GoTo(page)
}

// Next moves forward one page.
func (p *Pager) Next() bool {
	return p.GoTo(p.current + 1)
}

// Prev moves back one page.
func (p *Pager) Prev() bool {
	return p.GoTo(p.current - 1)
}

// Markers renders the page strip for the current state.
func (p *Pager) Markers() []Marker {
	return Markers(p.current, p.total)
}
