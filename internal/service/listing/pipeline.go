package listing

// Query is a full listing request: text filter, ordering and page.
type Query struct {
	Text     string
	Order    Order
	Page     int
	PageSize int
}

// Page is one page of a filtered and sorted listing.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
	Markers    []Marker
	// OutOfRange is set when the requested page did not exist and page one is shown.
	OutOfRange bool
	Requested  int
}

// Run filters, sorts and pages items.
func Run[T any](items []T, fields Fields[T], query Query) (Page[T], error) {
	filtered := Filter(items, query.Text, fields.Name)
	sorted, err := Sort(filtered, fields, query.Order)
	if err != nil {
		return Page[T]{}, err
	}

	size := query.PageSize
	if size <= 0 {
		size = ProductPageSize
	}
	pager := NewPager(TotalPages(len(sorted), size))
	page := Page[T]{Requested: query.Page}
	if query.Page != 0 && query.Page != pager.Current() && !pager.GoTo(query.Page) {
		page.OutOfRange = true
	}

	page.Items = PageSlice(sorted, pager.Current(), size)
	page.Number = pager.Current()
	page.TotalPages = pager.TotalPages()
	page.TotalItems = len(sorted)
	page.Markers = pager.Markers()
	return page, nil
}
