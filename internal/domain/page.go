package domain

// DefaultPageLimit is the page size used by list views.
const DefaultPageLimit = 10

// Page is a normalized list response. Counters are nil when the API returned a bare array.
type Page[T any] struct {
	Items []T
	Total *int
	Page  *int
	Limit *int
	Pages *int
}

// Len returns the number of items on the page.
func (p Page[T]) Len() int { return len(p.Items) }

// Pager describes navigation state for a list view.
type Pager struct {
	Page       int
	Limit      int
	Length     int
	Total      int
	TotalPages int
	CanPrev    bool
	CanNext    bool
}

// Pager computes navigation for the requested page and limit.
// Total pages come from Pages, else from Total and limit, else they are unknown (0)
// and a full page is taken as a hint that another page exists.
func (p Page[T]) Pager(page, limit int) Pager {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	pg := Pager{Page: page, Limit: limit, Length: len(p.Items), Total: len(p.Items)}
	if p.Total != nil {
		pg.Total = *p.Total
	}

	switch {
	case p.Pages != nil && *p.Pages > 0:
		pg.TotalPages = *p.Pages
	case p.Total != nil && *p.Total > 0:
		pg.TotalPages = (*p.Total + limit - 1) / limit
	}

	pg.CanPrev = page > 1
	if pg.TotalPages > 0 {
		pg.CanNext = page < pg.TotalPages
	} else {
		pg.CanNext = pg.Length >= limit
	}
	return pg
}
