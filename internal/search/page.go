package search

// Page is one slice of a ranked result set.
type Page struct {
	Items      []ScoredListing `json:"items"`
	TotalCount int             `json:"total_count"`
	PageIndex  int             `json:"page_index"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	HasNext    bool            `json:"has_next"`
}

// Paginate slices ranked into the zero-based page pageIndex of size pageSize.
// TotalCount is len(ranked) on every page; a page past the end has no items.
// pageSize must be positive.
func Paginate(ranked []ScoredListing, pageIndex, pageSize int) *Page {
	total := len(ranked)
	page := &Page{
		Items:      []ScoredListing{},
		TotalCount: total,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	if pageIndex >= page.TotalPages {
		return page
	}
	start := pageIndex * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	page.Items = ranked[start:end]
	page.HasNext = end < total
	return page
}
