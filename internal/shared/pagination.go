package shared

// Paging describes one page of a windowed listing. Listings page with a
// peek-ahead row rather than a total count, so there is no total field.
type Paging struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// NewPaging computes paging metadata from a peek-ahead listing result.
func NewPaging(page, pageSize int, hasNext bool) Paging {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	p := Paging{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		p.PrevPage = page - 1
	}
	if hasNext {
		p.NextPage = page + 1
	}
	return p
}
