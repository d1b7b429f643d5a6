package store

type (
	// Pagination describes where a Page sits inside a result set.
	Pagination struct {
		Page    int   `json:"page"`
		Limit   int   `json:"limit"`
		Total   int64 `json:"total"`
		Pages   int64 `json:"pages"`
		HasNext bool  `json:"hasNext"`
		HasPrev bool  `json:"hasPrev"`
	}
)

func (p Page) Describe(total int64) Pagination {
	out := Pagination{Page: p.Page, Limit: p.Limit, Total: total}
	if p.Limit > 0 {
		out.Pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	out.HasNext = int64(p.Page) < out.Pages
	out.HasPrev = p.Page > 1
	return out
}
