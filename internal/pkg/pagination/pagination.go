package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is bound from ?page=&limit= query parameters. Page numbers start at 1.
type Page struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Meta is the pagination block returned next to list results.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func (p Page) Meta(total int64) Meta {
	n := p.Normalize()
	return Meta{Page: n.Page, Limit: n.Limit, Total: total}
}
