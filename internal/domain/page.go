package domain

// PageRequest is a zero-based page selector.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() int { return p.Page * p.Size }

// Page is one page of a listing plus its position in the whole result.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Last       bool  `json:"last"`
}

// NewPage assembles a Page from items and the total row count.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	pages := int(total) / req.Size
	if int(total)%req.Size != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return Page[T]{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		Total:      total,
		TotalPages: pages,
		Last:       req.Page >= pages-1,
	}
}
