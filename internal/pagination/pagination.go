// Package pagination is the shared page/limit plumbing for list endpoints.
package pagination

import "strconv"

const (
	DefaultSize = 10
	maxSize     = 100
)

// Page is a 1-based page number plus page size.
type Page struct {
	Number int
	Size   int
}

// Parse builds a Page from raw query values, falling back to page 1 and the
// default size on anything unparseable.
func Parse(pageStr, sizeStr string) Page {
	p := Page{Number: 1, Size: DefaultSize}
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(sizeStr); err == nil && n > 0 {
		p.Size = n
	}
	if p.Size > maxSize {
		p.Size = maxSize
	}
	return p
}

// LimitOffset converts the page to SQL limit and offset.
func (p Page) LimitOffset() (limit, offset int) {
	size := p.Size
	if size <= 0 {
		size = DefaultSize
	}
	number := p.Number
	if number <= 0 {
		number = 1
	}
	return size, (number - 1) * size
}

// Result is one page of items plus the total match count.
type Result[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewResult wraps items in a Result, normalizing nil items to an empty slice
// so JSON renders [] rather than null.
func NewResult[T any](items []T, total int, p Page) *Result[T] {
	if items == nil {
		items = []T{}
	}
	return &Result[T]{Items: items, Total: total, Page: p.Number, PageSize: p.Size}
}
