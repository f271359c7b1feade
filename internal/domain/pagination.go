package domain

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries the common list query shared by every collection
// endpoint.
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Status string
}

// Normalize clamps page and limit into their allowed ranges.
func (p ListParams) Normalize() ListParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	switch {
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	}
	p.Search = strings.TrimSpace(p.Search)
	p.Status = strings.TrimSpace(p.Status)
	return p
}

func (p ListParams) Offset() int { return (p.Page - 1) * p.Limit }

// Page is one page of a list result.
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

func (p Page[T]) TotalPages() int {
	if p.Total == 0 || p.Limit == 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func NewPage[T any](items []T, total int, params ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
}
