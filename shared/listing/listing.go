// Package listing normalizes offset/limit/sort requests shared by every
// paginated endpoint. Sort fields are resolved through a per-resource
// allow-list and never reach SQL as caller-supplied text.
package listing

import (
	"fmt"
	"strings"

	"github.com/eaglebank/ledger/shared/errs"
)

const (
	DefaultLimit     = 12
	MaxLimit         = 100
	DefaultSortField = "createdAt"
)

type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Params is the raw listing input as bound from the query string.
type Params struct {
	Offset    int    `form:"offset" validate:"gte=0"`
	Limit     int    `form:"limit" validate:"gte=0"`
	SortField string `form:"sortField"`
	SortOrder string `form:"sortOrder"`
}

// Sortable maps public field names to SQL column names.
type Sortable map[string]string

// Query is a normalized listing request that is safe to render into SQL.
type Query struct {
	Offset    int
	Limit     int
	SortField string
	Column    string
	Order     Order
}

// Normalize applies defaults (offset 0, limit 12, createdAt, descending) and
// rejects unknown sort fields and directions.
func (s Sortable) Normalize(p Params) (Query, error) {
	if p.Offset < 0 {
		return Query{}, fmt.Errorf("%w: offset must not be negative", errs.ErrInvalidInput)
	}
	if p.Limit < 0 {
		return Query{}, fmt.Errorf("%w: limit must not be negative", errs.ErrInvalidInput)
	}

	q := Query{Offset: p.Offset, Limit: p.Limit, SortField: p.SortField, Order: Desc}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.SortField == "" {
		q.SortField = DefaultSortField
	}

	column, ok := s[q.SortField]
	if !ok {
		return Query{}, fmt.Errorf("%w: unknown sort field %q", errs.ErrInvalidInput, q.SortField)
	}
	q.Column = column

	switch strings.ToUpper(p.SortOrder) {
	case "":
	case string(Asc):
		q.Order = Asc
	case string(Desc):
		q.Order = Desc
	default:
		return Query{}, fmt.Errorf("%w: sort order must be asc or desc", errs.ErrInvalidInput)
	}
	return q, nil
}

// OrderBy renders the ORDER BY expression. id breaks ties so pages are stable.
func (q Query) OrderBy() string {
	if q.Column == "id" {
		return "id " + string(q.Order)
	}
	return q.Column + " " + string(q.Order) + ", id " + string(q.Order)
}

type Meta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Page is the response envelope for listings.
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

func NewPage[T any](data []T, total int, q Query) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data: data,
		Meta: Meta{Total: total, Offset: q.Offset, Limit: q.Limit},
	}
}
