package pagination

import (
	"math"
	"net/http"
	"strconv"
)

// Params holds page/limit values read from a query string.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the number of records to skip. It saturates instead of
// overflowing, so far pages read as empty.
func (p Params) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > (math.MaxInt-p.Limit)/p.Limit {
		return math.MaxInt - p.Limit
	}
	return (p.Page - 1) * p.Limit
}

// Parse normalizes raw page and limit strings. Missing, non-numeric or
// non-positive values fall back to page 1 and defaultLimit; limit is capped
// at maxLimit and page at the last page whose offset fits in an int.
func Parse(rawPage, rawLimit string, defaultLimit, maxLimit int) Params {
	p := Params{Page: 1, Limit: defaultLimit}

	if v, err := strconv.Atoi(rawPage); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(rawLimit); err == nil && v > 0 {
		p.Limit = v
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Page > math.MaxInt/p.Limit {
		p.Page = math.MaxInt / p.Limit
	}
	return p
}

// FromRequest reads the "page" and "limit" query parameters.
func FromRequest(r *http.Request, defaultLimit, maxLimit int) Params {
	q := r.URL.Query()
	return Parse(q.Get("page"), q.Get("limit"), defaultLimit, maxLimit)
}

// LimitFromRequest reads only the "limit" query parameter.
func LimitFromRequest(r *http.Request, defaultLimit, maxLimit int) int {
	return Parse("", r.URL.Query().Get("limit"), defaultLimit, maxLimit).Limit
}

// Page is one page of a listing in the storefront's wire shape.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// NewPage builds a Page. HasMore holds when records remain past this page.
func NewPage[T any](items []T, total int, params Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
		HasMore: params.Offset()+len(items) < total,
	}
}
