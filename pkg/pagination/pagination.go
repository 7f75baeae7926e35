// Package pagination reads limit/offset query parameters and shapes paged
// list responses.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Params struct {
	Limit  int
	Offset int
}

// FromContext reads ?limit= and ?offset=. Missing or malformed values fall
// back to the defaults and limit is capped at MaxLimit.
func FromContext(c echo.Context) Params {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// Response wraps one page of a list.
type Response struct {
	Data       any  `json:"data"`
	Total      int  `json:"total"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset,omitempty"`
}

func NewResponse(data any, total, limit, offset int) *Response {
	r := &Response{
		Data:   data,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	p := Params{Limit: limit, Offset: offset}
	if p.HasNext(total) {
		next := offset + limit
		r.HasMore = true
		r.NextOffset = &next
	}
	return r
}
