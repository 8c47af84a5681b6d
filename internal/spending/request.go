package spending

import (
	"time"

	"github.com/fedspend/fedspend/internal/constants"
)

// SearchRequest describes one spending-by-award search.
//
// Zero values mean "unset": they are replaced with defaults when the request
// is submitted. An explicitly empty, non-nil Filters is sent as an empty
// filter object and lets the API apply its own defaults.
type SearchRequest struct {
	Filters *Filters
	Fields  []string
	Limit   uint
	Page    uint
	Sort    string
	Order   string
}

// searchPayload is the wire form POSTed to the search endpoint.
type searchPayload struct {
	Filters *Filters `json:"filters"`
	Fields  []string `json:"fields"`
	Limit   uint     `json:"limit"`
	Page    uint     `json:"page"`
	Sort    string   `json:"sort"`
	Order   string   `json:"order"`
}

// withDefaults returns a copy of r with unset values replaced by defaults.
// The returned bool reports whether the limit was clamped to the API maximum.
func (r SearchRequest) withDefaults(now time.Time) (SearchRequest, bool) {
	clamped := false

	if r.Filters == nil {
		r.Filters = DefaultFilters(now)
	}
	if r.Fields == nil {
		r.Fields = constants.DefaultFields()
	}
	if r.Limit == 0 {
		r.Limit = constants.DefaultLimit
	}
	if r.Limit > constants.MaxLimit {
		r.Limit = constants.MaxLimit
		clamped = true
	}
	if r.Page == 0 {
		r.Page = constants.DefaultPage
	}
	if r.Sort == "" {
		r.Sort = constants.DefaultSort
	}
	if r.Order == "" {
		r.Order = constants.DefaultOrder
	}

	return r, clamped
}
