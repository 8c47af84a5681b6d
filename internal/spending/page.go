package spending

import (
	"encoding/json"
)

// Page is the decoded response for one search request: the award records in
// response order, plus the pagination metadata kept raw so that re-encoding
// the page reproduces it verbatim.
//
// A page lives for one request: the client constructs it, the caller hands it
// to the exporter, nothing caches it.
type Page struct {
	Results  []Award         `json:"results"`
	Metadata json.RawMessage `json:"page_metadata,omitempty"`
	Messages json.RawMessage `json:"messages,omitempty"`
}

// Meta is the decoded view of the pagination metadata the client acts on.
type Meta struct {
	Page        int64 `json:"page"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// Meta decodes the pagination metadata. Missing or malformed metadata yields
// the zero Meta.
func (p Page) Meta() Meta {
	if len(p.Metadata) == 0 {
		return Meta{}
	}

	var m Meta
	if err := json.Unmarshal(p.Metadata, &m); err != nil {
		return Meta{}
	}
	return m
}
