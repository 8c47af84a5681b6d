// Package fedspend contains the Golang bindings: search federal award spending and export the results.
package fedspend

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fedspend/fedspend/internal/constants"
	"github.com/fedspend/fedspend/internal/exporter"
	"github.com/fedspend/fedspend/internal/queries"
	"github.com/fedspend/fedspend/internal/spending"
)

// Config represents optional parameters shared by all calls.
type Config struct {
	ServerURL  string
	QueriesDir string

	Logger *slog.Logger // Optional logger, if not set, the default slog logger will be used.
}

// SearchFlags represents optional parameters for Search.
type SearchFlags struct {
	Query       string // Name of a saved or built-in query used as the baseline.
	FiltersJSON []byte // JSON filter object, forwarded to the API verbatim.
	Fields      []string
	Limit       uint
	Page        uint
	Pages       uint
	Sort        string
	Order       string
}

// ExportFlags represents optional parameters for Export.
type ExportFlags struct {
	JSONPath string
	CSVPath  string
	DryRun   bool
}

// Search errors.
var (
	// ErrRequestFailed is returned by Search when the request could not be delivered to the API.
	ErrRequestFailed = spending.ErrRequestFailed
	// ErrInvalidResponse is returned by Search when the API response could not be decoded.
	ErrInvalidResponse = spending.ErrInvalidResponse
)

// Query errors.
var (
	// ErrQueryNotFound is returned by Search when no saved or built-in query has the requested name.
	ErrQueryNotFound = queries.ErrNotFound
	// ErrInvalidQueryName is returned by Search when the query name is not a simple file name.
	ErrInvalidQueryName = queries.ErrInvalidName
)

// APIError is returned by Search when the API rejects the search with a
// non-success status. Use errors.As to read the status code and detail.
type APIError = spending.APIError

// Resolve returns a copy of the config with default values filled in where necessary.
//
// If ServerURL is not set, the public USAspending API will be used.
// If QueriesDir is not set, a default path will be used.
// If Logger is not set, the global default slog Logger will be used.
func (c Config) Resolve() Config {
	if c.ServerURL == "" {
		c.ServerURL = constants.DefaultServerURL
	}
	if c.QueriesDir == "" {
		c.QueriesDir = constants.GetDefaultQueriesDir()
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Search submits one spending-by-award search and returns the fetched page as
// a pretty printed JSON byte slice.
//
// Query, if set, names a saved or built-in query whose filters and settings
// are used as the baseline; the other flags take precedence over its values.
// FiltersJSON, if set, must be a valid JSON object; its keys reach the API
// verbatim, so any filter the API understands can be used. Unset flags fall
// back to the API client's defaults. Pages above 1 fetches that many
// consecutive pages and combines their results.
//
// This method calls Resolve() on the config before proceeding.
func (c Config) Search(ctx context.Context, flags SearchFlags) ([]byte, error) {
	r := c.Resolve()

	var req spending.SearchRequest
	if flags.Query != "" {
		q, err := queries.New(r.Logger, r.QueriesDir).Get(flags.Query)
		if err != nil {
			return nil, err
		}
		req, err = q.SearchRequest()
		if err != nil {
			return nil, err
		}
		if flags.Pages == 0 {
			flags.Pages = q.Pages
		}
	}

	if len(flags.FiltersJSON) > 0 {
		f, err := spending.RawFilters(flags.FiltersJSON)
		if err != nil {
			return nil, err
		}
		req.Filters = f
	}
	if flags.Fields != nil {
		req.Fields = flags.Fields
	}
	if flags.Limit > 0 {
		req.Limit = flags.Limit
	}
	if flags.Page > 0 {
		req.Page = flags.Page
	}
	if flags.Sort != "" {
		req.Sort = flags.Sort
	}
	if flags.Order != "" {
		req.Order = flags.Order
	}

	client := spending.New(r.Logger, spending.WithBaseURL(r.ServerURL))
	page, err := client.SearchPages(ctx, req, flags.Pages)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(page, "", "  ")
}

// Export writes a fetched page to disk, as the full JSON response and as a
// flattened CSV. Empty paths fall back to the default file names in the
// working directory.
//
// The page must be a search response as returned by Search; unknown top-level
// fields are rejected.
func (c Config) Export(page []byte, flags ExportFlags) error {
	r := c.Resolve()

	var p spending.Page
	dec := json.NewDecoder(bytes.NewReader(page))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}

	jsonPath := flags.JSONPath
	if jsonPath == "" {
		jsonPath = constants.DefaultJSONFile
	}
	csvPath := flags.CSVPath
	if csvPath == "" {
		csvPath = constants.DefaultCSVFile
	}

	e := exporter.New(r.Logger, exporter.WithDryRun(flags.DryRun))
	if err := e.WriteJSON(p, jsonPath); err != nil {
		return err
	}
	return e.WriteCSV(p, csvPath)
}

// Fetch runs the whole pipeline: one search followed by the export of both
// artifacts. It returns the fetched page as a pretty printed JSON byte slice.
//
// A search failure leaves the export paths untouched.
//
// This method calls Resolve() on the config before proceeding.
func (c Config) Fetch(ctx context.Context, search SearchFlags, export ExportFlags) ([]byte, error) {
	page, err := c.Search(ctx, search)
	if err != nil {
		return nil, err
	}

	if err := c.Export(page, export); err != nil {
		return nil, err
	}

	return page, nil
}
