// Package spending implements the request builder for the USAspending
// spending-by-award search API: it assembles the filter/field payload, issues
// the POST and returns the decoded page of award records.
package spending

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fedspend/fedspend/internal/constants"
	"github.com/fedspend/fedspend/internal/fileutils"
)

var (
	// ErrRequestFailed is returned when the search request could not be delivered to the API.
	ErrRequestFailed = errors.New("search request failed")
	// ErrInvalidResponse is returned when the API response body could not be decoded.
	ErrInvalidResponse = errors.New("invalid search response")
)

// APIError is returned when the API rejects a search with a non-2xx status code.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Detail)
}

type timeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

const responseTimeout = 30 * time.Second

// Client issues search requests against the spending-by-award endpoint.
type Client struct {
	log *slog.Logger

	baseURL      string
	httpClient   *http.Client
	timeProvider timeProvider
}

type options struct {
	// Private members exported for tests.
	baseURL      string
	httpClient   *http.Client
	timeProvider timeProvider
}

// Options represents an optional function to override Client default values.
type Options func(*options)

// WithBaseURL sets the base URL of the API server.
func WithBaseURL(url string) Options {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used to issue requests.
func WithHTTPClient(c *http.Client) Options {
	return func(o *options) {
		o.httpClient = c
	}
}

// New returns a new Client.
func New(l *slog.Logger, args ...Options) Client {
	opts := options{
		baseURL:      constants.DefaultServerURL,
		httpClient:   &http.Client{Timeout: responseTimeout},
		timeProvider: realTimeProvider{},
	}
	for _, opt := range args {
		opt(&opts)
	}

	return Client{
		log:          l,
		baseURL:      opts.baseURL,
		httpClient:   opts.httpClient,
		timeProvider: opts.timeProvider,
	}
}

// Search submits one search request and returns the decoded page.
//
// The request is normalized first: unset values are replaced with defaults,
// and a limit above the API maximum is clamped with a warning. A successful
// call with zero records is not an error; a page number past the last page
// yields such an empty page.
func (c Client) Search(ctx context.Context, req SearchRequest) (Page, error) {
	req, clamped := req.withDefaults(c.timeProvider.Now())
	if clamped {
		c.log.Warn("Requested limit is above the API maximum, clamping", "limit", req.Limit)
	}

	body, err := json.Marshal(searchPayload{
		Filters: req.Filters,
		Fields:  req.Fields,
		Limit:   req.Limit,
		Page:    req.Page,
		Sort:    req.Sort,
		Order:   req.Order,
	})
	if err != nil {
		return Page{}, fmt.Errorf("failed to marshal search payload: %v", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, constants.SearchEndpoint)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build endpoint URL from %s: %v", c.baseURL, err)
	}
	c.log.Debug("Searching spending by award", "url", endpoint, "page", req.Page, "limit", req.Limit)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Page{}, errors.Join(ErrRequestFailed, fmt.Errorf("failed to send HTTP request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Detail string `json:"detail"`
		}
		if err := fileutils.ParseJSON(resp.Body, &body); err == nil {
			apiErr.Detail = body.Detail
		}
		c.log.Error("Search rejected by the API", "status", apiErr.StatusCode, "detail", apiErr.Detail)
		return Page{}, apiErr
	}

	var page Page
	if err := fileutils.ParseJSON(resp.Body, &page); err != nil {
		return Page{}, errors.Join(ErrInvalidResponse, err)
	}

	meta := page.Meta()
	c.log.Info("Fetched awards page", "records", len(page.Results), "page", meta.Page, "total", meta.Total)
	return page, nil
}

// SearchPages fetches up to pages consecutive pages starting at req.Page,
// sequentially, and combines their results in fetch order. Fetching stops
// early when the API reports no further pages, and fails on the first page
// that cannot be fetched. The combined page's metadata reduces to the record
// total and the number of pages fetched.
func (c Client) SearchPages(ctx context.Context, req SearchRequest, pages uint) (Page, error) {
	if pages <= 1 {
		return c.Search(ctx, req)
	}

	start := req.Page
	if start == 0 {
		start = constants.DefaultPage
	}

	var combined Page
	fetched := uint(0)
	for i := uint(0); i < pages; i++ {
		req.Page = start + i
		page, err := c.Search(ctx, req)
		if err != nil {
			return Page{}, fmt.Errorf("failed to fetch page %d: %w", req.Page, err)
		}

		combined.Results = append(combined.Results, page.Results...)
		fetched++

		if !page.Meta().HasNext {
			break
		}
	}

	meta, err := json.Marshal(struct {
		Total int64 `json:"total"`
		Pages uint  `json:"pages"`
	}{Total: int64(len(combined.Results)), Pages: fetched})
	if err != nil {
		return Page{}, fmt.Errorf("failed to marshal combined page metadata: %v", err)
	}
	combined.Metadata = meta

	c.log.Info("Combined award pages", "pages", fetched, "records", len(combined.Results))
	return combined, nil
}
