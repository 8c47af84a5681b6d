package spending_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fedspend/fedspend/internal/spending"
	"github.com/fedspend/fedspend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

// payload mirrors the wire form of a search request for assertions.
type payload struct {
	Filters json.RawMessage `json:"filters"`
	Fields  []string        `json:"fields"`
	Limit   uint            `json:"limit"`
	Page    uint            `json:"page"`
	Sort    string          `json:"sort"`
	Order   string          `json:"order"`
}

const defaultFieldsJSON = `["Award ID","Recipient Name","Start Date","End Date","Award Amount","Total Outlays",
	"Awarding Agency","Awarding Sub Agency","Award Type","Funding Agency","Funding Sub Agency"]`

const onePageBody = `{
	"results":[{"Award ID":"CONT-1","Award Amount":1000000.5}],
	"page_metadata":{"page":1,"total":1,"hasNext":false,"hasPrevious":false},
	"messages":["late reporting note"]
}`

func TestSearch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		req        spending.SearchRequest
		rawFilters string

		status    int
		respBody  string
		closed    bool
		cancelCtx bool

		wantBody    string
		wantRecords int
		wantWarning bool

		wantErr       error
		wantAPIStatus int
		wantAPIDetail string
	}{
		"Unset request falls back to defaults": {
			wantBody: `{
				"filters": {"time_period":[{"start_date":"2023-07-15","end_date":"2024-07-15"}]},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 50, "page": 1, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 1,
		},
		"Filters and paging pass through unchanged": {
			req: spending.SearchRequest{
				Filters: &spending.Filters{AwardTypeCodes: []string{"10"}},
				Limit:   100,
				Page:    1,
			},
			wantBody: `{
				"filters": {"award_type_codes":["10"]},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 100, "page": 1, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 1,
		},
		"Explicit request overrides every default": {
			req: spending.SearchRequest{
				Filters: &spending.Filters{Keywords: []string{"transit"}},
				Fields:  []string{"End Date", "Award ID"},
				Limit:   25,
				Page:    3,
				Sort:    "Start Date",
				Order:   "asc",
			},
			wantBody: `{
				"filters": {"keywords":["transit"]},
				"fields": ["End Date","Award ID"],
				"limit": 25, "page": 3, "sort": "Start Date", "order": "asc"
			}`,
			wantRecords: 1,
		},
		"Empty filter object is forwarded as empty": {
			req: spending.SearchRequest{Filters: &spending.Filters{}},
			wantBody: `{
				"filters": {},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 50, "page": 1, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 1,
		},
		"Opaque filters are forwarded verbatim": {
			rawFilters: `{"def_codes":["L","M"],"time_period":[{"start_date":"2020-04-01","end_date":"2021-09-30","date_type":"action_date"}]}`,
			wantBody: `{
				"filters": {"def_codes":["L","M"],"time_period":[{"start_date":"2020-04-01","end_date":"2021-09-30","date_type":"action_date"}]},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 50, "page": 1, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 1,
		},
		"Limit above the API maximum is clamped": {
			req: spending.SearchRequest{Limit: 9999},
			wantBody: `{
				"filters": {"time_period":[{"start_date":"2023-07-15","end_date":"2024-07-15"}]},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 500, "page": 1, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 1,
			wantWarning: true,
		},
		"Page past the last one returns no records": {
			req:      spending.SearchRequest{Page: 40},
			respBody: `{"results":[],"page_metadata":{"page":40,"total":120,"hasNext":false,"hasPrevious":true}}`,
			wantBody: `{
				"filters": {"time_period":[{"start_date":"2023-07-15","end_date":"2024-07-15"}]},
				"fields": ` + defaultFieldsJSON + `,
				"limit": 50, "page": 40, "sort": "Award Amount", "order": "desc"
			}`,
			wantRecords: 0,
		},

		// Error cases
		"Error response returns the status and detail": {
			status:        http.StatusInternalServerError,
			respBody:      `{"detail":"Internal server error"}`,
			wantAPIStatus: http.StatusInternalServerError,
			wantAPIDetail: "Internal server error",
		},
		"Error response without a JSON body": {
			status:        http.StatusBadGateway,
			respBody:      `Bad Gateway`,
			wantAPIStatus: http.StatusBadGateway,
		},
		"Rejected search carries the API message": {
			status:        http.StatusBadRequest,
			respBody:      `{"detail":"Missing value: 'filters' is a required field"}`,
			wantAPIStatus: http.StatusBadRequest,
			wantAPIDetail: "Missing value: 'filters' is a required field",
		},
		"Unreachable server": {
			closed:  true,
			wantErr: spending.ErrRequestFailed,
		},
		"Canceled context": {
			cancelCtx: true,
			wantErr:   spending.ErrRequestFailed,
		},
		"Malformed response body": {
			respBody: `results: nope`,
			wantErr:  spending.ErrInvalidResponse,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			respBody := tc.respBody
			if respBody == "" {
				respBody = onePageBody
			}

			var gotBody []byte
			var gotPath, gotContentType string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotContentType = r.Header.Get("Content-Type")
				gotBody, _ = io.ReadAll(r.Body)

				if tc.status != 0 {
					w.WriteHeader(tc.status)
				}
				fmt.Fprint(w, respBody)
			}))
			t.Cleanup(ts.Close)
			if tc.closed {
				ts.Close()
			}

			req := tc.req
			if tc.rawFilters != "" {
				f, err := spending.RawFilters([]byte(tc.rawFilters))
				require.NoError(t, err, "Setup: could not parse raw filters")
				req.Filters = f
			}

			ctx := context.Background()
			if tc.cancelCtx {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			h := testutils.NewMockHandler()
			client := spending.New(slog.New(&h),
				spending.WithBaseURL(ts.URL),
				spending.WithTimeProvider(spending.MockTimeProvider{FixedTime: testTime}))

			page, err := client.Search(ctx, req)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "Search should fail with the expected error")
				return
			}
			if tc.wantAPIStatus != 0 {
				require.Error(t, err, "Search should fail on a non-2xx response")
				var apiErr *spending.APIError
				require.ErrorAs(t, err, &apiErr, "error should carry the API status")
				assert.Equal(t, tc.wantAPIStatus, apiErr.StatusCode, "status code should match the response")
				assert.Equal(t, tc.wantAPIDetail, apiErr.Detail, "detail should come from the error body")
				assert.Empty(t, page.Results, "no records should be returned on failure")
				return
			}
			require.NoError(t, err, "Search should not return an error")

			assert.Equal(t, "/api/v2/search/spending_by_award/", gotPath, "request should hit the search endpoint")
			assert.Equal(t, "application/json", gotContentType, "request body should be declared as JSON")
			assert.JSONEq(t, tc.wantBody, string(gotBody), "request payload should match expected")
			assert.Len(t, page.Results, tc.wantRecords, "record count should match the response")

			if tc.wantWarning {
				h.AssertLogged(t, slog.LevelWarn, "clamping")
			}
		})
	}
}

type stubResponse struct {
	status int
	body   string
}

func TestSearchPages(t *testing.T) {
	t.Parallel()

	page1 := `{"results":[{"Award ID":"A1"},{"Award ID":"A2"}],"page_metadata":{"page":1,"total":4,"hasNext":true,"hasPrevious":false}}`
	page2 := `{"results":[{"Award ID":"A3"}],"page_metadata":{"page":2,"total":4,"hasNext":true,"hasPrevious":true}}`
	page3 := `{"results":[{"Award ID":"A4"}],"page_metadata":{"page":3,"total":4,"hasNext":false,"hasPrevious":true}}`

	tests := map[string]struct {
		req       spending.SearchRequest
		pages     uint
		responses []stubResponse

		wantPages    []uint
		wantIDs      []string
		wantMetadata string

		wantAPIStatus int
	}{
		"Combines consecutive pages in fetch order": {
			pages:        3,
			responses:    []stubResponse{{body: page1}, {body: page2}, {body: page3}},
			wantPages:    []uint{1, 2, 3},
			wantIDs:      []string{"A1", "A2", "A3", "A4"},
			wantMetadata: `{"total":4,"pages":3}`,
		},
		"Stops when the API reports no further pages": {
			pages:        5,
			responses:    []stubResponse{{body: page1}, {body: page3}},
			wantPages:    []uint{1, 2},
			wantIDs:      []string{"A1", "A2", "A4"},
			wantMetadata: `{"total":3,"pages":2}`,
		},
		"Single page keeps the API metadata": {
			pages:        1,
			responses:    []stubResponse{{body: page1}},
			wantPages:    []uint{1},
			wantIDs:      []string{"A1", "A2"},
			wantMetadata: `{"page":1,"total":4,"hasNext":true,"hasPrevious":false}`,
		},
		"Zero pages behaves like a single page": {
			pages:        0,
			responses:    []stubResponse{{body: page3}},
			wantPages:    []uint{1},
			wantIDs:      []string{"A4"},
			wantMetadata: `{"page":3,"total":4,"hasNext":false,"hasPrevious":true}`,
		},
		"Starts at the requested page": {
			req:          spending.SearchRequest{Page: 4},
			pages:        2,
			responses:    []stubResponse{{body: page1}, {body: page3}},
			wantPages:    []uint{4, 5},
			wantIDs:      []string{"A1", "A2", "A4"},
			wantMetadata: `{"total":3,"pages":2}`,
		},

		// Error cases
		"Fails on the first page that cannot be fetched": {
			pages: 3,
			responses: []stubResponse{
				{body: page1},
				{status: http.StatusInternalServerError, body: `{"detail":"boom"}`},
			},
			wantAPIStatus: http.StatusInternalServerError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			// The client fetches sequentially, so the handler sees one call at a time.
			calls := 0
			var gotPages []uint
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var p payload
				_ = json.NewDecoder(r.Body).Decode(&p)
				gotPages = append(gotPages, p.Page)

				i := min(calls, len(tc.responses)-1)
				calls++
				if tc.responses[i].status != 0 {
					w.WriteHeader(tc.responses[i].status)
				}
				fmt.Fprint(w, tc.responses[i].body)
			}))
			t.Cleanup(ts.Close)

			h := testutils.NewMockHandler()
			client := spending.New(slog.New(&h),
				spending.WithBaseURL(ts.URL),
				spending.WithTimeProvider(spending.MockTimeProvider{FixedTime: testTime}))

			page, err := client.SearchPages(context.Background(), tc.req, tc.pages)
			if tc.wantAPIStatus != 0 {
				require.Error(t, err, "SearchPages should fail when a page cannot be fetched")
				var apiErr *spending.APIError
				require.ErrorAs(t, err, &apiErr, "error should carry the API status")
				assert.Equal(t, tc.wantAPIStatus, apiErr.StatusCode, "status code should match the response")
				assert.Empty(t, page.Results, "no records should be returned on failure")
				return
			}
			require.NoError(t, err, "SearchPages should not return an error")

			var gotIDs []string
			for _, a := range page.Results {
				gotIDs = append(gotIDs, a.Cell("Award ID"))
			}
			assert.Equal(t, tc.wantPages, gotPages, "requested page numbers should be consecutive")
			assert.Equal(t, tc.wantIDs, gotIDs, "combined records should keep fetch order")
			assert.JSONEq(t, tc.wantMetadata, string(page.Metadata), "combined metadata should match expected")
		})
	}
}
