// Package exporter writes fetched award pages to disk, as the full JSON
// response and as a flattened CSV, and renders their console summary.
package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"log/slog"

	"github.com/fedspend/fedspend/internal/fileutils"
	"github.com/fedspend/fedspend/internal/spending"
	"github.com/ubuntu/decorate"
)

// Exporter writes search result pages to files.
type Exporter struct {
	log *slog.Logger

	dryRun bool
}

type options struct {
	// Private members exported for tests.
	dryRun bool
}

// Options represents an optional function to override Exporter default values.
type Options func(*options)

// WithDryRun makes the exporter log what it would write without touching any file.
func WithDryRun(dryRun bool) Options {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// New returns a new Exporter.
func New(l *slog.Logger, args ...Options) Exporter {
	opts := options{}
	for _, opt := range args {
		opt(&opts)
	}

	return Exporter{
		log:    l,
		dryRun: opts.dryRun,
	}
}

// WriteJSON writes the full page to path as indented JSON, replacing any
// previous file. Results keep their fetched order and fields, and the page
// metadata is carried over verbatim, so decoding the file restores the page
// as it came from the API. A page with no results is written with an empty
// results array.
func (e Exporter) WriteJSON(page spending.Page, path string) (err error) {
	defer decorate.OnError(&err, "could not export JSON to %s", path)

	if page.Results == nil {
		page.Results = []spending.Award{}
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if e.dryRun {
		e.log.Info("Dry run, skipping JSON export", "path", path, "records", len(page.Results))
		return nil
	}
	if err := fileutils.AtomicWrite(path, data); err != nil {
		return err
	}

	e.log.Info("Exported awards to JSON", "path", path, "records", len(page.Results))
	return nil
}

// WriteCSV flattens the page's results to path as CSV, replacing any
// previous file.
//
// The header is computed first as the union of all field names across the
// page, in first-seen order, so records of differing shapes all fit. Rows
// follow in result order, one per award, with an empty cell for every field
// a record does not have. A page with no results still gets its header line.
func (e Exporter) WriteCSV(page spending.Page, path string) (err error) {
	defer decorate.OnError(&err, "could not export CSV to %s", path)

	header := columnOrder(page.Results)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, award := range page.Results {
		for i, field := range header {
			row[i] = award.Cell(field)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if e.dryRun {
		e.log.Info("Dry run, skipping CSV export", "path", path, "records", len(page.Results))
		return nil
	}
	if err := fileutils.AtomicWrite(path, buf.Bytes()); err != nil {
		return err
	}

	e.log.Info("Exported awards to CSV", "path", path, "records", len(page.Results), "columns", len(header))
	return nil
}

// columnOrder returns the union of the awards' field names, ordered by first
// appearance across the page.
func columnOrder(awards []spending.Award) []string {
	var header []string
	seen := make(map[string]struct{})
	for _, award := range awards {
		for _, field := range award.Fields() {
			if _, ok := seen[field]; ok {
				continue
			}
			seen[field] = struct{}{}
			header = append(header, field)
		}
	}
	return header
}
