// Package queries manages saved award queries: reusable search definitions
// stored as TOML files, one query per file, under the queries directory.
// A set of built-in queries is always available and can be shadowed by a
// same-named file on disk.
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fedspend/fedspend/internal/constants"
	"github.com/fedspend/fedspend/internal/spending"
	"github.com/ubuntu/decorate"
)

var (
	// ErrNotFound is returned when no query with the requested name exists.
	ErrNotFound = errors.New("query not found")
	// ErrInvalidName is returned when a query name is not a simple file name.
	ErrInvalidName = errors.New("invalid query name")
)

// Manager is a struct that manages query files.
type Manager struct {
	log *slog.Logger

	path string
}

// Query is a saved search definition.
//
// Filters holds the filter object in its generic form so that any key the
// API understands can be saved, not just the ones this tool models.
type Query struct {
	Description string         `toml:"description,omitempty"`
	Filters     map[string]any `toml:"filters,omitempty"`
	Fields      []string       `toml:"fields,omitempty"`
	Limit       uint           `toml:"limit,omitempty"`
	Pages       uint           `toml:"pages,omitempty"`
	Sort        string         `toml:"sort,omitempty"`
	Order       string         `toml:"order,omitempty"`
}

// New returns a new Manager.
// path is the folder the queries are stored into.
func New(l *slog.Logger, path string) *Manager {
	return &Manager{log: l, path: path}
}

// Get returns the query with the given name.
// A query file on disk takes precedence over a built-in query of the same
// name. If neither exists, ErrNotFound is returned.
func (m Manager) Get(name string) (Query, error) {
	if err := validateName(name); err != nil {
		return Query{}, err
	}

	var q Query
	path := m.queryFile(name)
	_, err := toml.DecodeFile(path, &q)
	if errors.Is(err, fs.ErrNotExist) {
		b, ok := builtinQueries[name]
		if !ok {
			return Query{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		m.log.Debug("Using built-in query", "name", name)
		return b, nil
	}
	if err != nil {
		return Query{}, fmt.Errorf("could not read query %s: %v", name, err)
	}

	m.log.Debug("Read query file", "file", path)
	return q, nil
}

// Set saves the query under the given name, creating the queries directory
// if needed and replacing any previous definition atomically.
// Not atomic on Windows.
func (m Manager) Set(name string, q Query) (err error) {
	defer decorate.OnError(&err, "could not save query %s", name)

	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(m.path, 0750); err != nil {
		return err
	}

	return q.write(m.log, m.queryFile(name))
}

// All returns every available query by name: the built-in ones plus the
// queries on disk, with disk definitions shadowing built-in ones.
// Files that are not well-formed query definitions are skipped.
func (m Manager) All() (map[string]Query, error) {
	queries := maps.Clone(builtinQueries)

	entries, err := os.ReadDir(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return queries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not list queries in %s: %v", m.path, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), constants.QueryExtension) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), constants.QueryExtension)
		if validateName(name) != nil {
			continue
		}

		q, err := m.Get(name)
		if err != nil {
			m.log.Warn("Skipping unreadable query file", "file", entry.Name(), "error", err)
			continue
		}
		queries[name] = q
	}

	return queries, nil
}

// SearchRequest converts the query into a search request. The generic filter
// map goes through its JSON form so every saved key is forwarded verbatim.
// The query's page count is not part of the request and is read separately.
func (q Query) SearchRequest() (spending.SearchRequest, error) {
	req := spending.SearchRequest{
		Fields: q.Fields,
		Limit:  q.Limit,
		Sort:   q.Sort,
		Order:  q.Order,
	}
	if len(q.Filters) == 0 {
		return req, nil
	}

	raw, err := json.Marshal(q.Filters)
	if err != nil {
		return spending.SearchRequest{}, fmt.Errorf("could not convert query filters: %v", err)
	}
	f, err := spending.RawFilters(raw)
	if err != nil {
		return spending.SearchRequest{}, fmt.Errorf("could not convert query filters: %v", err)
	}
	req.Filters = f

	return req, nil
}

// queryFile returns the expected path to the query file for the given name.
// It does not check if the file exists, or if it is valid.
func (m Manager) queryFile(name string) string {
	return filepath.Join(m.path, name+constants.QueryExtension)
}

// validateName rejects names that would escape the queries directory or hide
// the file.
func validateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// write writes the query to the given path atomically, replacing it if it
// already exists. Not atomic on Windows.
func (q Query) write(l *slog.Logger, path string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "query-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file: %v", err)
	}
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			l.Warn("Failed to remove temporary file when writing query file", "file", tmp.Name(), "error", err)
		}
	}()

	if err := toml.NewEncoder(tmp).Encode(q); err != nil {
		return fmt.Errorf("could not encode query file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary file: %v", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not rename temporary file: %v", err)
	}
	l.Debug("Wrote query file", "file", path)

	return nil
}
