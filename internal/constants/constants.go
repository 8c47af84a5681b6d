// Package constants is responsible for defining the constants used in the application.
// It also provides utility functions to get the default configuration and queries paths.
package constants

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Version is the version of the application.
var Version = "Dev"

const (
	// CmdName is the name of the command line tool.
	CmdName = "fedspend"

	// DefaultAppFolder is the name of the default root folder.
	DefaultAppFolder = "fedspend"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// DefaultServerURL is the base URL of the public USAspending API.
	DefaultServerURL = "https://api.usaspending.gov"

	// SearchEndpoint is the path of the spending-by-award search endpoint.
	SearchEndpoint = "/api/v2/search/spending_by_award/"

	// DefaultLimit is the number of results requested per page when unspecified.
	DefaultLimit uint = 50

	// MaxLimit is the upstream API's maximum number of results per page.
	MaxLimit uint = 500

	// DefaultPage is the page number requested when unspecified.
	DefaultPage uint = 1

	// DefaultSort is the field results are sorted by when unspecified.
	DefaultSort = "Award Amount"

	// DefaultOrder is the sort order applied when unspecified.
	DefaultOrder = "desc"

	// DefaultJSONFile is the default path of the full JSON output file.
	DefaultJSONFile = "usaspending_awards.json"

	// DefaultCSVFile is the default path of the flattened CSV output file.
	DefaultCSVFile = "usaspending_awards.csv"

	// QueriesFolder is the name of the saved queries folder.
	QueriesFolder = "queries"

	// QueryExtension is the extension of saved query files.
	QueryExtension = ".toml"
)

// DefaultFields returns the standard set of award fields requested when none are specified.
func DefaultFields() []string {
	return []string{
		"Award ID",
		"Recipient Name",
		"Start Date",
		"End Date",
		"Award Amount",
		"Total Outlays",
		"Awarding Agency",
		"Awarding Sub Agency",
		"Award Type",
		"Funding Agency",
		"Funding Sub Agency",
	}
}

type options struct {
	baseDir func() (string, error)
}

type option func(*options)

// GetDefaultConfigPath is the default path to the configuration directory.
func GetDefaultConfigPath(opts ...option) string {
	o := options{baseDir: os.UserConfigDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(getBaseDir(o.baseDir), DefaultAppFolder)
}

// GetDefaultQueriesDir is the default path to the saved queries directory.
func GetDefaultQueriesDir(opts ...option) string {
	o := options{baseDir: os.UserConfigDir}
	for _, opt := range opts {
		opt(&o)
	}

	return filepath.Join(getBaseDir(o.baseDir), DefaultAppFolder, QueriesFolder)
}

// getBaseDir is a helper function to handle the case where the baseDir function returns an error, and instead return an empty string.
func getBaseDir(baseDirFunc func() (string, error)) string {
	dir, err := baseDirFunc()
	if err != nil {
		return ""
	}
	return dir
}
