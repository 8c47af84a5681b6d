package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fedspend/fedspend/internal/constants"
	"github.com/fedspend/fedspend/internal/exporter"
	"github.com/fedspend/fedspend/internal/queries"
	"github.com/fedspend/fedspend/internal/spending"
	"github.com/spf13/cobra"
)

// searchConfig holds the settings of the search command.
type searchConfig struct {
	FiltersFile string `mapstructure:"filters-file"`
	Fields      []string
	Limit       uint
	Page        uint
	Pages       uint
	Sort        string
	Order       string
	JSONFile    string `mapstructure:"json"`
	CSVFile     string `mapstructure:"csv"`
	DryRun      bool   `mapstructure:"dry-run"`

	query string
}

func installSearchCmd(app *App) {
	searchCmd := &cobra.Command{
		Use:   "search [query](optional argument)",
		Short: "Search spending by award and export the results",
		Long: `Search the spending-by-award endpoint and export the results.

The search sends one filter payload and exports the returned page of award
records twice: the full API response as JSON, and the records flattened as
CSV. Naming a saved query uses its filters and settings as the baseline;
explicit flags take precedence over the query's values.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if o := app.config.Search.Order; o != "" && o != "asc" && o != "desc" {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("order must be either asc or desc, or not set: %s", o)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				app.config.Search.query = args[0]
			}

			slog.Debug("Running search command")
			return app.searchRun(cmd)
		},
	}

	searchCmd.Flags().StringVar(&app.config.Search.FiltersFile, "filters-file", "", "path of a JSON file with the filter object to send verbatim")
	searchCmd.Flags().StringArrayVar(&app.config.Search.Fields, "field", nil, "field to request, in order (repeatable)")
	searchCmd.Flags().UintVar(&app.config.Search.Limit, "limit", 0, fmt.Sprintf("records per page, up to %d (default %d)", constants.MaxLimit, constants.DefaultLimit))
	searchCmd.Flags().UintVar(&app.config.Search.Page, "page", 0, "page number to fetch (default 1)")
	searchCmd.Flags().UintVar(&app.config.Search.Pages, "pages", 0, "number of consecutive pages to fetch and combine (default 1)")
	searchCmd.Flags().StringVar(&app.config.Search.Sort, "sort", "", fmt.Sprintf("field to sort results by (default %q)", constants.DefaultSort))
	searchCmd.Flags().StringVar(&app.config.Search.Order, "order", "", fmt.Sprintf("sort direction, asc or desc (default %q)", constants.DefaultOrder))
	searchCmd.Flags().StringVar(&app.config.Search.JSONFile, "json", constants.DefaultJSONFile, "path of the JSON export")
	searchCmd.Flags().StringVar(&app.config.Search.CSVFile, "csv", constants.DefaultCSVFile, "path of the CSV export")
	searchCmd.Flags().BoolVarP(&app.config.Search.DryRun, "dry-run", "d", false, "fetch and summarize the results, but do not write any file")

	app.cmd.AddCommand(searchCmd)
}

// searchRun runs the search command.
func (a App) searchRun(cmd *cobra.Command) error {
	l := slog.Default()

	req, pages, err := a.buildRequest(cmd, l)
	if err != nil {
		return err
	}

	client := spending.New(l, spending.WithBaseURL(a.config.ServerURL))
	page, err := client.SearchPages(cmd.Context(), req, pages)
	if err != nil {
		return err
	}

	if !a.config.Quiet {
		fmt.Print(exporter.Summary(page))
	}

	e := exporter.New(l, exporter.WithDryRun(a.config.Search.DryRun))
	if err := e.WriteJSON(page, a.config.Search.JSONFile); err != nil {
		return err
	}
	return e.WriteCSV(page, a.config.Search.CSVFile)
}

// buildRequest assembles the search request from the saved query, if one was
// named, and the explicit flags. Flags take precedence over the query's values.
func (a App) buildRequest(cmd *cobra.Command, l *slog.Logger) (spending.SearchRequest, uint, error) {
	var req spending.SearchRequest
	var pages uint
	sc := a.config.Search

	if sc.query != "" {
		q, err := queries.New(l, a.config.QueriesDir).Get(sc.query)
		if err != nil {
			if errors.Is(err, queries.ErrNotFound) || errors.Is(err, queries.ErrInvalidName) {
				a.cmd.SilenceUsage = false
			}
			return spending.SearchRequest{}, 0, err
		}

		req, err = q.SearchRequest()
		if err != nil {
			return spending.SearchRequest{}, 0, fmt.Errorf("could not use query %s: %v", sc.query, err)
		}
		pages = q.Pages
	}

	if sc.FiltersFile != "" {
		raw, err := os.ReadFile(sc.FiltersFile)
		if err != nil {
			return spending.SearchRequest{}, 0, fmt.Errorf("could not read filters file: %v", err)
		}
		f, err := spending.RawFilters(raw)
		if err != nil {
			return spending.SearchRequest{}, 0, fmt.Errorf("invalid filters file %s: %v", sc.FiltersFile, err)
		}
		req.Filters = f
	}

	flags := cmd.Flags()
	if len(sc.Fields) > 0 && (flags.Changed("field") || req.Fields == nil) {
		req.Fields = sc.Fields
	}
	if sc.Limit > 0 && (flags.Changed("limit") || req.Limit == 0) {
		req.Limit = sc.Limit
	}
	if sc.Page > 0 && (flags.Changed("page") || req.Page == 0) {
		req.Page = sc.Page
	}
	if sc.Sort != "" && (flags.Changed("sort") || req.Sort == "") {
		req.Sort = sc.Sort
	}
	if sc.Order != "" && (flags.Changed("order") || req.Order == "") {
		req.Order = sc.Order
	}
	if sc.Pages > 0 && (flags.Changed("pages") || pages == 0) {
		pages = sc.Pages
	}

	return req, pages, nil
}
