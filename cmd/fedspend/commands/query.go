package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/fedspend/fedspend/internal/fileutils"
	"github.com/fedspend/fedspend/internal/queries"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// queryConfig holds the settings of the query command.
type queryConfig struct {
	Save        bool
	Description string
	FiltersFile string `mapstructure:"filters-file"`
	Fields      []string
	Limit       uint
	Pages       uint
	Sort        string
	Order       string

	names []string
}

func installQueryCmd(app *App) {
	queryCmd := &cobra.Command{
		Use:   "query [names](optional arguments)",
		Short: "List, show or save search queries",
		Long: `List, show or save reusable search queries.

Without arguments, lists the available queries: the built-in ones plus the
files in the queries directory. With names, prints each named query's
definition. With --save and exactly one name, saves a query assembled from
the definition flags.`,
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if app.config.Query.Save && len(args) != 1 {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("saving requires exactly one query name, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.Query.names = args

			slog.Debug("Running query command")
			if app.config.Query.Save {
				return app.querySaveRun()
			}
			return app.queryShowRun()
		},
	}

	queryCmd.Flags().BoolVar(&app.config.Query.Save, "save", false, "save a query definition under the given name")
	queryCmd.Flags().StringVar(&app.config.Query.Description, "description", "", "description of the query to save")
	queryCmd.Flags().StringVar(&app.config.Query.FiltersFile, "filters-file", "", "path of a JSON file with the filter object of the query to save")
	queryCmd.Flags().StringArrayVar(&app.config.Query.Fields, "field", nil, "field of the query to save, in order (repeatable)")
	queryCmd.Flags().UintVar(&app.config.Query.Limit, "limit", 0, "records per page of the query to save")
	queryCmd.Flags().UintVar(&app.config.Query.Pages, "pages", 0, "number of pages of the query to save")
	queryCmd.Flags().StringVar(&app.config.Query.Sort, "sort", "", "sort field of the query to save")
	queryCmd.Flags().StringVar(&app.config.Query.Order, "order", "", "sort direction of the query to save")

	app.cmd.AddCommand(queryCmd)
}

// queryShowRun lists every available query, or prints the definitions of the
// requested ones.
func (a App) queryShowRun() error {
	m := queries.New(slog.Default(), a.config.QueriesDir)

	if len(a.config.Query.names) == 0 {
		all, err := m.All()
		if err != nil {
			return err
		}

		w := table.NewWriter()
		w.SetOutputMirror(os.Stdout)
		w.SetStyle(table.StyleRounded)
		w.AppendHeader(table.Row{"Name", "Description"})
		for _, name := range slices.Sorted(maps.Keys(all)) {
			w.AppendRow(table.Row{name, all[name].Description})
		}
		w.Render()
		return nil
	}

	for i, name := range a.config.Query.names {
		q, err := m.Get(name)
		if err != nil {
			if errors.Is(err, queries.ErrNotFound) || errors.Is(err, queries.ErrInvalidName) {
				a.cmd.SilenceUsage = false
			}
			return err
		}

		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("# %s\n", name)
		if err := toml.NewEncoder(os.Stdout).Encode(q); err != nil {
			return fmt.Errorf("could not render query %s: %v", name, err)
		}
	}
	return nil
}

// querySaveRun saves the query assembled from the definition flags.
func (a App) querySaveRun() error {
	qc := a.config.Query

	q := queries.Query{
		Description: qc.Description,
		Fields:      qc.Fields,
		Limit:       qc.Limit,
		Pages:       qc.Pages,
		Sort:        qc.Sort,
		Order:       qc.Order,
	}
	if qc.FiltersFile != "" {
		var filters map[string]any
		if err := fileutils.ParseJSONFile(qc.FiltersFile, &filters); err != nil {
			return fmt.Errorf("invalid filters file %s: %v", qc.FiltersFile, err)
		}
		q.Filters = filters
	}

	name := qc.names[0]
	if err := queries.New(slog.Default(), a.config.QueriesDir).Set(name, q); err != nil {
		if errors.Is(err, queries.ErrInvalidName) {
			a.cmd.SilenceUsage = false
		}
		return err
	}

	if !a.config.Quiet {
		fmt.Printf("Saved query %s\n", name)
	}
	return nil
}
