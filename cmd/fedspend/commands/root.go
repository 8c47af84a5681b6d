// Package commands contains the commands of the fedspend command line tool.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/fedspend/fedspend/internal/cli"
	"github.com/fedspend/fedspend/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity  int
	Quiet      bool
	ServerURL  string `mapstructure:"server-url"`
	QueriesDir string `mapstructure:"queries-dir"`

	Search searchConfig
	Query  queryConfig
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName + " [COMMAND]",
		Short: "Search federal award spending from USAspending.gov",
		Long: constants.CmdName + ` searches the USAspending.gov spending-by-award API and exports
the returned award records as a full JSON response and a flattened CSV file.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			// The executing command carries the merged persistent flags, including config.
			if err := cli.InitViperConfig(constants.CmdName, cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Info("got app config", "config", a.config)

			cli.SetVerbosity(a.config.Verbosity)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	installSearchCmd(&a)
	installQueryCmd(&a)
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVarP(&app.config.Quiet, "quiet", "q", false, "suppress the console summary, printing only warnings and errors")
	cmd.PersistentFlags().StringVar(&app.config.ServerURL, "server-url", constants.DefaultServerURL, "base URL of the USAspending API")
	cmd.PersistentFlags().StringVar(&app.config.QueriesDir, "queries-dir", constants.GetDefaultQueriesDir(), "directory where saved queries are stored")

	err := cmd.MarkPersistentFlagDirname("queries-dir")
	if err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark queries-dir flag as dirname: %v", err))
	}
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}
