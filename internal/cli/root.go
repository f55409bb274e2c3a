// Package cli implements the invoicer command line.
//
// Commands are package-level cobra commands registered in init. The
// configuration is read from the environment on first use and the store is
// opened lazily, so commands that only read a file never touch it.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/invoicer/internal/app"
	"github.com/JonMunkholm/invoicer/internal/config"
	"github.com/JonMunkholm/invoicer/internal/core"
	"github.com/JonMunkholm/invoicer/internal/logging"
)

// verbose enables debug logging.
var verbose bool

var (
	// cfg is loaded from the environment unless already set.
	cfg *config.Config
	// application is opened by openApp and closed by closeApp.
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "invoicer",
	Short: "Turn session spreadsheets into invoices",
	Long: `invoicer reads CSV or XLSX session exports, totals the selected columns
and produces PDF invoices. Saved invoices live in the configured store.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if cerr := closeApp(); cerr != nil {
		slog.Warn("closing store", "error", cerr)
	}
	if err != nil {
		rootCmd.PrintErrln("Error:", describeError(err))
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, _ []string) error {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, cfg.Logging.Format))
	return nil
}

// openApp opens the configured store on first use.
func openApp(cmd *cobra.Command) (*app.App, error) {
	if application != nil {
		return application, nil
	}
	a, err := app.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	application = a
	return a, nil
}

func closeApp() error {
	if application == nil {
		return nil
	}
	err := application.Close()
	application = nil
	return err
}

// describeError prefers the user-facing message when one is known.
func describeError(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%s\n  %v", core.FormatUserError(err), err)
	}
	return err.Error()
}
