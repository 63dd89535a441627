package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"webwork-assist/internal/components/telemetry"
	"webwork-assist/internal/config"
	"webwork-assist/internal/manager"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// mgr is set up before any subcommand runs
	mgr *manager.Manager
)

var rootCmd = &cobra.Command{
	Use:           "webwork-cli",
	Short:         "webwork-cli reads homework sets, problems and grades from WeBWorK.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		telemetry.InitSlog(os.Stderr, level)

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		mgr, err = manager.New(cfg, telemetry.SlogAPI{})
		if err != nil {
			return fmt.Errorf("init manager: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".env", "A .env file or a json5 config file with the class credentials.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(cmd.OutOrStdout())
	return t
}
