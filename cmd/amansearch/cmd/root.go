// Package cmd provides the CLI commands for amansearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amansearch/internal/logging"
	"github.com/Aman-CERP/amansearch/internal/metrics"
	"github.com/Aman-CERP/amansearch/internal/profiling"
	"github.com/Aman-CERP/amansearch/pkg/version"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	appDir     string
	debug      bool
	metricsOut string
	profile    profiling.Options
}

// NewRootCmd creates the root command for the amansearch CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var loggingCleanup func()
	var profiler *profiling.Session

	cmd := &cobra.Command{
		Use:   "amansearch",
		Short: "Named full-text indexes and searchers over bleve",
		Long: `amansearch manages named full-text indexes and the searchers over them.

Indexes and multi-index searchers are declared in .amansearch.yaml (or the
user config). Documents are written with 'amansearch index' and queried with
'amansearch search'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("amansearch version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: user config + project .amansearch.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.appDir, "dir", "C", ".", "Application directory to search upwards from")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging to ~/.amansearch/logs/")
	cmd.PersistentFlags().StringVar(&flags.metricsOut, "metrics-out", "", "Write Prometheus metrics to this file on exit")
	cmd.PersistentFlags().StringVar(&flags.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&flags.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&flags.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		metrics.Register()
		if flags.profile.Enabled() {
			p, err := profiling.Start(flags.profile)
			if err != nil {
				return err
			}
			profiler = p
		}
		if !flags.debug {
			return nil
		}
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Debug("debug_logging_enabled", slog.String("log_file", logging.DefaultLogPath()))
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				return fmt.Errorf("failed to write profiles: %w", err)
			}
			profiler = nil
		}
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
		if flags.metricsOut != "" {
			if err := metrics.WriteTextfile(flags.metricsOut); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}
		return nil
	}

	cmd.AddCommand(newIndexCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newFieldsCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
