package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/stmtcheck/internal/buildinfo"
	"github.com/cleared-dev/stmtcheck/internal/config"
	"github.com/cleared-dev/stmtcheck/internal/logging"
)

// ErrInvalid is returned when a statement or a reconciliation does not pass,
// so the process exits non-zero.
var ErrInvalid = errors.New("statement did not pass validation")

type globalOptions struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "stmtcheck",
		Short:   "Validate business bank statements and reconcile their balances",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(newAnalyzeCommand(opts))
	rootCmd.AddCommand(newReconcileCommand(opts))
	rootCmd.AddCommand(newMetadataCommand(opts))
	rootCmd.AddCommand(newInitCommand())

	return rootCmd
}

// setup resolves the configuration and builds the logger for a command.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Resolve(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, _, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.Log.Level,
		Verbose: o.verbose,
		JSON:    cfg.Log.Format == "json",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
