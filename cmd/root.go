package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/app"
	"github.com/kilianp07/ridedispatch/config"
	"github.com/kilianp07/ridedispatch/console"
	corelogger "github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/infra/logger"
)

type rootOptions struct {
	cfgPath string
	verbose bool
}

// NewRootCmd builds the ridedispatch command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ridedispatch",
		Short:         "Nearest available vehicle ride dispatch",
		Long:          "Reads a fleet and ride requests from standard input and assigns each request to the nearest available vehicle.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "write dispatch logs to stderr")
	root.AddCommand(newSimulateCmd(opts), newServeCmd(opts), newTripsCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a zerolog logger at the configured level writing to
// stderr. When quiet is set and --verbose was not given it returns a
// NopLogger.
func newLogger(cmd *cobra.Command, cfg *config.Config, opts *rootOptions, quiet bool) (logger.Logger, error) {
	if quiet && !opts.verbose {
		return corelogger.NopLogger{}, nil
	}
	lvl, err := corelogger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		lvl = corelogger.LevelDebug
	}
	return logger.NewZerologLogger("ridedispatch", logger.Options{Out: cmd.ErrOrStderr(), Level: lvl}), nil
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg, opts, true)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg, app.Options{Logger: log})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	session := console.NewSession(cmd.InOrStdin(), cmd.OutOrStdout(), svc.Dispatcher, log)
	return session.Run(cmd.Context())
}
