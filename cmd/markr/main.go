package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mind-engage/markr/internal/config"
)

type rootOptions struct {
	configPath string
	logLevel   string
	dbDriver   string
	dbDSN      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("markr failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:           "markr",
		Short:         "Ingest and report OMR test results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.dbDriver, "db-driver", "", "database driver override (sqlite|postgres|memory)")
	cmd.PersistentFlags().StringVar(&opts.dbDSN, "db-dsn", "", "database DSN override")

	cmd.AddCommand(newServeCmd(&opts), newImportCmd(&opts), newResultsCmd(&opts))
	return cmd
}

// load reads config and applies command-line overrides.
func (o *rootOptions) load() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.dbDriver != "" {
		cfg.DBDriver = o.dbDriver
	}
	if o.dbDSN != "" {
		cfg.DBDSN = o.dbDSN
	}
	log, err := newLogger(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}
