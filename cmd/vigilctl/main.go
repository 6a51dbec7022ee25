// Command vigilctl classifies CSV files offline and talks to a running
// vigil server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/pkg/logger"
)

// globalOptions are shared by every subcommand.
type globalOptions struct {
	logLevel  string
	logFormat string
	locale    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:          "vigilctl",
		Short:        "Classify CSV rows and inspect vigil catalogs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(g.logFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(g.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", logger.FormatText, "Log format (text|json)")
	root.PersistentFlags().StringVar(&g.locale, "locale", "", "Description locale (default from config)")

	root.AddCommand(runCmd(g), describeCmd(g), combineCmd(), submitCmd())
	return root
}

// loadConfig loads the layered configuration and applies global flags.
func loadConfig(cmd *cobra.Command, g *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if g.locale != "" {
		cfg.Locale = g.locale
	}
	return cfg, cfg.Validate()
}
