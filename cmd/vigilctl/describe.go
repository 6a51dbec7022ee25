package main

import (
	"fmt"

	"github.com/spf13/cobra"

	app "github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/pkg/logger"
)

func describeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <stat|ml|action> <code>",
		Short: "Print the localized description of a code",
		Long: `Look up a classification code or action in the description catalog.

Examples:
  vigilctl describe stat cons_good_sym
  vigilctl describe ml weak_consistent_rel_reliable --locale pt-BR`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := locale.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			engineOpts, err := app.EngineOptions(cfg)
			if err != nil {
				return err
			}
			svc := app.New(app.WithEngineOptions(engineOpts...), app.WithLogger(logger.Get().Named("vigilctl")))
			text, err := svc.Describe(kind, args[1], cfg.Locale)
			if err != nil {
				return err
			}
			if text == locale.NotFound {
				return fmt.Errorf("%s %q: %s", kind, args[1], text)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}
