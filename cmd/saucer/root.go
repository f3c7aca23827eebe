package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"saucer/pkg/config"
	"saucer/pkg/observability"
)

// app carries what PersistentPreRunE prepared to the subcommands.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

func (a *app) logger() *zap.Logger {
	return observability.GetLogger()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:           "saucer",
		Short:         "Resolve CSS cascades and lay out tables for HTML documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Prepare(a.v, a.cfgFile); err != nil {
				return err
			}
			cfg, err := config.FromViper(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			observability.InitializeLogger(cfg.Logger)
			a.logger().Debug("Configuration loaded",
				zap.String("command", cmd.Name()),
				zap.String("medium", cfg.Engine.Medium),
				zap.Int("viewport_width", cfg.Engine.ViewportWidth))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./saucer.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Int("width", 0, "viewport width in pixels")
	// unchanged flags leave the config and defaults alone
	if err := a.v.BindPFlag("logger.level", flags.Lookup("log-level")); err != nil {
		panic(err)
	}
	if err := a.v.BindPFlag("engine.viewport_width", flags.Lookup("width")); err != nil {
		panic(err)
	}

	root.AddCommand(newStylesCmd(a), newTablesCmd(a), newPageCmd(a))
	return root
}
