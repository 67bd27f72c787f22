package main

import (
	"fanbase-service/internal/app"
	"fanbase-service/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime is loaded once per invocation by the root command.
type runtime struct {
	cfg    *config.AppConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "fanbasectl",
		Short:         "Operational tooling for the fanbase service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger.With(zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newMigrateCmd(rt),
		newSweepCmd(rt),
		newWorkerCmd(rt),
		newIssueTokenCmd(rt),
	)
	return root
}
