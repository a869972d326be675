package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/greenroom-dev/greenroom/adapters/drivers/backend/docker"
	_ "github.com/greenroom-dev/greenroom/adapters/drivers/backend/kubernetes"
	"github.com/greenroom-dev/greenroom/config/greenroomcfg"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "greenroom",
		Short:   "Greenroom preview deployment engine",
		Long:    "Greenroom deploys sets of interdependent services as disposable preview environments onto container orchestration backends.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help by default when no subcommand is provided.
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", greenroomcfg.DefaultPath(), "Configuration file (env GREENROOM_CONFIG)")
	cmd.PersistentFlags().String("log-format", "human", "Log format (human|text|json) (env GREENROOM_LOG_FORMAT)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		format, _ := c.Flags().GetString("log-format")
		if env := os.Getenv(greenroomcfg.EnvLogFormat); env != "" { // env overrides flag
			format = env
		}
		levelName, _ := c.Flags().GetString("log-level")
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		l, err := logging.New(format, level)
		if err != nil {
			return err
		}
		c.SetContext(logging.WithLogger(c.Context(), l))
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdConfig())
	cmd.AddCommand(newCmdServe())
	cmd.AddCommand(newCmdApp())
	cmd.AddCommand(newCmdIngress())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
}
