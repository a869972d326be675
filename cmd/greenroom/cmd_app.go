package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/compose"
	"github.com/greenroom-dev/greenroom/usecase/app"
)

func newCmdApp() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "app",
		Short:              "Manage deployed applications",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE:               func(cmd *cobra.Command, args []string) error { return fmt.Errorf("invalid command") },
	}
	cmd.AddCommand(
		newCmdAppDeploy(),
		newCmdAppStop(),
		newCmdAppStatus(),
		newCmdAppLogs(),
		newCmdAppList(),
	)
	return cmd
}

// readComposeFile reads the compose file named by path; "-" reads stdin.
func readComposeFile(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newCmdAppDeploy() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "deploy <app-name>",
		Short:              "Deploy an application from a compose file",
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			file, _ := cmd.Flags().GetString("file")
			id, _ := cmd.Flags().GetString("id")

			uc, _, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "app.deploy", args[0])
			defer func() { cleanup(err) }()

			content, err := readComposeFile(cmd, file)
			if err != nil {
				return err
			}
			configs, warnings, err := compose.ServiceConfigs(ctx, content)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "WARN %s\n", w)
			}

			out, err := uc.Deploy(ctx, &app.DeployInput{AppName: args[0], Configs: configs, DeploymentID: id})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Deployment *model.Deployment `json:"deployment"`
				Services   []model.Service   `json:"services,omitempty"`
			}{out.Deployment, out.Services})
		},
	}
	cmd.Flags().StringP("file", "f", "compose.yml", "Compose file to deploy (- for stdin)")
	cmd.Flags().String("id", "", "Correlation ID of the operation (generated when empty)")
	return cmd
}

func newCmdAppStop() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "stop <app-name>",
		Short:              "Stop an application and remove its services",
		Args:               cobra.ExactArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, _ := cmd.Flags().GetString("id")

			uc, _, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "app.stop", args[0])
			defer func() { cleanup(err) }()

			out, err := uc.Stop(ctx, &app.StopInput{AppName: args[0], DeploymentID: id})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Deployment *model.Deployment `json:"deployment"`
				Services   []model.Service   `json:"services,omitempty"`
			}{out.Deployment, out.Services})
		},
	}
	cmd.Flags().String("id", "", "Correlation ID of the operation (generated when empty)")
	return cmd
}

func newCmdAppStatus() *cobra.Command {
	return &cobra.Command{
		Use:                "status <app-name> <deployment-id>",
		Short:              "Show the journal row and live state of one operation",
		Args:               cobra.ExactArgs(2),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			out, err := uc.Status(ctx, &app.StatusInput{AppName: args[0], DeploymentID: args[1]})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Deployment *model.Deployment `json:"deployment"`
				Services   []model.Service   `json:"services,omitempty"`
			}{out.Deployment, out.Services})
		},
	}
}

func newCmdAppLogs() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "logs <app-name> <service-name>",
		Short:              "Print recent log lines of one service",
		Args:               cobra.ExactArgs(2),
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceRaw, _ := cmd.Flags().GetString("since")
			limit, _ := cmd.Flags().GetInt("limit")

			uc, _, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			in := &app.LogsInput{AppName: args[0], ServiceName: args[1], Limit: limit}
			if sinceRaw != "" {
				since, err := time.Parse(time.RFC3339, sinceRaw)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
				in.Since = &since
			}
			out, err := uc.Logs(ctx, in)
			if err != nil {
				return err
			}
			if out.Lines == nil {
				return fmt.Errorf("no logs available for %s/%s", args[0], args[1])
			}
			for _, line := range out.Lines {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", line.Timestamp.Format(time.RFC3339), line.Message)
			}
			return nil
		},
	}
	cmd.Flags().String("since", "", "Only lines after this RFC3339 instant")
	cmd.Flags().Int("limit", 0, "Maximum number of lines (default 500)")
	return cmd
}

func newCmdAppList() *cobra.Command {
	return &cobra.Command{
		Use:                "list",
		Short:              "List deployed applications",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, _, err := buildAppUseCase(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			out, err := uc.List(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(out.Apps))
			for name := range out.Apps {
				names = append(names, name)
			}
			sort.Strings(names)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, name := range names {
				if err := enc.Encode(struct {
					Name     string                `json:"name"`
					Services []model.ServiceConfig `json:"services"`
				}{name, out.Apps[name]}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
