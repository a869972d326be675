package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenroom-dev/greenroom/adapters/kube"
	"github.com/greenroom-dev/greenroom/config/greenroomcfg"
)

func newCmdIngress() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "ingress",
		Short:              "Manage the Traefik ingress controller of a Kubernetes backend",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE:               func(cmd *cobra.Command, args []string) error { return fmt.Errorf("invalid command") },
	}
	cmd.AddCommand(newCmdIngressInstall(), newCmdIngressUninstall())
	return cmd
}

// ingressClient builds a kube client from the configured kubernetes backend.
func ingressClient(cmd *cobra.Command) (*kube.Client, *greenroomcfg.Root, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Backend.Kind != "kubernetes" {
		return nil, nil, fmt.Errorf("ingress commands require backend kind kubernetes, got %q", cfg.Backend.Kind)
	}
	cli, err := kube.NewClientFromKubeconfigPath(cmd.Context(), cfg.Backend.Settings["kubeconfig"], nil)
	if err != nil {
		return nil, nil, err
	}
	return cli, cfg, nil
}

func ingressOptionsFromFlags(cmd *cobra.Command) *kube.IngressOptions {
	namespace, _ := cmd.Flags().GetString("namespace")
	serviceAccount, _ := cmd.Flags().GetString("service-account")
	certEmail, _ := cmd.Flags().GetString("cert-email")
	return &kube.IngressOptions{
		Namespace:      namespace,
		ServiceAccount: serviceAccount,
		CertEmail:      certEmail,
	}
}

func addIngressFlags(cmd *cobra.Command) {
	cmd.Flags().String("namespace", kube.DefaultIngressNamespace, "Namespace hosting the ingress controller")
	cmd.Flags().String("service-account", kube.DefaultIngressServiceAccount, "ServiceAccount of the ingress controller")
	cmd.Flags().String("cert-email", "", "ACME registration address for certificate resolvers")
}

func newCmdIngressInstall() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "install",
		Short:              "Install or upgrade the Traefik release",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cli, _, err := ingressClient(cmd)
			if err != nil {
				return err
			}
			opts := ingressOptionsFromFlags(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "ingress.install", opts.Namespace)
			defer func() { cleanup(err) }()
			if err := cli.InstallIngressTraefik(ctx, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingress %s installed in namespace %s\n", kube.TraefikReleaseName, opts.Namespace)
			ip, fqdn, err := cli.IngressEndpoint(ctx, opts.Namespace, kube.TraefikReleaseName)
			if err != nil {
				return err
			}
			if ip != "" || fqdn != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "ingress endpoint ip=%s fqdn=%s\n", ip, fqdn)
			}
			return nil
		},
	}
	addIngressFlags(cmd)
	return cmd
}

func newCmdIngressUninstall() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "uninstall",
		Short:              "Uninstall the Traefik release",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cli, _, err := ingressClient(cmd)
			if err != nil {
				return err
			}
			opts := ingressOptionsFromFlags(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			ctx, cleanup := withCmdRunLogger(ctx, "ingress.uninstall", opts.Namespace)
			defer func() { cleanup(err) }()
			if err := cli.UninstallIngressTraefik(ctx, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingress %s uninstalled from namespace %s\n", kube.TraefikReleaseName, opts.Namespace)
			return nil
		},
	}
	addIngressFlags(cmd)
	return cmd
}
