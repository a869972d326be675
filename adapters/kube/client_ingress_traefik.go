package kube

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"
	"sigs.k8s.io/yaml"

	"github.com/greenroom-dev/greenroom/internal/logging"
)

// traefikChartRepo is the chart repository the ingress controller installs from.
const traefikChartRepo = "https://helm.traefik.io/traefik"

const helmTimeout = 5 * time.Minute

// HelmValues is a chart values tree in the shape the Helm SDK consumes.
type HelmValues map[string]any

// HelmValuesMutator adjusts the values for a release before it runs.
type HelmValuesMutator func(ctx context.Context, release string, values HelmValues)

// helmAction builds a Helm action configuration bound to this client's
// kubeconfig. The returned cleanup removes the temporary kubeconfig file
// handed to the Helm SDK.
func (c *Client) helmAction(ctx context.Context, namespace string) (*cli.EnvSettings, *action.Configuration, func(), error) {
	if c == nil || c.RESTConfig == nil {
		return nil, nil, nil, fmt.Errorf("kube client is not initialized")
	}
	kubeBytes := c.Kubeconfig()
	if len(kubeBytes) == 0 {
		return nil, nil, nil, fmt.Errorf("kubeconfig is required for helm operations")
	}
	kubeconfigPath, cleanup, err := writeTempFile("greenroom-kubeconfig-*", kubeBytes)
	if err != nil {
		return nil, nil, nil, err
	}
	settings := cli.New()
	settings.KubeConfig = kubeconfigPath

	log := logging.FromContext(ctx)
	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), namespace, "secret", func(format string, v ...any) {
		log.Debugf(ctx, "helm: "+format, v...)
	}); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("init helm configuration: %w", err)
	}
	return settings, cfg, cleanup, nil
}

// traefikValues assembles the chart values for one install: LoadBalancer
// service, persistent ACME storage, access logs, the CRD provider across
// namespaces, and the staging and production certificate resolvers.
func traefikValues(opts *IngressOptions) HelmValues {
	email := opts.CertEmail
	if email == "" {
		// Operators should configure a real registration address.
		email = "noreply@example.com"
	}
	resolver := func(name, caServer string) []string {
		return []string{
			fmt.Sprintf("--certificatesresolvers.%s.acme.tlschallenge=true", name),
			fmt.Sprintf("--certificatesresolvers.%s.acme.caserver=%s", name, caServer),
			fmt.Sprintf("--certificatesresolvers.%s.acme.email=%s", name, email),
			fmt.Sprintf("--certificatesresolvers.%s.acme.storage=/data/acme-%s.json", name, name),
		}
	}
	args := resolver("production", "https://acme-v02.api.letsencrypt.org/directory")
	args = append(args, resolver("staging", "https://acme-staging-v02.api.letsencrypt.org/directory")...)

	return HelmValues{
		"service": map[string]any{"type": "LoadBalancer"},
		// Recreate avoids deadlocking on the single ACME volume.
		"updateStrategy": map[string]any{"type": "Recreate"},
		// The ServiceAccount is pre-created; Helm must not add another.
		"serviceAccount": map[string]any{"name": opts.ServiceAccount},
		"persistence": map[string]any{
			"enabled":    true,
			"accessMode": "ReadWriteOnce",
			"size":       "1Gi",
			"path":       "/data",
		},
		"logs": map[string]any{"access": map[string]any{"enabled": true}},
		// The Traefik user (65532) must be able to write the ACME volume.
		"podSecurityContext": map[string]any{
			"fsGroup":             65532,
			"fsGroupChangePolicy": "OnRootMismatch",
		},
		// Application IngressRoutes live in their own namespaces.
		"providers": map[string]any{
			"kubernetesCRD": map[string]any{
				"enabled":             true,
				"allowCrossNamespace": true,
			},
		},
		"additionalArguments": args,
	}
}

// InstallIngressTraefik installs or upgrades the Traefik ingress controller
// in the ingress namespace. Mutators may adjust the chart values before the
// release runs.
func (c *Client) InstallIngressTraefik(ctx context.Context, opts *IngressOptions, mutators ...HelmValuesMutator) error {
	if opts == nil {
		opts = &IngressOptions{}
	}
	opts.defaults()
	ns := opts.Namespace

	settings, cfg, cleanup, err := c.helmAction(ctx, ns)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.CreateNamespace(ctx, ns); err != nil {
		return err
	}
	if err := c.CreateServiceAccount(ctx, ns, opts.ServiceAccount, opts.ServiceAccountAnnotations); err != nil {
		return err
	}

	cpo := action.ChartPathOptions{RepoURL: traefikChartRepo}
	chartPath, err := cpo.LocateChart(TraefikReleaseName, settings)
	if err != nil {
		return fmt.Errorf("locate traefik chart: %w", err)
	}
	ch, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("load traefik chart: %w", err)
	}

	values := traefikValues(opts)
	for _, m := range mutators {
		if m != nil {
			m(ctx, TraefikReleaseName, values)
		}
	}
	if b, err := yaml.Marshal(values); err == nil {
		logging.FromContext(ctx).Debugf(ctx, "traefik helm values:\n%s", string(b))
	}

	up := action.NewUpgrade(cfg)
	up.Namespace = ns
	up.Atomic = true
	up.Wait = true
	up.Timeout = helmTimeout
	_, err = up.Run(TraefikReleaseName, ch, values)
	if err == nil {
		return nil
	}
	if !stdErrors.Is(err, helmdriver.ErrNoDeployedReleases) {
		return fmt.Errorf("helm upgrade traefik: %w", err)
	}

	// First release in this namespace.
	in := action.NewInstall(cfg)
	in.Namespace = ns
	in.ReleaseName = TraefikReleaseName
	in.Atomic = true
	in.Wait = true
	in.Timeout = helmTimeout
	if _, err := in.Run(ch, values); err != nil {
		return fmt.Errorf("helm install traefik: %w", err)
	}
	return nil
}

// UninstallIngressTraefik removes the Traefik release. Removing an absent
// release is not an error.
func (c *Client) UninstallIngressTraefik(ctx context.Context, opts *IngressOptions) error {
	if opts == nil {
		opts = &IngressOptions{}
	}
	opts.defaults()

	_, cfg, cleanup, err := c.helmAction(ctx, opts.Namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := action.NewUninstall(cfg).Run(TraefikReleaseName); err != nil && !stdErrors.Is(err, helmdriver.ErrReleaseNotFound) {
		return fmt.Errorf("helm uninstall traefik: %w", err)
	}
	return nil
}
