// Package compose turns docker-compose files into deployment descriptors.
// Only the subset of the compose format expressible as a descriptor is
// accepted; everything else is reported as a load-time warning.
package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// Labels recognized on compose services to override descriptor fields.
const (
	// LabelContainerType overrides the container role, e.g. "replica".
	LabelContainerType = "dev.greenroom.container-type"
	// LabelDeploymentStrategy overrides the redeploy strategy kind.
	LabelDeploymentStrategy = "dev.greenroom.deployment-strategy"
	// LabelReplicateEnv lists environment variable names, comma separated,
	// to mark for replication.
	LabelReplicateEnv = "dev.greenroom.replicate-env"
)

// NewProject parses compose file content into a compose-go project.
func NewProject(ctx context.Context, content string) (*types.Project, error) {
	logger := logging.FromContext(ctx)

	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &dict); err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}
	if dict == nil {
		return nil, fmt.Errorf("%w: compose file is empty", model.ErrConfigInvalid)
	}
	if _, ok := dict["version"]; ok {
		logger.Warn(ctx, "compose: `version` is obsolete")
	}

	proj, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		WorkingDir: ".",
		ConfigFiles: []types.ConfigFile{
			{Filename: "app.compose", Content: []byte(content), Config: dict},
		},
		Environment: map[string]string{},
	}, func(o *loader.Options) {
		o.SetProjectName("greenroom-compose", false)
		o.SkipNormalization = true
		o.SkipExtends = true
		// Image presence is checked against the descriptor model, not the
		// compose consistency rules.
		o.SkipConsistencyCheck = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load compose file: %w", err)
	}
	return proj, nil
}

// ServiceConfigs converts compose file content into deployment descriptors,
// one per compose service in name order. Compose features the descriptor
// cannot express are returned as warnings; malformed override labels are
// errors.
func ServiceConfigs(ctx context.Context, content string) ([]model.ServiceConfig, []string, error) {
	proj, err := NewProject(ctx, content)
	if err != nil {
		return nil, nil, err
	}

	var configs []model.ServiceConfig
	var warnings []string
	for _, name := range proj.ServiceNames() {
		svc := proj.Services[name]
		cfg, w, err := serviceConfig(svc)
		if err != nil {
			return nil, nil, fmt.Errorf("service %s: %w", name, err)
		}
		warnings = append(warnings, w...)
		configs = append(configs, cfg)
	}
	return configs, warnings, nil
}

func serviceConfig(svc types.ServiceConfig) (model.ServiceConfig, []string, error) {
	cfg := model.ServiceConfig{
		ServiceName: svc.Name,
		Image:       svc.Image,
	}
	if cfg.Image == "" {
		return cfg, nil, fmt.Errorf("%w: image is required", model.ErrConfigInvalid)
	}
	warnings := unsupportedFeatures(svc)

	replicate := map[string]bool{}
	if v, ok := svc.Labels[LabelReplicateEnv]; ok {
		for _, key := range splitList(v) {
			replicate[key] = true
		}
	}
	keys := make([]string, 0, len(svc.Environment))
	for k := range svc.Environment {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := svc.Environment[k]
		if v == nil {
			warnings = append(warnings, fmt.Sprintf("%s: environment variable %s has no value and is dropped", svc.Name, k))
			continue
		}
		cfg.Env = append(cfg.Env, model.EnvironmentVariable{Key: k, Value: *v, Replicate: replicate[k]})
		delete(replicate, k)
	}
	for k := range replicate {
		warnings = append(warnings, fmt.Sprintf("%s: replicate-env names unknown variable %s", svc.Name, k))
	}

	if len(svc.Ports) > 0 {
		cfg.Port = int(svc.Ports[0].Target)
		if len(svc.Ports) > 1 {
			warnings = append(warnings, fmt.Sprintf("%s: only the first of %d ports is used", svc.Name, len(svc.Ports)))
		}
	}

	for _, vol := range svc.Volumes {
		if vol.Type != types.VolumeTypeVolume {
			warnings = append(warnings, fmt.Sprintf("%s: %s mount %s is not supported", svc.Name, vol.Type, vol.Target))
			continue
		}
		cfg.Volumes = append(cfg.Volumes, vol.Target)
	}

	if v, ok := svc.Labels[LabelContainerType]; ok {
		t, err := model.ParseContainerType(v)
		if err != nil {
			return cfg, nil, err
		}
		cfg.Type = t
	}
	if v, ok := svc.Labels[LabelDeploymentStrategy]; ok {
		var strategy model.DeploymentStrategy
		if err := json.Unmarshal([]byte(strconv.Quote(v)), &strategy); err != nil {
			return cfg, nil, err
		}
		cfg.Strategy = strategy
	}
	return cfg, warnings, nil
}

// unsupportedFeatures names the compose features of a service that have no
// descriptor equivalent.
func unsupportedFeatures(svc types.ServiceConfig) []string {
	var out []string
	note := func(feature string) {
		out = append(out, fmt.Sprintf("%s: %s is not supported and is ignored", svc.Name, feature))
	}
	if svc.Build != nil {
		note("build")
	}
	if len(svc.Command) > 0 {
		note("command")
	}
	if len(svc.Entrypoint) > 0 {
		note("entrypoint")
	}
	if len(svc.DependsOn) > 0 {
		note("depends_on")
	}
	if svc.Deploy != nil {
		note("deploy")
	}
	if len(svc.Networks) > 0 {
		note("networks")
	}
	if svc.Privileged {
		note("privileged")
	}
	if len(svc.CapAdd) > 0 {
		note("cap_add")
	}
	if svc.Restart != "" {
		note("restart")
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
