package docker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	backenddrv "github.com/greenroom-dev/greenroom/adapters/drivers/backend"
	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// DriverKind is the registry name of the docker backend.
const DriverKind = "docker"

// driver realizes deployment units as labeled containers on a single docker
// host. Each application gets a bridge network; containers join it under
// their service name so siblings resolve each other exactly like in the
// Kubernetes backend. Routing is expressed as Traefik docker-provider labels.
type driver struct {
	model.UnimplementedBackend

	cli       client.APIClient
	baseRoute *model.IngressRoute

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs the docker backend from its settings block. Settings: host
// (daemon address, empty means environment defaults), baseRule.
func New(settings map[string]string) (model.Backend, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host := settings["host"]; host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("build docker client: %w", err)
	}
	d := &driver{cli: cli, locks: map[string]*sync.Mutex{}}
	if raw := settings["baseRule"]; raw != "" {
		rule, err := model.ParseRouterRule(raw)
		if err != nil {
			return nil, fmt.Errorf("parse baseRule: %w", err)
		}
		d.baseRoute = &model.IngressRoute{Routes: []model.Route{{Rule: rule}}}
	}
	return d, nil
}

func init() {
	backenddrv.Register(DriverKind, New)
}

func (d *driver) appLock(app model.AppName) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := app.Normalize()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	return l
}

// GetServices returns every deployed service grouped by application.
func (d *driver) GetServices(ctx context.Context) (map[model.AppName][]model.Service, error) {
	args := filters.NewArgs(filters.Arg("label", labelAppName))
	containers, err := d.cli.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	log := logging.FromContext(ctx)
	out := map[model.AppName][]model.Service{}
	for _, ctr := range containers {
		svc, err := serviceFromContainer(ctr)
		if err != nil {
			log.Warnf(ctx, "skip container %.12s: %v", ctr.ID, err)
			continue
		}
		out[svc.AppName] = append(out[svc.AppName], svc)
	}
	return out, nil
}

// DeployServices realizes the unit on the docker host: the application
// network is ensured, containers whose configuration changed are replaced,
// unchanged ones are kept, and containers of dropped services are removed.
func (d *driver) DeployServices(ctx context.Context, correlationID string, unit *model.DeploymentUnit, cfg *model.ContainerConfig) ([]model.Service, error) {
	if unit == nil || len(unit.Services) == 0 {
		return nil, fmt.Errorf("%w: deployment unit is empty", model.ErrInvariant)
	}
	lock := d.appLock(unit.AppName)
	lock.Lock()
	defer lock.Unlock()

	log := logging.FromContext(ctx)
	log.Infof(ctx, "DockerDriver:DeployServices/s app=%s deployment=%s services=%d", unit.AppName, correlationID, len(unit.Services))

	if err := d.ensureNetwork(ctx, unit.AppName); err != nil {
		log.Errorf(ctx, "DockerDriver:DeployServices/efail app=%s err=%v", unit.AppName, err)
		return nil, err
	}
	existing, err := d.appContainers(ctx, unit.AppName)
	if err != nil {
		return nil, err
	}
	byService := map[string]*types.Container{}
	for i := range existing {
		byService[existing[i].Labels[labelServiceName]] = &existing[i]
	}

	for i := range unit.Services {
		svc := &unit.Services[i]
		current := byService[svc.ServiceName]
		if err := d.deployService(ctx, unit.AppName, svc, cfg, current); err != nil {
			log.Errorf(ctx, "DockerDriver:DeployServices/efail app=%s service=%s err=%v", unit.AppName, svc.ServiceName, err)
			return nil, err
		}
	}

	// Containers of services no longer in the unit are pruned.
	keep := make(map[string]struct{}, len(unit.Services))
	for i := range unit.Services {
		keep[unit.Services[i].ServiceName] = struct{}{}
	}
	for name, ctr := range byService {
		if _, ok := keep[name]; ok {
			continue
		}
		if err := d.removeContainer(ctx, ctr.ID); err != nil {
			return nil, fmt.Errorf("prune service %s: %w", name, err)
		}
		log.Infof(ctx, "DockerDriver:Prune app=%s service=%s", unit.AppName, name)
	}

	services, err := d.collectServices(ctx, unit.AppName)
	if err != nil {
		return nil, err
	}
	log.Infof(ctx, "DockerDriver:DeployServices/eok app=%s services=%d", unit.AppName, len(services))
	return services, nil
}

// StopServices removes every container of an application and its network.
func (d *driver) StopServices(ctx context.Context, correlationID string, app model.AppName) ([]model.Service, error) {
	lock := d.appLock(app)
	lock.Lock()
	defer lock.Unlock()

	log := logging.FromContext(ctx)
	log.Infof(ctx, "DockerDriver:StopServices/s app=%s deployment=%s", app, correlationID)

	services, err := d.collectServices(ctx, app)
	if err != nil {
		return nil, err
	}
	networkID, err := d.findNetwork(ctx, app)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 && networkID == "" {
		return nil, fmt.Errorf("%w: %s", model.ErrAppNotFound, app)
	}

	containers, err := d.appContainers(ctx, app)
	if err != nil {
		return nil, err
	}
	for i := range containers {
		if err := d.removeContainer(ctx, containers[i].ID); err != nil {
			log.Errorf(ctx, "DockerDriver:StopServices/efail app=%s err=%v", app, err)
			return nil, fmt.Errorf("remove container %.12s: %w", containers[i].ID, err)
		}
	}
	if networkID != "" {
		if err := d.cli.NetworkRemove(ctx, networkID); err != nil {
			return nil, fmt.Errorf("remove network of %s: %w", app, err)
		}
	}
	log.Infof(ctx, "DockerDriver:StopServices/eok app=%s services=%d", app, len(services))
	return services, nil
}

// ChangeStatus pauses or unpauses one service container. Containers that
// exited are started again when a running state is requested.
func (d *driver) ChangeStatus(ctx context.Context, app model.AppName, service string, status model.ServiceStatus) (*model.Service, error) {
	ctr, err := d.findContainer(ctx, app, service)
	if err != nil {
		return nil, err
	}
	if ctr == nil {
		return nil, nil
	}

	switch status {
	case model.ServiceStatusPaused:
		if ctr.State == "running" {
			if err := d.cli.ContainerPause(ctx, ctr.ID); err != nil {
				return nil, fmt.Errorf("pause %s/%s: %w", app, service, err)
			}
		}
	case model.ServiceStatusRunning:
		switch ctr.State {
		case "paused":
			if err := d.cli.ContainerUnpause(ctx, ctr.ID); err != nil {
				return nil, fmt.Errorf("unpause %s/%s: %w", app, service, err)
			}
		case "running":
		default:
			if err := d.cli.ContainerStart(ctx, ctr.ID, types.ContainerStartOptions{}); err != nil {
				return nil, fmt.Errorf("start %s/%s: %w", app, service, err)
			}
		}
	}

	svc, err := serviceFromContainer(*ctr)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s/%s: %w", app, service, err)
	}
	svc.Status = status
	return &svc, nil
}

// BaseTraefikIngressRoute returns the route configured through the baseRule
// setting, or nil.
func (d *driver) BaseTraefikIngressRoute(ctx context.Context) (*model.IngressRoute, error) {
	return d.baseRoute, nil
}

// appContainers lists the containers of one application, including stopped
// ones.
func (d *driver) appContainers(ctx context.Context, app model.AppName) ([]types.Container, error) {
	args := filters.NewArgs(filters.Arg("label", labelAppName+"="+app.String()))
	containers, err := d.cli.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("list containers of %s: %w", app, err)
	}
	return containers, nil
}

func (d *driver) findContainer(ctx context.Context, app model.AppName, service string) (*types.Container, error) {
	args := filters.NewArgs(
		filters.Arg("label", labelAppName+"="+app.String()),
		filters.Arg("label", labelServiceName+"="+service),
	)
	containers, err := d.cli.ContainerList(ctx, types.ContainerListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("find container of %s/%s: %w", app, service, err)
	}
	if len(containers) == 0 {
		return nil, nil
	}
	return &containers[0], nil
}

func (d *driver) collectServices(ctx context.Context, app model.AppName) ([]model.Service, error) {
	containers, err := d.appContainers(ctx, app)
	if err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx)
	var out []model.Service
	for _, ctr := range containers {
		svc, err := serviceFromContainer(ctr)
		if err != nil {
			log.Warnf(ctx, "skip container %.12s: %v", ctr.ID, err)
			continue
		}
		out = append(out, svc)
	}
	return out, nil
}

// serviceFromContainer reconstructs a service from container labels and run
// state.
func serviceFromContainer(ctr types.Container) (model.Service, error) {
	rawApp := ctr.Labels[labelAppName]
	if rawApp == "" {
		return model.Service{}, fmt.Errorf("container carries no %s label", labelAppName)
	}
	app, err := model.NewAppName(rawApp)
	if err != nil {
		return model.Service{}, err
	}
	name := ctr.Labels[labelServiceName]
	if name == "" {
		return model.Service{}, fmt.Errorf("container carries no %s label", labelServiceName)
	}
	ctype, err := model.ParseContainerType(ctr.Labels[labelContainerType])
	if err != nil {
		return model.Service{}, err
	}

	cfg := model.ServiceConfig{
		ServiceName: name,
		Image:       ctr.Image,
		Type:        ctype,
	}
	if p, err := strconv.Atoi(ctr.Labels[labelServicePort]); err == nil {
		cfg.Port = p
	}
	if rep := ctr.Labels[labelReplicatedEnv]; rep != "" {
		env, err := model.ParseReplicatedJSON(rep)
		if err != nil {
			return model.Service{}, err
		}
		cfg.Env = env
	}

	status := model.ServiceStatusPaused
	if ctr.State == "running" {
		status = model.ServiceStatusRunning
	}
	return model.Service{
		ID:      ctr.ID,
		AppName: app,
		Status:  status,
		Config:  cfg,
	}, nil
}

// logsSince formats the strictly-after bound for the daemon; the line filter
// afterwards enforces strictness.
func logsSince(since *time.Time) string {
	if since == nil {
		return ""
	}
	return since.Format(time.RFC3339Nano)
}
