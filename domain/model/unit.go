package model

import "fmt"

// DeployableService is a service description enriched with everything the
// synthesis layer needs: defaults applied, templated environment rendered and
// ingress routes resolved.
type DeployableService struct {
	ServiceConfig
	IngressRoute IngressRoute
}

// DeploymentUnit is the fully assembled set of services of one application,
// ready for a backend to realize.
type DeploymentUnit struct {
	AppName  AppName
	Services []DeployableService
}

// DeploymentUnitOptions configures unit assembly.
type DeploymentUnitOptions struct {
	// BaseRoute is the route under which the system itself is reachable; when
	// set it is merged in front of every service route so deployed services
	// share the system's outer routing.
	BaseRoute *IngressRoute
}

// NewDeploymentUnit assembles a deployment unit: validates every descriptor,
// applies defaults, renders templated environment values and resolves ingress
// routes. The input configs are not modified.
func NewDeploymentUnit(app AppName, configs []ServiceConfig, opts *DeploymentUnitOptions) (*DeploymentUnit, error) {
	if opts == nil {
		opts = &DeploymentUnitOptions{}
	}
	unit := &DeploymentUnit{AppName: app}
	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		cfg = cfg.Normalized()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[cfg.ServiceName]; dup {
			return nil, fmt.Errorf("%w: duplicate service %s", ErrConfigInvalid, cfg.ServiceName)
		}
		seen[cfg.ServiceName] = struct{}{}

		env := make(Environment, len(cfg.Env))
		copy(env, cfg.Env)
		for i, v := range env {
			if !v.Templated {
				continue
			}
			rendered, err := renderTemplated(v.Value, app, cfg.ServiceName)
			if err != nil {
				return nil, fmt.Errorf("service %s env %s: %w", cfg.ServiceName, v.Key, err)
			}
			env[i].Value = rendered
		}
		cfg.Env = env

		unit.Services = append(unit.Services, DeployableService{
			ServiceConfig: cfg,
			IngressRoute:  resolveIngressRoute(app, cfg, opts.BaseRoute),
		})
	}
	return unit, nil
}

// FindService returns the deployable service with the given name.
func (u *DeploymentUnit) FindService(name string) (*DeployableService, bool) {
	for i := range u.Services {
		if u.Services[i].ServiceName == name {
			return &u.Services[i], true
		}
	}
	return nil, false
}

// Images returns the image references of all services in the unit.
func (u *DeploymentUnit) Images() []string {
	out := make([]string, 0, len(u.Services))
	for _, s := range u.Services {
		out = append(out, s.Image)
	}
	return out
}

func resolveIngressRoute(app AppName, cfg ServiceConfig, base *IngressRoute) IngressRoute {
	var route IngressRoute
	if len(cfg.Routes) == 0 {
		route = DefaultIngressRoute(app, cfg.ServiceName)
	} else {
		routes := make([]Route, len(cfg.Routes))
		copy(routes, cfg.Routes)
		route = IngressRoute{Routes: routes}
	}
	if base != nil {
		route = route.MergeWithBase(*base)
	}
	return route
}
