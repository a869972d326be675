package model

import (
	"fmt"

	"github.com/greenroom-dev/greenroom/internal/naming"
)

// ServiceConfig is the declarative, backend-agnostic description of one
// service to deploy. It is constructed per deploy request and consumed once
// per synthesis pass; the engine retains nothing.
type ServiceConfig struct {
	// ServiceName is the DNS-1123 name under which siblings reach the service.
	ServiceName string `json:"serviceName"`
	// Image is the container image reference.
	Image string `json:"image"`
	// Env lists the environment variables passed to the container.
	Env Environment `json:"env,omitempty"`
	// Files maps absolute container paths to file contents mounted into the
	// service. Files sharing a parent directory are grouped into one secret
	// and one volume.
	Files map[string]string `json:"files,omitempty"`
	// Port is the container port of the service endpoint.
	Port int `json:"port,omitempty"`
	// Type is the container role within the application.
	Type ContainerType `json:"type,omitempty"`
	// Strategy controls workload recreation on redeploy.
	Strategy DeploymentStrategy `json:"strategy,omitempty"`
	// Routes lists explicit reverse-proxy routes. When empty, a default
	// path-prefix route is synthesized during unit assembly.
	Routes []Route `json:"routes,omitempty"`
	// Volumes lists container paths backed by persistent storage.
	Volumes []string `json:"volumes,omitempty"`
}

// DefaultServicePort is assumed when a descriptor declares no port.
const DefaultServicePort = 80

// Normalized returns a copy with defaults applied: instance type, default
// port, default strategy.
func (c ServiceConfig) Normalized() ServiceConfig {
	if c.Type == "" {
		c.Type = ContainerTypeInstance
	}
	if c.Port == 0 {
		c.Port = DefaultServicePort
	}
	if c.Strategy.Kind == "" {
		c.Strategy = DefaultDeploymentStrategy()
	}
	return c
}

// Validate checks the descriptor for structural problems.
func (c ServiceConfig) Validate() error {
	if err := naming.ValidateServiceName(c.ServiceName); err != nil {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}
	if c.Image == "" {
		return fmt.Errorf("%w: service %s declares no image", ErrConfigInvalid, c.ServiceName)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: service %s declares invalid port %d", ErrConfigInvalid, c.ServiceName, c.Port)
	}
	if _, err := ParseContainerType(string(c.Type)); err != nil {
		return err
	}
	for path := range c.Files {
		if len(path) == 0 || path[0] != '/' {
			return fmt.Errorf("%w: service %s declares relative file path %q", ErrConfigInvalid, c.ServiceName, path)
		}
	}
	for _, path := range c.Volumes {
		if len(path) == 0 || path[0] != '/' {
			return fmt.Errorf("%w: service %s declares relative volume path %q", ErrConfigInvalid, c.ServiceName, path)
		}
	}
	return nil
}
