package model

import (
	"context"
	"strings"
	"time"
)

// LogLine is one timestamped log line of a service.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// RegistryCredential authenticates image pulls against one registry host.
type RegistryCredential struct {
	Host     string
	Username string
	Password string
}

// ContainerConfig carries backend-wide settings applied to every deployment.
// Loaded once at process start and read-only thereafter.
type ContainerConfig struct {
	// MemoryLimit caps each container's memory in bytes; 0 means unlimited.
	MemoryLimit int64
	// Registries lists credentials for private image registries.
	Registries []RegistryCredential
	// NamespaceAnnotations is attached to every application namespace.
	NamespaceAnnotations map[string]string
}

// CredentialsFor returns the registry credentials needed to pull the given
// images, in declaration order, without duplicates.
func (c *ContainerConfig) CredentialsFor(images []string) []RegistryCredential {
	if c == nil || len(c.Registries) == 0 {
		return nil
	}
	hosts := make(map[string]struct{}, len(images))
	for _, img := range images {
		hosts[ImageRegistry(img)] = struct{}{}
	}
	var out []RegistryCredential
	for _, r := range c.Registries {
		if _, ok := hosts[r.Host]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ImageRegistry returns the registry host of an image reference, following
// the docker convention that a first path component containing a dot, a
// colon, or the literal localhost names a registry.
func ImageRegistry(image string) string {
	slash := strings.Index(image, "/")
	if slash < 0 {
		return "docker.io"
	}
	host := image[:slash]
	if strings.ContainsAny(host, ".:") || host == "localhost" {
		return host
	}
	return "docker.io"
}

// Backend is the uniform operation contract every orchestration backend
// implements. Synthesis happens behind DeployServices; query operations
// reflect the backend's current truth and require no caller-side caching.
//
// Implementations must serialize concurrent deploy/stop operations for the
// same application; operations for different applications may run
// concurrently.
type Backend interface {
	// GetServices returns all running services grouped by application.
	GetServices(ctx context.Context) (map[AppName][]Service, error)

	// DeployServices realizes the unit as backend resources with upsert
	// semantics and returns the realized services. Postconditions: every
	// deployed service is reachable from its siblings by service name,
	// redeploying replaces rather than duplicates, and deployed services are
	// discoverable through GetServices and StopServices under the same
	// application name.
	DeployServices(ctx context.Context, correlationID string, unit *DeploymentUnit, cfg *ContainerConfig) ([]Service, error)

	// GetStatusChange reports the services affected by the operation
	// identified by correlationID. Backends without asynchronous applies
	// return nil.
	GetStatusChange(ctx context.Context, correlationID string) ([]Service, error)

	// StopServices tears down an application and returns exactly the services
	// that were stopped.
	StopServices(ctx context.Context, correlationID string, app AppName) ([]Service, error)

	// GetLogs returns up to limit log lines of one service, newest-last,
	// starting after since when non-nil. A nil slice with a nil error means
	// logs are not obtainable for this backend or service; it is not a fault.
	GetLogs(ctx context.Context, app AppName, service string, since *time.Time, limit int) ([]LogLine, error)

	// ChangeStatus starts or pauses one service and returns its new state.
	// A nil service with a nil error means the service was not found.
	ChangeStatus(ctx context.Context, app AppName, service string, status ServiceStatus) (*Service, error)

	// BaseTraefikIngressRoute returns the route under which the system's own
	// API is reachable, letting deployed services route consistently beneath
	// it, or nil if the backend declares none.
	BaseTraefikIngressRoute(ctx context.Context) (*IngressRoute, error)
}

// UnimplementedBackend provides the documented default behavior for optional
// backend capabilities. Drivers embed it and override what they support.
type UnimplementedBackend struct{}

// GetStatusChange reports no asynchronous status tracking.
func (UnimplementedBackend) GetStatusChange(ctx context.Context, correlationID string) ([]Service, error) {
	return nil, nil
}

// GetLogs reports logs as not obtainable.
func (UnimplementedBackend) GetLogs(ctx context.Context, app AppName, service string, since *time.Time, limit int) ([]LogLine, error) {
	return nil, nil
}

// BaseTraefikIngressRoute declares no base route.
func (UnimplementedBackend) BaseTraefikIngressRoute(ctx context.Context) (*IngressRoute, error) {
	return nil, nil
}
