package app

import (
	"context"
	"fmt"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// ListOutput holds every deployed application with its externally visible
// service configurations.
type ListOutput struct {
	// Apps maps the raw application name to visible configurations, in the
	// backend's reported order.
	Apps map[string][]model.ServiceConfig
}

// List returns the applications known to the backend. Companion containers
// are filtered out of the visible configuration set.
func (u *UseCase) List(ctx context.Context) (*ListOutput, error) {
	byApp, err := u.Backend.GetServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	out := &ListOutput{Apps: make(map[string][]model.ServiceConfig, len(byApp))}
	for app, services := range byApp {
		out.Apps[app.String()] = model.VisibleConfigs(services)
	}
	return out, nil
}
