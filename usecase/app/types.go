package app

import (
	"context"
	"time"

	"github.com/greenroom-dev/greenroom/domain"
	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// Repos holds the repositories needed for app use cases.
type Repos struct {
	Deployment domain.DeploymentRepository
}

// UseCase wires the orchestration backend, the deployment journal and the
// backend-wide container settings driving app operations.
type UseCase struct {
	Repos      *Repos
	Backend    model.Backend
	Containers *model.ContainerConfig
}

// record transitions a journal row and persists it. Journal failures must not
// mask the outcome of the backend operation, so they are only logged.
func (u *UseCase) record(ctx context.Context, d *model.Deployment, state model.DeploymentState, services []model.Service, opErr error) {
	d.State = state
	d.Services = services
	if opErr != nil {
		d.Error = opErr.Error()
	}
	d.UpdatedAt = time.Now().UTC()
	if err := u.Repos.Deployment.Update(ctx, d); err != nil {
		logging.FromContext(ctx).Warnf(ctx, "journal update %s: %v", d.ID, err)
	}
}
