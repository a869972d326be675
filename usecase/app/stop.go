package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// StopInput is the input for stopping an application.
type StopInput struct {
	// AppName is the raw application name.
	AppName string
	// DeploymentID correlates this operation; generated when empty.
	DeploymentID string
}

// StopOutput is the outcome of a stop.
type StopOutput struct {
	// Deployment is the journal row of the operation.
	Deployment *model.Deployment
	// Services are the services that were torn down.
	Services []model.Service
}

// Stop tears down every service of an application. The operation is
// journaled like a deployment.
func (u *UseCase) Stop(ctx context.Context, in *StopInput) (*StopOutput, error) {
	if in == nil || in.AppName == "" {
		return nil, fmt.Errorf("%w: app name is required", model.ErrConfigInvalid)
	}
	app, err := model.NewAppName(in.AppName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrConfigInvalid, err)
	}
	log := logging.FromContext(ctx)

	id := in.DeploymentID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	dep := &model.Deployment{
		ID:        id,
		AppName:   app.String(),
		Operation: model.DeploymentOperationStop,
		State:     model.DeploymentStateRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Repos.Deployment.Create(ctx, dep); err != nil {
		return nil, fmt.Errorf("journal stop %s: %w", id, err)
	}
	log.Infof(ctx, "UC:app.stop/s app=%s deployment=%s", app, id)

	services, err := u.Backend.StopServices(ctx, id, app)
	if err != nil {
		u.record(ctx, dep, model.DeploymentStateFailed, nil, err)
		log.Errorf(ctx, "UC:app.stop/efail app=%s deployment=%s err=%v", app, id, err)
		return nil, fmt.Errorf("stop %s: %w", app, err)
	}

	u.record(ctx, dep, model.DeploymentStateDone, services, nil)
	log.Infof(ctx, "UC:app.stop/eok app=%s deployment=%s services=%d", app, id, len(services))
	return &StopOutput{Deployment: dep, Services: services}, nil
}
