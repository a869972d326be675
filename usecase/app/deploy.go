package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// DeployInput is the input for deploying an application.
type DeployInput struct {
	// AppName is the raw application name.
	AppName string
	// Configs are the service descriptors of the application.
	Configs []model.ServiceConfig
	// DeploymentID correlates this operation; generated when empty.
	DeploymentID string
}

// DeployOutput is the outcome of a deployment.
type DeployOutput struct {
	// Deployment is the journal row of the operation; its ID doubles as the
	// correlation ID.
	Deployment *model.Deployment
	// Services are the realized services as reported by the backend.
	Services []model.Service
}

// Deploy assembles the deployment unit and realizes it on the backend. The
// operation is journaled pending, then running, then done or failed.
func (u *UseCase) Deploy(ctx context.Context, in *DeployInput) (*DeployOutput, error) {
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
		Operation: model.DeploymentOperationDeploy,
		State:     model.DeploymentStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Repos.Deployment.Create(ctx, dep); err != nil {
		return nil, fmt.Errorf("journal deployment %s: %w", id, err)
	}
	log.Infof(ctx, "UC:app.deploy/s app=%s deployment=%s services=%d", app, id, len(in.Configs))

	baseRoute, err := u.Backend.BaseTraefikIngressRoute(ctx)
	if err != nil {
		u.record(ctx, dep, model.DeploymentStateFailed, nil, err)
		return nil, fmt.Errorf("resolve base route: %w", err)
	}
	unit, err := model.NewDeploymentUnit(app, in.Configs, &model.DeploymentUnitOptions{BaseRoute: baseRoute})
	if err != nil {
		u.record(ctx, dep, model.DeploymentStateFailed, nil, err)
		return nil, err
	}

	u.record(ctx, dep, model.DeploymentStateRunning, nil, nil)
	services, err := u.Backend.DeployServices(ctx, id, unit, u.Containers)
	if err != nil {
		u.record(ctx, dep, model.DeploymentStateFailed, nil, err)
		log.Errorf(ctx, "UC:app.deploy/efail app=%s deployment=%s err=%v", app, id, err)
		return nil, fmt.Errorf("deploy %s: %w", app, err)
	}

	u.record(ctx, dep, model.DeploymentStateDone, services, nil)
	log.Infof(ctx, "UC:app.deploy/eok app=%s deployment=%s services=%d", app, id, len(services))
	return &DeployOutput{Deployment: dep, Services: services}, nil
}
