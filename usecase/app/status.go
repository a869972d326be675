package app

import (
	"context"
	"fmt"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// StatusInput is the input for querying one recorded operation.
type StatusInput struct {
	// AppName is the raw application name.
	AppName string
	// DeploymentID identifies the recorded operation.
	DeploymentID string
}

// StatusOutput combines the journal row with the backend's live view of the
// operation.
type StatusOutput struct {
	// Deployment is the journal row.
	Deployment *model.Deployment
	// Services are the services the backend reports as affected by this
	// operation; nil when the backend has no asynchronous tracking.
	Services []model.Service
}

// Status returns the journal row of one operation plus whatever the backend
// still knows about it.
func (u *UseCase) Status(ctx context.Context, in *StatusInput) (*StatusOutput, error) {
	if in == nil || in.DeploymentID == "" {
		return nil, fmt.Errorf("%w: deployment id is required", model.ErrConfigInvalid)
	}
	dep, err := u.Repos.Deployment.Get(ctx, in.DeploymentID)
	if err != nil {
		return nil, err
	}
	if in.AppName != "" && dep.AppName != in.AppName {
		return nil, fmt.Errorf("%w: %s", model.ErrDeploymentNotFound, in.DeploymentID)
	}
	services, err := u.Backend.GetStatusChange(ctx, in.DeploymentID)
	if err != nil {
		return nil, fmt.Errorf("status change of %s: %w", in.DeploymentID, err)
	}
	return &StatusOutput{Deployment: dep, Services: services}, nil
}
