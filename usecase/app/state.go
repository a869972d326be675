package app

import (
	"context"
	"fmt"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// ChangeStateInput is the input for starting or pausing one service.
type ChangeStateInput struct {
	// AppName is the raw application name.
	AppName string
	// ServiceName names the service whose state changes.
	ServiceName string
	// Status is the desired state, "running" or "paused".
	Status string
}

// ChangeStateOutput is the output of a state change.
type ChangeStateOutput struct {
	// Service is the affected service as reported by the backend.
	Service *model.Service
}

// ChangeState asks the backend to run or pause a single service without
// redeploying the application.
func (u *UseCase) ChangeState(ctx context.Context, in *ChangeStateInput) (*ChangeStateOutput, error) {
	log := logging.FromContext(ctx)
	if in == nil || in.AppName == "" || in.ServiceName == "" {
		return nil, fmt.Errorf("%w: app and service names are required", model.ErrConfigInvalid)
	}
	app, err := model.NewAppName(in.AppName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfigInvalid, err)
	}
	status, err := model.ParseServiceStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfigInvalid, err)
	}
	log.Infof(ctx, "UC:app.state/s app=%s service=%s status=%s", app, in.ServiceName, status)
	svc, err := u.Backend.ChangeStatus(ctx, app, in.ServiceName, status)
	if err != nil {
		log.Errorf(ctx, "UC:app.state/efail app=%s service=%s err=%v", app, in.ServiceName, err)
		return nil, err
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrServiceNotFound, app, in.ServiceName)
	}
	log.Infof(ctx, "UC:app.state/eok app=%s service=%s", app, in.ServiceName)
	return &ChangeStateOutput{Service: svc}, nil
}
