package domain

import (
	"context"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// DeploymentRepository stores and retrieves the journal of deploy and stop
// operations. Backends remain the source of truth for what is running; the
// journal only records what was requested and how it ended.
type DeploymentRepository interface {
	Create(ctx context.Context, d *model.Deployment) error
	Get(ctx context.Context, id string) (*model.Deployment, error)
	List(ctx context.Context) ([]*model.Deployment, error)
	ListByApp(ctx context.Context, appName string) ([]*model.Deployment, error)
	Update(ctx context.Context, d *model.Deployment) error
}
