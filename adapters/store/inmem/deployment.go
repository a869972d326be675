package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/greenroom-dev/greenroom/domain"
	"github.com/greenroom-dev/greenroom/domain/model"
)

// DeploymentRepository is a thread-safe in-memory journal.
type DeploymentRepository struct {
	mu    sync.RWMutex
	items map[string]*model.Deployment
}

func NewDeploymentRepository() *DeploymentRepository {
	return &DeploymentRepository{items: make(map[string]*model.Deployment)}
}

func (r *DeploymentRepository) Create(_ context.Context, d *model.Deployment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func (r *DeploymentRepository) Get(_ context.Context, id string) (*model.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return nil, model.ErrDeploymentNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *DeploymentRepository) List(_ context.Context) ([]*model.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Deployment, 0, len(r.items))
	for _, v := range r.items {
		cp := *v
		out = append(out, &cp)
	}
	sortByCreation(out)
	return out, nil
}

func (r *DeploymentRepository) ListByApp(_ context.Context, appName string) ([]*model.Deployment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Deployment
	for _, v := range r.items {
		if v.AppName != appName {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sortByCreation(out)
	return out, nil
}

func (r *DeploymentRepository) Update(_ context.Context, d *model.Deployment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.ID]; !ok {
		return model.ErrDeploymentNotFound
	}
	cp := *d
	r.items[d.ID] = &cp
	return nil
}

func sortByCreation(ds []*model.Deployment) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].CreatedAt.Before(ds[j].CreatedAt) })
}

var _ domain.DeploymentRepository = (*DeploymentRepository)(nil)
