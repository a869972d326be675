package rdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/greenroom-dev/greenroom/domain"
	"github.com/greenroom-dev/greenroom/domain/model"
	"gorm.io/gorm"
)

type DeploymentRepository struct{ db *gorm.DB }

func NewDeploymentRepository(db *gorm.DB) *DeploymentRepository {
	return &DeploymentRepository{db: db}
}

func deploymentToRecord(d *model.Deployment) (*DeploymentRecord, error) {
	rec := &DeploymentRecord{
		ID:        d.ID,
		AppName:   d.AppName,
		Operation: string(d.Operation),
		State:     string(d.State),
		Error:     d.Error,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Services) > 0 {
		b, err := json.Marshal(d.Services)
		if err != nil {
			return nil, fmt.Errorf("failed to encode deployment services: %w", err)
		}
		rec.Services = string(b)
	}
	return rec, nil
}

func deploymentToModel(r *DeploymentRecord) (*model.Deployment, error) {
	d := &model.Deployment{
		ID:        r.ID,
		AppName:   r.AppName,
		Operation: model.DeploymentOperation(r.Operation),
		State:     model.DeploymentState(r.State),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Services != "" {
		if err := json.Unmarshal([]byte(r.Services), &d.Services); err != nil {
			return nil, fmt.Errorf("failed to decode deployment services: %w", err)
		}
	}
	return d, nil
}

func (r *DeploymentRepository) Create(ctx context.Context, d *model.Deployment) error {
	rec, err := deploymentToRecord(d)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *DeploymentRepository) Get(ctx context.Context, id string) (*model.Deployment, error) {
	var rec DeploymentRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.ErrDeploymentNotFound
		}
		return nil, err
	}
	return deploymentToModel(&rec)
}

func (r *DeploymentRepository) List(ctx context.Context) ([]*model.Deployment, error) {
	var recs []DeploymentRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recordsToModels(recs)
}

func (r *DeploymentRepository) ListByApp(ctx context.Context, appName string) ([]*model.Deployment, error) {
	var recs []DeploymentRecord
	if err := r.db.WithContext(ctx).Where("app_name = ?", appName).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recordsToModels(recs)
}

func (r *DeploymentRepository) Update(ctx context.Context, d *model.Deployment) error {
	rec, err := deploymentToRecord(d)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&DeploymentRecord{}).Where("id = ?", rec.ID).Select("*").Omit("id", "created_at").Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrDeploymentNotFound
	}
	return nil
}

func recordsToModels(recs []DeploymentRecord) ([]*model.Deployment, error) {
	out := make([]*model.Deployment, 0, len(recs))
	for i := range recs {
		d, err := deploymentToModel(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

var _ domain.DeploymentRepository = (*DeploymentRepository)(nil)
