package rdb

import "time"

// DeploymentRecord is the RDB persistence model for the deployment journal.
// Table name: deployments
type DeploymentRecord struct {
	ID        string    `gorm:"primaryKey;type:text;not null"`
	AppName   string    `gorm:"type:text;not null;index"`
	Operation string    `gorm:"type:text;not null"`
	State     string    `gorm:"type:text;not null"`
	Services  string    `gorm:"type:text"` // JSON encoded []model.Service
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DeploymentRecord) TableName() string { return "deployments" }
