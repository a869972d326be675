package model

import "time"

// DeploymentOperation names the kind of a recorded operation.
type DeploymentOperation string

const (
	DeploymentOperationDeploy DeploymentOperation = "deploy"
	DeploymentOperationStop   DeploymentOperation = "stop"
)

// DeploymentState is the lifecycle state of a recorded operation.
type DeploymentState string

const (
	DeploymentStatePending DeploymentState = "pending"
	DeploymentStateRunning DeploymentState = "running"
	DeploymentStateDone    DeploymentState = "done"
	DeploymentStateFailed  DeploymentState = "failed"
)

// Deployment records one deploy or stop operation of an application. The ID
// doubles as the correlation ID passed to the backend.
type Deployment struct {
	ID        string              `json:"id"`
	AppName   string              `json:"appName"`
	Operation DeploymentOperation `json:"operation"`
	State     DeploymentState     `json:"state"`
	Services  []Service           `json:"services,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}
