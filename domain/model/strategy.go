package model

import (
	"encoding/json"
	"fmt"
)

// DeploymentStrategyKind selects how a redeploy forces workload recreation.
type DeploymentStrategyKind string

const (
	// RedeployOnImageUpdate pins the workload to an image digest; pods are
	// recreated only when the digest changes between deployments.
	RedeployOnImageUpdate DeploymentStrategyKind = "redeploy-on-image-update"
	// RedeployNever leaves recreation entirely to the orchestrator.
	RedeployNever DeploymentStrategyKind = "redeploy-never"
	// RedeployAlways stamps every synthesis with the current time so that each
	// deployment recreates pods even when nothing else changed.
	RedeployAlways DeploymentStrategyKind = "redeploy-always"
)

// DeploymentStrategy is chosen per service at descriptor construction and
// never changes during synthesis.
type DeploymentStrategy struct {
	Kind      DeploymentStrategyKind `json:"kind"`
	ImageHash string                 `json:"imageHash,omitempty"`
}

// DefaultDeploymentStrategy returns the strategy applied when a descriptor
// declares none.
func DefaultDeploymentStrategy() DeploymentStrategy {
	return DeploymentStrategy{Kind: RedeployAlways}
}

// UnmarshalJSON accepts either a bare kind string or the full object form.
func (s *DeploymentStrategy) UnmarshalJSON(data []byte) error {
	var kind string
	if err := json.Unmarshal(data, &kind); err == nil {
		parsed, err := parseStrategyKind(kind)
		if err != nil {
			return err
		}
		*s = DeploymentStrategy{Kind: parsed}
		return nil
	}
	type wire DeploymentStrategy
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("deployment strategy: %w", err)
	}
	if _, err := parseStrategyKind(string(w.Kind)); err != nil {
		return err
	}
	if w.Kind == RedeployOnImageUpdate && w.ImageHash == "" {
		return fmt.Errorf("%w: strategy %s requires imageHash", ErrConfigInvalid, RedeployOnImageUpdate)
	}
	*s = DeploymentStrategy(w)
	return nil
}

func parseStrategyKind(s string) (DeploymentStrategyKind, error) {
	switch DeploymentStrategyKind(s) {
	case "":
		return RedeployAlways, nil
	case RedeployOnImageUpdate, RedeployNever, RedeployAlways:
		return DeploymentStrategyKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown deployment strategy %q", ErrConfigInvalid, s)
}
