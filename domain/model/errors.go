package model

import "errors"

var (
	ErrAppNotFound        = errors.New("app not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrDeploymentNotFound = errors.New("deployment not found")
	ErrConfigInvalid      = errors.New("service config invalid")

	// ErrInvariant marks a violated internal invariant: an input constructed by
	// this system itself did not satisfy its own preconditions. Distinct from
	// ordinary backend failures so the boundary stays testable.
	ErrInvariant = errors.New("internal invariant broken")
)
