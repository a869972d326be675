package model

import (
	"strings"

	"github.com/greenroom-dev/greenroom/internal/naming"
)

// AppName is the user-supplied name of a preview application. The raw form is
// kept for display and labels; every backend-visible resource name derives
// from the normalized form.
type AppName string

// NewAppName validates raw and returns it as an AppName.
func NewAppName(raw string) (AppName, error) {
	if err := naming.ValidateAppName(raw); err != nil {
		return "", err
	}
	return AppName(raw), nil
}

// Normalize returns the orchestration-safe identifier for the application:
// the lowercase form of the raw name. Pure and idempotent.
func (n AppName) Normalize() string {
	return strings.ToLower(string(n))
}

func (n AppName) String() string {
	return string(n)
}
