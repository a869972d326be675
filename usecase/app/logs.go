package app

import (
	"context"
	"fmt"
	"time"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// DefaultLogLimit caps log responses when the caller names no limit.
const DefaultLogLimit = 500

// LogsInput is the input for fetching service logs.
type LogsInput struct {
	// AppName is the raw application name.
	AppName string
	// ServiceName names the service within the application.
	ServiceName string
	// Since excludes lines at or before this instant when non-nil.
	Since *time.Time
	// Limit caps the number of returned lines; defaulted when zero.
	Limit int
}

// LogsOutput holds the fetched log lines.
type LogsOutput struct {
	// Lines are the log lines, oldest first. Nil means logs are not
	// obtainable for this service.
	Lines []model.LogLine
}

// Logs fetches up to Limit log lines of one service.
func (u *UseCase) Logs(ctx context.Context, in *LogsInput) (*LogsOutput, error) {
	if in == nil || in.AppName == "" || in.ServiceName == "" {
		return nil, fmt.Errorf("%w: app and service names are required", model.ErrConfigInvalid)
	}
	app, err := model.NewAppName(in.AppName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrConfigInvalid, err)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	lines, err := u.Backend.GetLogs(ctx, app, in.ServiceName, in.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("logs of %s/%s: %w", app, in.ServiceName, err)
	}
	return &LogsOutput{Lines: lines}, nil
}
