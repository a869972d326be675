package main

import (
	"context"
	"time"

	"github.com/greenroom-dev/greenroom/internal/logging"
)

// withCmdRunLogger wraps one CLI command run in a log span. The start line
// fires immediately; the returned done func logs EOK or EFAIL with the
// elapsed seconds and is meant to be deferred with the command's named error:
//
//	ctx, done := withCmdRunLogger(ctx, "app.deploy", appName)
//	defer func() { done(err) }()
func withCmdRunLogger(ctx context.Context, operation, resource string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("resource", resource)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "CMD:"+operation+"/S")

	done := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "CMD:"+operation+"/EOK", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 32 {
			errStr = errStr[:32] + "..."
		}
		logger.Info(ctx, "CMD:"+operation+"/EFAIL", "err", errStr, "elapsed", elapsed)
	}

	return ctx, done
}
