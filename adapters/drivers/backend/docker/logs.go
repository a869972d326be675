package docker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// GetLogs reads timestamped log lines of one service container, oldest
// first, strictly after since, truncated at limit.
func (d *driver) GetLogs(ctx context.Context, app model.AppName, service string, since *time.Time, limit int) ([]model.LogLine, error) {
	ctr, err := d.findContainer(ctx, app, service)
	if err != nil {
		return nil, err
	}
	if ctr == nil {
		return nil, nil
	}

	opts := types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Since:      logsSince(since),
	}
	rc, err := d.cli.ContainerLogs(ctx, ctr.ID, opts)
	if err != nil {
		return nil, fmt.Errorf("logs of %s/%s: %w", app, service, err)
	}
	defer rc.Close()

	// Containers are created without a TTY, so the stream is multiplexed.
	// Demultiplexing into one buffer keeps stdout and stderr in arrival order.
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, rc); err != nil {
		return nil, fmt.Errorf("read logs of %s/%s: %w", app, service, err)
	}

	var lines []model.LogLine
	scanner := bufio.NewScanner(&buf)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ll, ok := parseLogLine(scanner.Text())
		if !ok {
			continue
		}
		if since != nil && !ll.Timestamp.After(*since) {
			continue
		}
		lines = append(lines, ll)
		if limit > 0 && len(lines) >= limit {
			break
		}
	}
	return lines, nil
}

// parseLogLine splits the RFC3339Nano timestamp prefix the daemon adds when
// Timestamps is requested from the message body.
func parseLogLine(raw string) (model.LogLine, bool) {
	ts, msg, found := strings.Cut(raw, " ")
	if !found {
		return model.LogLine{}, false
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return model.LogLine{}, false
	}
	return model.LogLine{Timestamp: parsed, Message: msg}, true
}
