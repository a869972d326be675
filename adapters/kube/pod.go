package kube

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// PodLogsInput defines parameters for fetching pod logs.
type PodLogsInput struct {
	// Namespace to search pods in.
	Namespace string
	// LabelSelector picks the pods of one service.
	LabelSelector string
	// Since excludes lines at or before this instant when non-nil.
	Since *time.Time
	// Limit caps the number of returned lines; 0 means no cap.
	Limit int
}

// PodLogs fetches timestamped log lines of the first pod matching the
// selector, oldest first. A nil slice without error means no pod matched,
// i.e. logs are not obtainable right now.
func (c *Client) PodLogs(ctx context.Context, in *PodLogsInput) ([]model.LogLine, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	if in == nil || in.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	pods, err := c.Clientset.CoreV1().Pods(in.Namespace).List(ctx, metav1.ListOptions{LabelSelector: in.LabelSelector})
	if err != nil {
		return nil, fmt.Errorf("list pods in %s: %w", in.Namespace, err)
	}
	if len(pods.Items) == 0 {
		return nil, nil
	}
	pod := pods.Items[0].Name

	opts := &corev1.PodLogOptions{Timestamps: true}
	if in.Since != nil {
		t := metav1.NewTime(*in.Since)
		opts.SinceTime = &t
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	stream, err := c.Clientset.CoreV1().Pods(in.Namespace).GetLogs(pod, opts).Stream(connCtx)
	if err != nil {
		return nil, fmt.Errorf("get logs stream for %s/%s: %w", in.Namespace, pod, err)
	}
	defer stream.Close()

	var lines []model.LogLine
	reader := bufio.NewReader(stream)
	for {
		line, e := reader.ReadString('\n')
		if len(line) > 0 {
			if ll, ok := parseLogLine(line); ok {
				if in.Since == nil || ll.Timestamp.After(*in.Since) {
					lines = append(lines, ll)
					if in.Limit > 0 && len(lines) >= in.Limit {
						break
					}
				}
			}
		}
		if e != nil {
			if e == io.EOF {
				break
			}
			return nil, fmt.Errorf("read logs: %w", e)
		}
	}
	return lines, nil
}

// parseLogLine splits the RFC3339Nano timestamp prefix the API server adds
// when Timestamps is requested from the message body.
func parseLogLine(raw string) (model.LogLine, bool) {
	raw = strings.TrimRight(raw, "\n")
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
