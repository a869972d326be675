package model

import "fmt"

// ServiceStatus is the run state of a realized service.
type ServiceStatus string

const (
	ServiceStatusRunning ServiceStatus = "running"
	ServiceStatusPaused  ServiceStatus = "paused"
)

// ParseServiceStatus parses the wire form of a service status.
func ParseServiceStatus(s string) (ServiceStatus, error) {
	switch ServiceStatus(s) {
	case ServiceStatusRunning, ServiceStatusPaused:
		return ServiceStatus(s), nil
	}
	return "", fmt.Errorf("unknown service status %q", s)
}

func (s ServiceStatus) String() string {
	return string(s)
}
