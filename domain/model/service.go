package model

// Service is a realized service reported by a backend query, never produced
// by synthesis itself.
type Service struct {
	// ID is the backend-native identifier of the running workload.
	ID string `json:"id,omitempty"`
	// AppName is the application the service belongs to, raw form.
	AppName AppName `json:"appName"`
	// Status is the observed run state.
	Status ServiceStatus `json:"status"`
	// Config is the configuration resolved from the backend's stored state.
	Config ServiceConfig `json:"config"`
}

// Name returns the service name.
func (s *Service) Name() string {
	return s.Config.ServiceName
}

// Type returns the container role.
func (s *Service) Type() ContainerType {
	return s.Config.Type
}

// VisibleConfigs filters realized services down to the externally visible
// configuration set: container types instance and replica, in their original
// relative order. Companion services are deployed but excluded from this view.
func VisibleConfigs(services []Service) []ServiceConfig {
	var out []ServiceConfig
	for _, s := range services {
		if s.Type().Visible() {
			out = append(out, s.Config)
		}
	}
	return out
}
