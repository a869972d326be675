package greenroomcfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	// EnvConfig overrides the configuration file path.
	EnvConfig = "GREENROOM_CONFIG"
	// EnvLogFormat overrides logging.format.
	EnvLogFormat = "GREENROOM_LOG_FORMAT"
)

// DefaultFileName is the configuration file looked up when neither the flag
// nor EnvConfig names one.
const DefaultFileName = "greenroom.yml"

// DefaultPath resolves the configuration file path: EnvConfig when set,
// otherwise DefaultFileName in the working directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultFileName
}

// Load reads a YAML file from the given path and returns the parsed Root
// with defaults applied. It performs no semantic validation; use Validate.
func Load(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse deserializes YAML bytes into a Root and applies defaults.
func Parse(data []byte) (*Root, error) {
	var cfg Root
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overrides entry knobs from the environment.
func (r *Root) ApplyEnv() {
	if v := os.Getenv(EnvLogFormat); v != "" {
		r.Logging.Format = v
	}
}

func (r *Root) applyDefaults() {
	if r.Version == 0 {
		r.Version = 1
	}
	if r.API.Listen == "" {
		r.API.Listen = ":8000"
	}
	if r.Store.URL == "" {
		r.Store.URL = "memory:"
	}
	if r.Logging.Format == "" {
		r.Logging.Format = "json"
	}
	if r.Logging.Level == "" {
		r.Logging.Level = "info"
	}
}
