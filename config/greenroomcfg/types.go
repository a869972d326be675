// Package greenroomcfg defines the configuration schema (structs) for
// greenroom.yml. This package is intended for YAML -> struct
// deserialization; loading helpers and validations live in separate files.
package greenroomcfg

// Root is the root structure of greenroom.yml.
type Root struct {
	Version    int        `yaml:"version"`
	Backend    Backend    `yaml:"backend"`
	Containers Containers `yaml:"containers,omitempty"`
	API        API        `yaml:"api,omitempty"`
	Store      Store      `yaml:"store,omitempty"`
	Logging    Logging    `yaml:"logging,omitempty"`
}

// Backend selects and configures the orchestration backend.
type Backend struct {
	Kind     string            `yaml:"kind"`               // e.g., "kubernetes", "docker"
	Settings map[string]string `yaml:"settings,omitempty"` // backend-specific settings
}

// Containers carries backend-wide container settings applied to every
// deployment.
type Containers struct {
	MemoryLimit          string              `yaml:"memoryLimit,omitempty"` // per-container cap, e.g. "256Mi"
	Registries           []ContainerRegistry `yaml:"registries,omitempty"`
	NamespaceAnnotations map[string]string   `yaml:"namespaceAnnotations,omitempty"`
}

// ContainerRegistry holds image pull credentials for one registry host.
type ContainerRegistry struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// API configures the REST server.
type API struct {
	Listen string `yaml:"listen,omitempty"` // address, default ":8000"
}

// Store configures the deployment journal.
type Store struct {
	URL string `yaml:"url,omitempty"` // "memory:" or "sqlite:<path>"
}

// Logging configures the process logger.
type Logging struct {
	Format string `yaml:"format,omitempty"` // human | text | json
	Level  string `yaml:"level,omitempty"`  // debug | info | warn | error
}
