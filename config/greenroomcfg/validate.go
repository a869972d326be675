package greenroomcfg

import (
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Validate performs semantic validation on the configuration tree.
func (r *Root) Validate() error {
	if r.Version != 1 {
		return fmt.Errorf("version: unsupported version %d", r.Version)
	}
	if err := r.Backend.validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := r.Containers.validate(); err != nil {
		return fmt.Errorf("containers: %w", err)
	}
	if err := r.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (b *Backend) validate() error {
	if b.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	return nil
}

func (c *Containers) validate() error {
	if c.MemoryLimit != "" {
		if _, err := resource.ParseQuantity(c.MemoryLimit); err != nil {
			return fmt.Errorf("memoryLimit: %w", err)
		}
	}
	seen := make(map[string]struct{}, len(c.Registries))
	for i, reg := range c.Registries {
		if reg.Host == "" {
			return fmt.Errorf("registries[%d].host is required", i)
		}
		if _, exists := seen[reg.Host]; exists {
			return fmt.Errorf("registries[%d]: duplicate host %q", i, reg.Host)
		}
		seen[reg.Host] = struct{}{}
	}
	return nil
}

func (s *Store) validate() error {
	switch {
	case s.URL == "memory:":
		return nil
	case strings.HasPrefix(s.URL, "sqlite:"):
		if strings.TrimPrefix(s.URL, "sqlite:") == "" {
			return fmt.Errorf("url: sqlite requires a path")
		}
		return nil
	}
	return fmt.Errorf("url: unsupported scheme in %q (memory: or sqlite:<path>)", s.URL)
}
