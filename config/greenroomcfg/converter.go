package greenroomcfg

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// ContainerConfig converts the containers block into its runtime form.
func (c *Containers) ContainerConfig() (*model.ContainerConfig, error) {
	out := &model.ContainerConfig{
		NamespaceAnnotations: c.NamespaceAnnotations,
	}
	if c.MemoryLimit != "" {
		q, err := resource.ParseQuantity(c.MemoryLimit)
		if err != nil {
			return nil, fmt.Errorf("memoryLimit: %w", err)
		}
		out.MemoryLimit = q.Value()
	}
	for _, reg := range c.Registries {
		out.Registries = append(out.Registries, model.RegistryCredential{
			Host:     reg.Host,
			Username: reg.Username,
			Password: reg.Password,
		})
	}
	return out, nil
}
