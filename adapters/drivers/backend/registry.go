package backenddrv

import (
	"fmt"
	"sort"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// Factory constructs a backend driver from the settings block of the runtime
// configuration.
type Factory func(settings map[string]string) (model.Backend, error)

// registry holds registered backend drivers by kind.
var registry = map[string]Factory{}

// Register makes a backend driver available under the given kind. Drivers
// call this from their init function.
func Register(kind string, factory Factory) {
	registry[kind] = factory
}

// New constructs the backend driver registered under kind.
func New(kind string, settings map[string]string) (model.Backend, error) {
	factory, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown backend kind %q (registered: %v)", kind, Kinds())
	}
	backend, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", kind, err)
	}
	return backend, nil
}

// Kinds returns the registered backend kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
