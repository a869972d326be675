package model

import "fmt"

// ContainerType classifies the role of a deployed container within an
// application. Only instance and replica containers are part of the
// externally visible configuration set; companions are deployed alongside but
// excluded from that view.
type ContainerType string

const (
	ContainerTypeInstance         ContainerType = "instance"
	ContainerTypeReplica          ContainerType = "replica"
	ContainerTypeAppCompanion     ContainerType = "app-companion"
	ContainerTypeServiceCompanion ContainerType = "service-companion"
)

// ParseContainerType parses the wire form of a container type. The empty
// string maps to instance.
func ParseContainerType(s string) (ContainerType, error) {
	switch ContainerType(s) {
	case "":
		return ContainerTypeInstance, nil
	case ContainerTypeInstance, ContainerTypeReplica, ContainerTypeAppCompanion, ContainerTypeServiceCompanion:
		return ContainerType(s), nil
	}
	return "", fmt.Errorf("%w: unknown container type %q", ErrConfigInvalid, s)
}

func (t ContainerType) String() string {
	return string(t)
}

// Visible reports whether the container type belongs to the externally
// visible configuration set.
func (t ContainerType) Visible() bool {
	return t == ContainerTypeInstance || t == ContainerTypeReplica
}
