package kube

import (
	"path"
	"strings"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// Resource name templates. Every name is a deterministic function of the
// normalized application name and the service name so that re-synthesizing
// the same descriptor yields byte-identical names.

// NamespaceName returns the isolation namespace of an application.
func NamespaceName(app model.AppName) string {
	return app.Normalize()
}

// DeploymentName returns `<app>-<service>-deployment`.
func DeploymentName(app model.AppName, service string) string {
	return app.Normalize() + "-" + service + "-deployment"
}

// ServiceName returns the in-namespace endpoint name, the bare service name.
// This is what makes siblings reachable by service name.
func ServiceName(service string) string {
	return service
}

// FileSecretName returns `<app>-<service>-secret`, the secret holding all
// mounted files of one service.
func FileSecretName(app model.AppName, service string) string {
	return app.Normalize() + "-" + service + "-secret"
}

// PullSecretName returns `<app>-image-pull-secret`.
func PullSecretName(app model.AppName) string {
	return app.Normalize() + "-image-pull-secret"
}

// IngressRouteName returns `<app>-<service>-ingress-route`.
func IngressRouteName(app model.AppName, service string) string {
	return app.Normalize() + "-" + service + "-ingress-route"
}

// VolumeClaimPrefix returns the generateName prefix `<app>-<service>-pvc-`.
// Claims get a non-deterministic suffix and are matched by label, not name.
func VolumeClaimPrefix(app model.AppName, service string) string {
	return app.Normalize() + "-" + service + "-pvc-"
}

// SecretNameFromPath derives a volume name from a directory path: the path
// components with dots replaced by dashes, joined with dashes.
// "/etc/mysql" becomes "etc-mysql".
func SecretNameFromPath(p string) string {
	var parts []string
	for _, c := range strings.Split(path.Clean(p), "/") {
		if c == "" || c == "." {
			continue
		}
		parts = append(parts, strings.ReplaceAll(c, ".", "-"))
	}
	return strings.Join(parts, "-")
}

// SecretNameFromFileName derives a secret data key from a file path: the bare
// file name with dots replaced by dashes. "/etc/mysql/my.cnf" becomes "my-cnf".
func SecretNameFromFileName(p string) string {
	name := path.Base(path.Clean(p))
	if name == "/" || name == "." {
		return ""
	}
	return strings.ReplaceAll(name, ".", "-")
}

// StorageType returns the storage kind of a declared volume path, its last
// segment, or "default" when the path yields none.
func StorageType(declaredVolume string) string {
	name := path.Base(path.Clean(declaredVolume))
	if name == "/" || name == "." || name == "" {
		return "default"
	}
	return name
}
