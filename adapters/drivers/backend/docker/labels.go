package docker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/naming"
)

// Container labels carrying the identity and reconstruction data of a
// deployed service. The docker backend has no annotations, so everything the
// Kubernetes backend stores there lives in labels here.
const (
	labelAppName       = "dev.greenroom.app-name"
	labelServiceName   = "dev.greenroom.service-name"
	labelContainerType = "dev.greenroom.container-type"
	labelServicePort   = "dev.greenroom.service-port"
	labelReplicatedEnv = "dev.greenroom.replicated-env"
	labelConfigHash    = "dev.greenroom.config-hash"
)

// NetworkName returns the per-application bridge network, the normalized
// application name. Containers join it under their service name as alias.
func NetworkName(app model.AppName) string {
	return app.Normalize()
}

// ContainerName returns `<app>-<service>`.
func ContainerName(app model.AppName, service string) string {
	return app.Normalize() + "-" + service
}

// VolumeName returns the named volume backing one declared path:
// `<app>-<service>-<pathhash>`.
func VolumeName(app model.AppName, service, declaredVolume string) string {
	return app.Normalize() + "-" + service + "-" + naming.PathHash(declaredVolume)
}

func routerName(app model.AppName, service string, route int) string {
	name := app.Normalize() + "-" + service
	if route > 0 {
		name = fmt.Sprintf("%s-%d", name, route)
	}
	return name
}

// identityLabels returns the label set identifying one service container.
func identityLabels(app model.AppName, svc *model.DeployableService) map[string]string {
	labels := map[string]string{
		labelAppName:       app.String(),
		labelServiceName:   svc.ServiceName,
		labelContainerType: string(svc.Type),
		labelServicePort:   strconv.Itoa(svc.Port),
	}
	if rep, ok := svc.Env.ReplicatedJSON(); ok {
		labels[labelReplicatedEnv] = rep
	}
	return labels
}

// TraefikLabels renders the routing of one service as Traefik docker-provider
// labels: one router per route, inline middleware specs flattened into
// middleware option labels, references named as-is.
func TraefikLabels(app model.AppName, svc *model.DeployableService) map[string]string {
	if len(svc.IngressRoute.Routes) == 0 {
		return nil
	}
	out := map[string]string{
		"traefik.enable":         "true",
		"traefik.docker.network": NetworkName(app),
	}
	for i, rt := range svc.IngressRoute.Routes {
		router := routerName(app, svc.ServiceName, i)
		prefix := "traefik.http.routers." + router
		out[prefix+".rule"] = rt.Rule.String()
		out[prefix+".service"] = router
		out["traefik.http.services."+router+".loadbalancer.server.port"] = strconv.Itoa(svc.Port)
		if len(svc.IngressRoute.EntryPoints) > 0 {
			out[prefix+".entrypoints"] = strings.Join(svc.IngressRoute.EntryPoints, ",")
		}
		if tls := svc.IngressRoute.TLS; tls != nil && tls.CertResolver != "" {
			out[prefix+".tls.certresolver"] = tls.CertResolver
		}
		var names []string
		for _, mw := range rt.Middlewares {
			name := mw.ResolvedName()
			names = append(names, name)
			if mw.IsRef() {
				continue
			}
			flattenSpec(out, "traefik.http.middlewares."+name, mw.Spec)
		}
		if len(names) > 0 {
			out[prefix+".middlewares"] = strings.Join(names, ",")
		}
	}
	return out
}

// flattenSpec walks a middleware specification and emits one label per leaf,
// keys lowercased and joined with dots, list leaves joined with commas.
func flattenSpec(out map[string]string, prefix string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for k, u := range t {
			flattenSpec(out, prefix+"."+strings.ToLower(k), u)
		}
	case []any:
		parts := make([]string, 0, len(t))
		for _, u := range t {
			parts = append(parts, fmt.Sprint(u))
		}
		out[prefix] = strings.Join(parts, ",")
	case []string:
		out[prefix] = strings.Join(t, ",")
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

// configHash fingerprints everything that defines a container. A container
// whose recorded hash matches the desired one does not need recreation.
// The pinned image digest participates, so pin-strategy services recreate
// exactly when the digest moves.
func configHash(svc *model.DeployableService) string {
	var sb strings.Builder
	sb.WriteString(svc.Image)
	sb.WriteString("|")
	sb.WriteString(svc.Strategy.ImageHash)
	fmt.Fprintf(&sb, "|%d|%s", svc.Port, svc.Type)
	for _, v := range svc.Env {
		fmt.Fprintf(&sb, "|env:%s=%s;%t", v.Key, v.Value, v.Replicate)
	}
	paths := make([]string, 0, len(svc.Files))
	for p := range svc.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&sb, "|file:%s=%s", p, naming.ShortHash(svc.Files[p], 12))
	}
	for _, v := range svc.Volumes {
		sb.WriteString("|vol:" + v)
	}
	for _, rt := range svc.IngressRoute.Routes {
		sb.WriteString("|rule:" + rt.Rule.String())
		for _, mw := range rt.Middlewares {
			sb.WriteString("|mw:" + mw.ResolvedName())
		}
	}
	sb.WriteString("|ep:" + strings.Join(svc.IngressRoute.EntryPoints, ","))
	if svc.IngressRoute.TLS != nil {
		sb.WriteString("|tls:" + svc.IngressRoute.TLS.CertResolver)
	}
	return naming.ShortHash(sb.String(), 12)
}
