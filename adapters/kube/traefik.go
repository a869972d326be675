package kube

import (
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Typed representations of the Traefik custom resources the synthesis layer
// emits and reads back. Only the fields greenroom touches are modeled; the
// middleware spec stays an opaque map.

const (
	// TraefikGroup is the API group of the Traefik CRDs.
	TraefikGroup = "traefik.containo.us"
	// TraefikVersion is the CRD API version.
	TraefikVersion = "v1alpha1"
	// TraefikAPIVersion is the apiVersion string of emitted objects.
	TraefikAPIVersion = TraefikGroup + "/" + TraefikVersion
)

// IngressRouteGVR locates IngressRoute objects for the dynamic client.
var IngressRouteGVR = schema.GroupVersionResource{Group: TraefikGroup, Version: TraefikVersion, Resource: "ingressroutes"}

// MiddlewareGVR locates Middleware objects for the dynamic client.
var MiddlewareGVR = schema.GroupVersionResource{Group: TraefikGroup, Version: TraefikVersion, Resource: "middlewares"}

// IngressRoute is the traefik.containo.us/v1alpha1 IngressRoute resource.
type IngressRoute struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              IngressRouteSpec `json:"spec"`
}

// IngressRouteSpec is the routing specification of one IngressRoute.
type IngressRouteSpec struct {
	EntryPoints []string       `json:"entryPoints,omitempty"`
	Routes      []TraefikRoute `json:"routes,omitempty"`
	TLS         *TraefikTLS    `json:"tls,omitempty"`
}

// TraefikRoute is one match rule and its targets.
type TraefikRoute struct {
	Kind        string                 `json:"kind"`
	Match       string                 `json:"match"`
	Services    []TraefikRouteService  `json:"services,omitempty"`
	Middlewares []TraefikMiddlewareRef `json:"middlewares,omitempty"`
}

// TraefikRouteService targets one Kubernetes Service.
type TraefikRouteService struct {
	Kind string `json:"kind,omitempty"`
	Name string `json:"name"`
	Port int    `json:"port,omitempty"`
}

// TraefikMiddlewareRef references a Middleware object by name.
type TraefikMiddlewareRef struct {
	Name string `json:"name"`
}

// TraefikTLS carries the certificate resolver reference.
type TraefikTLS struct {
	CertResolver string `json:"certResolver,omitempty"`
}

// Middleware is the traefik.containo.us/v1alpha1 Middleware resource. The
// spec is carried as an opaque map so arbitrary middleware kinds pass through
// untouched.
type Middleware struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec              map[string]any `json:"spec"`
}

// DeepCopyObject implements runtime.Object.
func (r *IngressRoute) DeepCopyObject() runtime.Object {
	if r == nil {
		return nil
	}
	out := new(IngressRoute)
	out.TypeMeta = r.TypeMeta
	r.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	if r.Spec.EntryPoints != nil {
		out.Spec.EntryPoints = append([]string(nil), r.Spec.EntryPoints...)
	}
	if r.Spec.Routes != nil {
		out.Spec.Routes = make([]TraefikRoute, len(r.Spec.Routes))
		for i, rt := range r.Spec.Routes {
			cp := rt
			cp.Services = append([]TraefikRouteService(nil), rt.Services...)
			cp.Middlewares = append([]TraefikMiddlewareRef(nil), rt.Middlewares...)
			out.Spec.Routes[i] = cp
		}
	}
	if r.Spec.TLS != nil {
		tls := *r.Spec.TLS
		out.Spec.TLS = &tls
	}
	return out
}

// DeepCopyObject implements runtime.Object.
func (m *Middleware) DeepCopyObject() runtime.Object {
	if m == nil {
		return nil
	}
	out := new(Middleware)
	out.TypeMeta = m.TypeMeta
	m.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	if m.Spec != nil {
		// Spec values built in process may be typed slices, which
		// runtime.DeepCopyJSON rejects, so copy through JSON.
		if raw, err := json.Marshal(m.Spec); err == nil {
			cp := map[string]any{}
			if json.Unmarshal(raw, &cp) == nil {
				out.Spec = cp
			}
		}
	}
	return out
}
