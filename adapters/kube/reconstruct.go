package kube

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// Reconstruction of the domain model from stored cluster objects. These
// conversions are partial: the source objects may have been mutated
// externally, so malformed input is a recoverable parse error here, not an
// invariant violation.

// ServiceFromDeployment reconstructs a realized service from its workload
// object: identity from labels, image and replicated environment from
// annotations, run state from the ready replica count.
func ServiceFromDeployment(dep *appsv1.Deployment) (model.Service, error) {
	rawApp, ok := dep.Labels[LabelAppName]
	if !ok || rawApp == "" {
		return model.Service{}, fmt.Errorf("deployment %s/%s carries no %s label", dep.Namespace, dep.Name, LabelAppName)
	}
	app, err := model.NewAppName(rawApp)
	if err != nil {
		return model.Service{}, fmt.Errorf("deployment %s/%s: %w", dep.Namespace, dep.Name, err)
	}
	name, ok := dep.Labels[LabelServiceName]
	if !ok || name == "" {
		return model.Service{}, fmt.Errorf("deployment %s/%s carries no %s label", dep.Namespace, dep.Name, LabelServiceName)
	}
	ctype, err := model.ParseContainerType(dep.Labels[LabelContainerType])
	if err != nil {
		return model.Service{}, fmt.Errorf("deployment %s/%s: %w", dep.Namespace, dep.Name, err)
	}

	cfg := model.ServiceConfig{
		ServiceName: name,
		Image:       dep.Annotations[AnnotationImage],
		Type:        ctype,
	}
	if rep, ok := dep.Annotations[AnnotationReplicatedEnv]; ok && rep != "" {
		env, err := model.ParseReplicatedJSON(rep)
		if err != nil {
			return model.Service{}, fmt.Errorf("deployment %s/%s: %w", dep.Namespace, dep.Name, err)
		}
		cfg.Env = env
	}

	status := model.ServiceStatusPaused
	if dep.Status.ReadyReplicas > 0 {
		status = model.ServiceStatusRunning
	}

	return model.Service{
		ID:      string(dep.UID),
		AppName: app,
		Status:  status,
		Config:  cfg,
	}, nil
}

// EndpointPort returns the exposed port of a reconstructed service endpoint.
func EndpointPort(svc *corev1.Service) (int, bool) {
	if svc == nil || len(svc.Spec.Ports) == 0 {
		return 0, false
	}
	return int(svc.Spec.Ports[0].Port), true
}

// RoutingFromIngressRoute parses a stored IngressRoute object back into the
// routing model: each match rule is re-parsed by the rule parser, middleware
// entries reduce to references, the TLS resolver is copied through. An object
// declaring zero routes or an unparsable match rule is rejected.
func RoutingFromIngressRoute(obj *IngressRoute) (model.IngressRoute, error) {
	if obj == nil || len(obj.Spec.Routes) == 0 {
		return model.IngressRoute{}, fmt.Errorf("ingress route %s declares no routes", objName(obj))
	}
	out := model.IngressRoute{}
	if len(obj.Spec.EntryPoints) > 0 {
		out.EntryPoints = append([]string(nil), obj.Spec.EntryPoints...)
	}
	for _, rt := range obj.Spec.Routes {
		rule, err := model.ParseRouterRule(rt.Match)
		if err != nil {
			return model.IngressRoute{}, fmt.Errorf("ingress route %s: %w", obj.Name, err)
		}
		var mws []model.Middleware
		for _, mw := range rt.Middlewares {
			mws = append(mws, model.MiddlewareRef(mw.Name))
		}
		out.Routes = append(out.Routes, model.Route{Rule: rule, Middlewares: mws})
	}
	if obj.Spec.TLS != nil {
		out.TLS = &model.RouteTLS{CertResolver: obj.Spec.TLS.CertResolver}
	}
	return out, nil
}

// IngressRouteFromUnstructured converts a dynamic-client object into the
// typed IngressRoute.
func IngressRouteFromUnstructured(u *unstructured.Unstructured) (*IngressRoute, error) {
	var route IngressRoute
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, &route); err != nil {
		return nil, fmt.Errorf("convert ingress route %s: %w", u.GetName(), err)
	}
	return &route, nil
}

func objName(obj *IngressRoute) string {
	if obj == nil {
		return "<nil>"
	}
	return obj.Name
}
