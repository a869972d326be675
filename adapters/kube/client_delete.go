package kube

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/greenroom-dev/greenroom/internal/logging"
)

// DeleteResourceTarget names one resource kind eligible for selector-based
// deletion. Deletion never runs against kinds outside the target list.
type DeleteResourceTarget struct {
	// GVR identifies the resource, e.g. {Group: "apps", Version: "v1", Resource: "deployments"}.
	GVR schema.GroupVersionResource
	// Namespaced scopes the list and delete calls to the given namespace.
	Namespaced bool
	// Kind overrides the resource name in logs and errors.
	Kind string
}

func (t DeleteResourceTarget) label() string {
	if t.Kind != "" {
		return t.Kind
	}
	return t.GVR.Resource
}

// DeleteBySelectorOptions controls DeleteByLabelSelector.
type DeleteBySelectorOptions struct {
	// Propagation selects the deletion propagation policy; empty means Background.
	Propagation metav1.DeletionPropagation
	// IgnoreErrors keeps going across kinds and items after a failure.
	IgnoreErrors bool
}

// DeleteByLabelSelector deletes every resource matching labelSelector across
// the target kinds. It returns the number of deleted resources together with
// the joined failures, so partial progress is visible to the caller.
func (c *Client) DeleteByLabelSelector(ctx context.Context, namespace string, targets []DeleteResourceTarget, labelSelector string, opts *DeleteBySelectorOptions) (int, error) {
	if opts == nil {
		opts = &DeleteBySelectorOptions{IgnoreErrors: true}
	}
	prop := opts.Propagation
	if prop == "" {
		prop = metav1.DeletePropagationBackground
	}
	dy, err := c.dynamicClient()
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	fatal := func(err error) bool {
		errs = append(errs, err)
		return !opts.IgnoreErrors
	}

	for _, t := range targets {
		ri := dynamic.ResourceInterface(dy.Resource(t.GVR))
		ns := ""
		if t.Namespaced {
			ns = namespace
			ri = dy.Resource(t.GVR).Namespace(namespace)
		}

		list, err := ri.List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
		if err != nil {
			if fatal(fmt.Errorf("list %s failed: %w", t.label(), err)) {
				return deleted, errors.Join(errs...)
			}
			continue
		}

		for i := range list.Items {
			name := list.Items[i].GetName()
			logger := logging.FromContext(ctx).With("ns", ns, "kind", t.label(), "name", name)
			if err := ri.Delete(ctx, name, metav1.DeleteOptions{PropagationPolicy: &prop}); err != nil {
				logger.Info(ctx, "KubeClient:Delete/efail", "err", err)
				if fatal(fmt.Errorf("delete %s %s failed: %w", t.label(), name, err)) {
					return deleted, errors.Join(errs...)
				}
				continue
			}
			logger.Info(ctx, "KubeClient:Delete/eok")
			deleted++
		}
	}
	return deleted, errors.Join(errs...)
}

// ServiceDeleteTargets returns the resource kinds synthesized per service.
// Used to prune services that dropped out of a redeployed unit; namespace
// deletion covers full teardown.
func ServiceDeleteTargets() []DeleteResourceTarget {
	return []DeleteResourceTarget{
		{GVR: IngressRouteGVR, Namespaced: true, Kind: "IngressRoute"},
		{GVR: MiddlewareGVR, Namespaced: true, Kind: "Middleware"},
		{GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "services"}, Namespaced: true, Kind: "Service"},
		{GVR: schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}, Namespaced: true, Kind: "Deployment"},
		{GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "secrets"}, Namespaced: true, Kind: "Secret"},
		{GVR: schema.GroupVersionResource{Group: "", Version: "v1", Resource: "persistentvolumeclaims"}, Namespaced: true, Kind: "PVC"},
	}
}
