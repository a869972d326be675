package kube

import (
	"context"
	"encoding/json"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"

	"github.com/greenroom-dev/greenroom/internal/logging"
)

// ApplyOptions configures server-side apply.
type ApplyOptions struct {
	// DefaultNamespace fills in metadata.namespace for namespaced resources
	// that omit it.
	DefaultNamespace string
	// FieldManager names the apply manager; empty means "greenroom".
	FieldManager string
	// ForceConflicts takes ownership of fields held by other managers.
	ForceConflicts bool
}

// applier resolves kinds against live discovery data and submits apply
// patches through the dynamic client.
type applier struct {
	dyn    dynamic.Interface
	mapper meta.RESTMapper
	opts   ApplyOptions
}

func (c *Client) newApplier(opts *ApplyOptions) (*applier, error) {
	a := &applier{}
	if opts != nil {
		a.opts = *opts
	}
	if a.opts.FieldManager == "" {
		a.opts.FieldManager = "greenroom"
	}
	var err error
	if a.dyn, err = c.dynamicClient(); err != nil {
		return nil, err
	}
	dc, err := discovery.NewDiscoveryClientForConfig(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("create discovery client: %w", err)
	}
	a.mapper = restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(dc))
	return a, nil
}

// ApplyObjects server-side applies each object in order. Objects without an
// apiVersion or kind are skipped; the first failure aborts the batch.
func (c *Client) ApplyObjects(ctx context.Context, objs []runtime.Object, opts *ApplyOptions) (err error) {
	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:ApplyObjects"
	logger.Info(ctx, msgSym+"/s")
	applied := 0
	defer func() {
		if err != nil {
			logger.Info(ctx, msgSym+"/efail", "applied", applied, "err", err)
			return
		}
		logger.Info(ctx, msgSym+"/eok", "applied", applied)
	}()

	a, err := c.newApplier(opts)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		ok, err := a.apply(ctx, obj)
		if err != nil {
			return err
		}
		if ok {
			applied++
		}
	}
	return nil
}

// apply submits one object as an apply patch. The bool reports whether a
// patch was actually sent.
func (a *applier) apply(ctx context.Context, obj runtime.Object) (bool, error) {
	raw, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return false, fmt.Errorf("to unstructured: %w", err)
	}
	u := &unstructured.Unstructured{Object: raw}
	if u.GetAPIVersion() == "" || u.GetKind() == "" {
		return false, nil
	}

	gvk := schema.FromAPIVersionAndKind(u.GetAPIVersion(), u.GetKind())
	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return false, fmt.Errorf("rest mapping %s: %w", gvk.String(), err)
	}
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace && u.GetNamespace() == "" {
		ns := a.opts.DefaultNamespace
		if ns == "" {
			ns = "default"
		}
		u.SetNamespace(ns)
	}
	if u.GetName() == "" {
		return false, fmt.Errorf("object %s missing metadata.name", gvk.String())
	}

	body, err := json.Marshal(u.Object)
	if err != nil {
		return false, fmt.Errorf("marshal %s/%s: %w", u.GetKind(), u.GetName(), err)
	}

	var ri dynamic.ResourceInterface = a.dyn.Resource(mapping.Resource)
	if ns := u.GetNamespace(); ns != "" {
		ri = a.dyn.Resource(mapping.Resource).Namespace(ns)
	}

	logger := logging.FromContext(ctx).With("ns", u.GetNamespace(), "kind", u.GetKind(), "name", u.GetName())
	_, err = ri.Patch(ctx, u.GetName(), types.ApplyPatchType, body, metav1.PatchOptions{
		FieldManager: a.opts.FieldManager,
		Force:        &a.opts.ForceConflicts,
	})
	if err != nil {
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return false, fmt.Errorf("apply %s %s: %w", u.GetKind(), u.GetName(), err)
	}
	logger.Info(ctx, "KubeClient:Apply/eok")
	return true, nil
}
