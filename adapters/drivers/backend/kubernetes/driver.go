package kubernetes

import (
	"context"
	"fmt"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/rest"

	backenddrv "github.com/greenroom-dev/greenroom/adapters/drivers/backend"
	"github.com/greenroom-dev/greenroom/adapters/kube"
	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// DriverKind is the registry name of the Kubernetes backend.
const DriverKind = "kubernetes"

// DefaultStorageSize backs declared volumes when the settings block names no
// size.
const DefaultStorageSize = "2Gi"

// driver realizes deployment units as labeled Kubernetes objects through
// server-side apply. Synthesis lives in adapters/kube; the driver sequences
// claim binding, apply, pruning and reconstruction.
type driver struct {
	model.UnimplementedBackend

	client       *kube.Client
	fieldManager string
	storageSize  resource.Quantity
	storageClass string
	baseRoute    *model.IngressRoute

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs the Kubernetes backend from its settings block. Settings:
// kubeconfig (path, empty means in-cluster), fieldManager, baseRule,
// storageSize, storageClass.
func New(ctx context.Context, settings map[string]string) (model.Backend, error) {
	var client *kube.Client
	var err error
	if path := settings["kubeconfig"]; path != "" {
		client, err = kube.NewClientFromKubeconfigPath(ctx, path, nil)
	} else {
		var cfg *rest.Config
		cfg, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("no kubeconfig setting and not in cluster: %w", err)
		}
		client, err = kube.NewClientFromRESTConfig(cfg, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("build kube client: %w", err)
	}

	size := settings["storageSize"]
	if size == "" {
		size = DefaultStorageSize
	}
	storageSize, err := resource.ParseQuantity(size)
	if err != nil {
		return nil, fmt.Errorf("parse storageSize %q: %w", size, err)
	}

	d := &driver{
		client:       client,
		fieldManager: settings["fieldManager"],
		storageSize:  storageSize,
		storageClass: settings["storageClass"],
		locks:        map[string]*sync.Mutex{},
	}
	if raw := settings["baseRule"]; raw != "" {
		rule, err := model.ParseRouterRule(raw)
		if err != nil {
			return nil, fmt.Errorf("parse baseRule: %w", err)
		}
		d.baseRoute = &model.IngressRoute{Routes: []model.Route{{Rule: rule}}}
	}
	return d, nil
}

func init() {
	backenddrv.Register(DriverKind, func(settings map[string]string) (model.Backend, error) {
		return New(context.Background(), settings)
	})
}

// appLock returns the mutex serializing deploy and stop operations of one
// application.
func (d *driver) appLock(app model.AppName) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := app.Normalize()
	l, ok := d.locks[key]
	if !ok {
		l = &sync.Mutex{}
		d.locks[key] = l
	}
	return l
}

func (d *driver) applyOptions(namespace string) *kube.ApplyOptions {
	return &kube.ApplyOptions{
		DefaultNamespace: namespace,
		FieldManager:     d.fieldManager,
		ForceConflicts:   true,
	}
}

// GetServices returns every deployed service grouped by application.
func (d *driver) GetServices(ctx context.Context) (map[model.AppName][]model.Service, error) {
	namespaces, err := d.client.ListAppNamespaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list application namespaces: %w", err)
	}
	out := map[model.AppName][]model.Service{}
	for i := range namespaces {
		services, err := d.collectServices(ctx, namespaces[i].Name)
		if err != nil {
			return nil, err
		}
		for _, s := range services {
			out[s.AppName] = append(out[s.AppName], s)
		}
	}
	return out, nil
}

// DeployServices realizes the unit: claims are ensured first, the object set
// is applied as one server-side-apply batch, services no longer in the unit
// are pruned, and the realized services are read back from the cluster.
func (d *driver) DeployServices(ctx context.Context, correlationID string, unit *model.DeploymentUnit, cfg *model.ContainerConfig) ([]model.Service, error) {
	if unit == nil || len(unit.Services) == 0 {
		return nil, fmt.Errorf("%w: deployment unit is empty", model.ErrInvariant)
	}
	lock := d.appLock(unit.AppName)
	lock.Lock()
	defer lock.Unlock()

	log := logging.FromContext(ctx)
	ns := kube.NamespaceName(unit.AppName)
	log.Infof(ctx, "KubeDriver:DeployServices/s app=%s deployment=%s services=%d", unit.AppName, correlationID, len(unit.Services))

	// The namespace must exist before claims can be created in it. Build
	// emits the namespace again; applying twice is harmless.
	var nsAnnotations map[string]string
	if cfg != nil {
		nsAnnotations = cfg.NamespaceAnnotations
	}
	nsPayload := kube.NamespacePayload(unit.AppName, nsAnnotations)
	if err := d.client.ApplyObjects(ctx, []runtime.Object{nsPayload}, d.applyOptions(ns)); err != nil {
		log.Errorf(ctx, "KubeDriver:DeployServices/efail app=%s err=%v", unit.AppName, err)
		return nil, fmt.Errorf("ensure namespace %s: %w", ns, err)
	}

	conv := kube.NewConverter(unit, cfg)
	for i := range unit.Services {
		svc := &unit.Services[i]
		if len(svc.Volumes) == 0 {
			continue
		}
		claims, err := d.ensureClaims(ctx, unit.AppName, svc)
		if err != nil {
			log.Errorf(ctx, "KubeDriver:DeployServices/efail app=%s err=%v", unit.AppName, err)
			return nil, err
		}
		conv.BindClaims(svc.ServiceName, claims)
	}

	objs, err := conv.Build()
	if err != nil {
		return nil, err
	}
	if manifest, err := kube.RenderManifest(objs); err == nil {
		log.Debugf(ctx, "KubeDriver:DeployServices app=%s manifest:\n%s", unit.AppName, manifest)
	}
	if err := d.client.ApplyObjects(ctx, objs, d.applyOptions(ns)); err != nil {
		log.Errorf(ctx, "KubeDriver:DeployServices/efail app=%s err=%v", unit.AppName, err)
		return nil, fmt.Errorf("apply %s: %w", unit.AppName, err)
	}
	if err := d.pruneRemoved(ctx, ns, unit); err != nil {
		log.Errorf(ctx, "KubeDriver:DeployServices/efail app=%s err=%v", unit.AppName, err)
		return nil, err
	}

	services, err := d.collectServices(ctx, ns)
	if err != nil {
		return nil, err
	}
	log.Infof(ctx, "KubeDriver:DeployServices/eok app=%s services=%d", unit.AppName, len(services))
	return services, nil
}

// StopServices tears down an application namespace and returns the services
// that were running in it. Only namespaces carrying the app-name label are
// ever deleted.
func (d *driver) StopServices(ctx context.Context, correlationID string, app model.AppName) ([]model.Service, error) {
	lock := d.appLock(app)
	lock.Lock()
	defer lock.Unlock()

	log := logging.FromContext(ctx)
	ns := kube.NamespaceName(app)
	log.Infof(ctx, "KubeDriver:StopServices/s app=%s deployment=%s", app, correlationID)

	existing, err := d.client.GetNamespace(ctx, ns)
	if err != nil {
		return nil, fmt.Errorf("get namespace %s: %w", ns, err)
	}
	if existing == nil || existing.Labels[kube.LabelAppName] == "" {
		return nil, fmt.Errorf("%w: %s", model.ErrAppNotFound, app)
	}

	services, err := d.collectServices(ctx, ns)
	if err != nil {
		return nil, err
	}
	if err := d.client.DeleteNamespace(ctx, ns); err != nil {
		log.Errorf(ctx, "KubeDriver:StopServices/efail app=%s err=%v", app, err)
		return nil, fmt.Errorf("delete namespace %s: %w", ns, err)
	}
	log.Infof(ctx, "KubeDriver:StopServices/eok app=%s services=%d", app, len(services))
	return services, nil
}

// ChangeStatus scales one service to zero or one replica.
func (d *driver) ChangeStatus(ctx context.Context, app model.AppName, service string, status model.ServiceStatus) (*model.Service, error) {
	ns := kube.NamespaceName(app)
	dep, err := d.client.GetServiceDeployment(ctx, ns, kube.DeploymentName(app, service))
	if err != nil {
		return nil, fmt.Errorf("get workload of %s/%s: %w", app, service, err)
	}
	if dep == nil {
		return nil, nil
	}
	svc, err := kube.ServiceFromDeployment(dep)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s/%s: %w", ns, dep.Name, err)
	}

	var replicas int32
	if status == model.ServiceStatusRunning {
		replicas = 1
	}
	payload := kube.DeploymentReplicasPayload(app, service, svc.Config.Type, replicas)
	if err := d.client.ApplyObjects(ctx, []runtime.Object{payload}, d.applyOptions(ns)); err != nil {
		return nil, fmt.Errorf("scale %s/%s: %w", app, service, err)
	}
	svc.Status = status
	return &svc, nil
}

// GetLogs reads the log lines of one service's pod.
func (d *driver) GetLogs(ctx context.Context, app model.AppName, service string, since *time.Time, limit int) ([]model.LogLine, error) {
	return d.client.PodLogs(ctx, &kube.PodLogsInput{
		Namespace:     kube.NamespaceName(app),
		LabelSelector: labels.Set{kube.LabelServiceName: service}.String(),
		Since:         since,
		Limit:         limit,
	})
}

// BaseTraefikIngressRoute returns the route configured through the baseRule
// setting, or nil.
func (d *driver) BaseTraefikIngressRoute(ctx context.Context) (*model.IngressRoute, error) {
	return d.baseRoute, nil
}

// collectServices reconstructs the services of one namespace, enriching each
// with its endpoint port and routing. Objects that fail to parse were mutated
// externally and are skipped with a warning.
func (d *driver) collectServices(ctx context.Context, namespace string) ([]model.Service, error) {
	log := logging.FromContext(ctx)

	deps, err := d.client.ListServiceDeployments(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list workloads in %s: %w", namespace, err)
	}
	endpoints, err := d.client.ListServiceEndpoints(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list endpoints in %s: %w", namespace, err)
	}
	routes, err := d.client.ListIngressRoutes(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("list ingress routes in %s: %w", namespace, err)
	}

	ports := map[string]int{}
	for i := range endpoints {
		if p, ok := kube.EndpointPort(&endpoints[i]); ok {
			ports[endpoints[i].Name] = p
		}
	}
	routing := map[string]model.IngressRoute{}
	for _, r := range routes {
		ir, err := kube.RoutingFromIngressRoute(r)
		if err != nil {
			log.Warnf(ctx, "skip ingress route %s/%s: %v", namespace, r.Name, err)
			continue
		}
		routing[r.Name] = ir
	}

	var out []model.Service
	for i := range deps {
		svc, err := kube.ServiceFromDeployment(&deps[i])
		if err != nil {
			log.Warnf(ctx, "skip workload %s/%s: %v", namespace, deps[i].Name, err)
			continue
		}
		if p, ok := ports[svc.Config.ServiceName]; ok {
			svc.Config.Port = p
		}
		if ir, ok := routing[kube.IngressRouteName(svc.AppName, svc.Config.ServiceName)]; ok {
			svc.Config.Routes = ir.Routes
		}
		out = append(out, svc)
	}
	return out, nil
}

// ensureClaims resolves the claim backing each declared volume of a service,
// creating missing ones. Claims are matched by storage-type label within the
// service's label set, never by name.
func (d *driver) ensureClaims(ctx context.Context, app model.AppName, svc *model.DeployableService) (map[string]*corev1.PersistentVolumeClaim, error) {
	ns := kube.NamespaceName(app)
	selector := labels.Set{
		kube.LabelAppName:     app.String(),
		kube.LabelServiceName: svc.ServiceName,
	}.String()
	existing, err := d.client.ListVolumeClaims(ctx, ns, selector)
	if err != nil {
		return nil, fmt.Errorf("list volume claims of %s/%s: %w", app, svc.ServiceName, err)
	}
	byType := map[string]*corev1.PersistentVolumeClaim{}
	for i := range existing {
		byType[existing[i].Labels[kube.LabelStorageType]] = &existing[i]
	}

	out := map[string]*corev1.PersistentVolumeClaim{}
	for _, declared := range svc.Volumes {
		st := kube.StorageType(declared)
		if claim, ok := byType[st]; ok {
			out[declared] = claim
			continue
		}
		created, err := d.client.CreateVolumeClaim(ctx, kube.VolumeClaimPayload(app, svc.ServiceName, declared, d.storageSize, d.storageClass))
		if err != nil {
			return nil, fmt.Errorf("create volume claim for %s/%s %s: %w", app, svc.ServiceName, declared, err)
		}
		byType[st] = created
		out[declared] = created
	}
	return out, nil
}

// pruneRemoved deletes every labeled object of services present in the
// cluster but absent from the unit.
func (d *driver) pruneRemoved(ctx context.Context, namespace string, unit *model.DeploymentUnit) error {
	deps, err := d.client.ListServiceDeployments(ctx, namespace)
	if err != nil {
		return fmt.Errorf("list workloads in %s: %w", namespace, err)
	}
	keep := make(map[string]struct{}, len(unit.Services))
	for i := range unit.Services {
		keep[unit.Services[i].ServiceName] = struct{}{}
	}
	log := logging.FromContext(ctx)
	for i := range deps {
		name := deps[i].Labels[kube.LabelServiceName]
		if name == "" {
			continue
		}
		if _, ok := keep[name]; ok {
			continue
		}
		selector := labels.Set{kube.LabelServiceName: name}.String()
		deleted, err := d.client.DeleteByLabelSelector(ctx, namespace, kube.ServiceDeleteTargets(), selector, nil)
		if err != nil {
			return fmt.Errorf("prune service %s: %w", name, err)
		}
		log.Infof(ctx, "KubeDriver:Prune app-namespace=%s service=%s objects=%d", namespace, name, deleted)
	}
	return nil
}
