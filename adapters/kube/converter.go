package kube

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// Converter holds a plan of Kubernetes objects derived from an assembled
// deployment unit.
//
// Design:
// - NewConverter constructs the plan from a unit (Plan phase).
// - BindClaims records the persistent volume claims backing declared volumes (Bind phase).
// - Build assembles the final Kubernetes objects using the plan and bound claims (Assemble phase).
//
// Every payload function is deterministic for the same inputs, except the
// redeploy-always timestamp annotation and the generated claim name suffix.
type Converter struct {
	Unit *model.DeploymentUnit
	Cfg  *model.ContainerConfig

	NSName string

	// Bound claims: service name -> declared volume path -> claim.
	claims map[string]map[string]*corev1.PersistentVolumeClaim
}

// NewConverter creates a converter bound to a deployment unit and backend
// container settings.
func NewConverter(unit *model.DeploymentUnit, cfg *model.ContainerConfig) *Converter {
	c := &Converter{Unit: unit, Cfg: cfg}
	if unit != nil {
		c.NSName = NamespaceName(unit.AppName)
	}
	return c
}

// BindClaims records the claims backing the declared volumes of one service.
// Claims are matched by label elsewhere; the converter only consumes the
// resolved objects.
func (c *Converter) BindClaims(service string, claims map[string]*corev1.PersistentVolumeClaim) {
	if len(claims) == 0 {
		return
	}
	if c.claims == nil {
		c.claims = map[string]map[string]*corev1.PersistentVolumeClaim{}
	}
	c.claims[service] = claims
}

// Build assembles the full object list of the unit in apply order: namespace,
// image pull secret, then per service its file secret, workload, endpoint,
// ingress route and middlewares.
func (c *Converter) Build() ([]runtime.Object, error) {
	if c.Unit == nil {
		return nil, fmt.Errorf("converter requires an assembled deployment unit")
	}
	app := c.Unit.AppName

	var annotations map[string]string
	if c.Cfg != nil {
		annotations = c.Cfg.NamespaceAnnotations
	}
	objs := []runtime.Object{NamespacePayload(app, annotations)}

	creds := c.Cfg.CredentialsFor(c.Unit.Images())
	usePullSecret := len(creds) > 0
	if usePullSecret {
		objs = append(objs, PullSecretPayload(app, creds))
	}

	for i := range c.Unit.Services {
		svc := &c.Unit.Services[i]
		if sec := FileSecretPayload(app, svc.ServiceConfig); sec != nil {
			objs = append(objs, sec)
		}
		objs = append(objs, DeploymentPayload(app, svc, c.Cfg, usePullSecret, c.claims[svc.ServiceName]))
		objs = append(objs, ServicePayload(app, svc.ServiceConfig))
		objs = append(objs, IngressRoutePayload(app, svc))
		for _, mw := range MiddlewarePayloads(app, svc) {
			objs = append(objs, mw)
		}
	}
	return objs, nil
}

// ObjectLabels returns the label set shared by every object synthesized for
// one service. Workload selectors use exactly this set so a workload only
// ever tracks its own pods.
func ObjectLabels(app model.AppName, service string, ctype model.ContainerType) map[string]string {
	return map[string]string{
		LabelAppName:       app.String(),
		LabelServiceName:   service,
		LabelContainerType: ctype.String(),
	}
}

// NamespacePayload returns the isolation namespace of an application. The raw
// application name is carried in a label; operator-supplied annotations are
// attached only when present.
func NamespacePayload(app model.AppName, annotations map[string]string) *corev1.Namespace {
	ns := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Namespace"},
		ObjectMeta: metav1.ObjectMeta{
			Name:   NamespaceName(app),
			Labels: map[string]string{LabelAppName: app.String()},
		},
	}
	if len(annotations) > 0 {
		ns.Annotations = annotations
	}
	return ns
}

// DeploymentPayload returns the workload of one service: a single-replica
// Deployment whose selector equals its label set. Mounted files become
// secret-backed volumes grouped by parent directory; claims maps declared
// volume paths to the persistent volume claims backing them.
func DeploymentPayload(app model.AppName, svc *model.DeployableService, cfg *model.ContainerConfig, usePullSecret bool, claims map[string]*corev1.PersistentVolumeClaim) *appsv1.Deployment {
	labels := ObjectLabels(app, svc.ServiceName, svc.Type)

	annotations := map[string]string{AnnotationImage: svc.Image}
	if rep, ok := svc.Env.ReplicatedJSON(); ok {
		annotations[AnnotationReplicatedEnv] = rep
	}

	var env []corev1.EnvVar
	for _, v := range svc.Env {
		env = append(env, corev1.EnvVar{Name: v.Key, Value: v.Value})
	}

	volumes, mounts := fileVolumes(app, svc.ServiceName, svc.Files)
	for _, declared := range svc.Volumes {
		claim, ok := claims[declared]
		if !ok {
			continue
		}
		name := claimVolumeName(claim)
		volumes = append(volumes, corev1.Volume{
			Name: name,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: claim.Name},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{Name: name, MountPath: declared})
	}

	container := corev1.Container{
		Name:            svc.ServiceName,
		Image:           svc.Image,
		ImagePullPolicy: corev1.PullAlways,
		Env:             env,
		VolumeMounts:    mounts,
		Ports:           []corev1.ContainerPort{{ContainerPort: int32(svc.Port)}},
	}
	if cfg != nil && cfg.MemoryLimit > 0 {
		container.Resources = corev1.ResourceRequirements{
			Limits: corev1.ResourceList{corev1.ResourceMemory: quantityFromBytes(cfg.MemoryLimit)},
		}
	}

	var pullSecrets []corev1.LocalObjectReference
	if usePullSecret {
		pullSecrets = []corev1.LocalObjectReference{{Name: PullSecretName(app)}}
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        DeploymentName(app, svc.ServiceName),
			Namespace:   NamespaceName(app),
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To[int32](1),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels:      labels,
					Annotations: podAnnotations(svc.Strategy),
				},
				Spec: corev1.PodSpec{
					Volumes:          volumes,
					Containers:       []corev1.Container{container},
					ImagePullSecrets: pullSecrets,
				},
			},
		},
	}
}

// DeploymentReplicasPayload returns a partial workload carrying only the
// replica count, identity and selector. Applying it scales a service without
// touching any other field.
func DeploymentReplicasPayload(app model.AppName, service string, ctype model.ContainerType, replicas int32) *appsv1.Deployment {
	labels := ObjectLabels(app, service, ctype)
	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      DeploymentName(app, service),
			Namespace: NamespaceName(app),
			Labels:    labels,
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(replicas),
			Selector: &metav1.LabelSelector{MatchLabels: labels},
		},
	}
}

// FileSecretPayload returns the secret holding every mounted file of one
// service, keyed by the dot-mangled file name, or nil when the service
// declares no files.
func FileSecretPayload(app model.AppName, svc model.ServiceConfig) *corev1.Secret {
	if len(svc.Files) == 0 {
		return nil
	}
	data := make(map[string][]byte, len(svc.Files))
	for p, content := range svc.Files {
		data[SecretNameFromFileName(p)] = []byte(content)
	}
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      FileSecretName(app, svc.ServiceName),
			Namespace: NamespaceName(app),
			Labels:    ObjectLabels(app, svc.ServiceName, svc.Type),
		},
		Type: corev1.SecretTypeOpaque,
		Data: data,
	}
}

// PullSecretPayload returns the immutable docker-config secret granting the
// application namespace access to private registries.
func PullSecretPayload(app model.AppName, creds []model.RegistryCredential) *corev1.Secret {
	auths := make(map[string]any, len(creds))
	for _, cr := range creds {
		auths[cr.Host] = map[string]any{"username": cr.Username, "password": cr.Password}
	}
	cfg, _ := json.Marshal(map[string]any{"auths": auths})
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      PullSecretName(app),
			Namespace: NamespaceName(app),
			Labels:    map[string]string{LabelAppName: app.String()},
		},
		Immutable: ptr.To(true),
		Type:      corev1.SecretTypeDockerConfigJson,
		Data:      map[string][]byte{corev1.DockerConfigJsonKey: cfg},
	}
}

// ServicePayload returns the in-namespace endpoint of one service: a single
// named port and a selector equal to the workload's label set. The bare
// service name is what makes a service reachable from its siblings.
func ServicePayload(app model.AppName, svc model.ServiceConfig) *corev1.Service {
	labels := ObjectLabels(app, svc.ServiceName, svc.Type)
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ServiceName(svc.ServiceName),
			Namespace: NamespaceName(app),
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Ports: []corev1.ServicePort{{
				Name:       svc.ServiceName,
				Port:       int32(svc.Port),
				TargetPort: intstr.FromInt(svc.Port),
			}},
			Selector: labels,
		},
	}
}

// IngressRoutePayload returns the IngressRoute aggregating every route of one
// service. Inline middlewares are referenced by their resolved names; the
// objects themselves come from MiddlewarePayloads.
func IngressRoutePayload(app model.AppName, svc *model.DeployableService) *IngressRoute {
	routes := make([]TraefikRoute, 0, len(svc.IngressRoute.Routes))
	for _, rt := range svc.IngressRoute.Routes {
		mws := make([]TraefikMiddlewareRef, 0, len(rt.Middlewares))
		for _, mw := range rt.Middlewares {
			mws = append(mws, TraefikMiddlewareRef{Name: mw.ResolvedName()})
		}
		routes = append(routes, TraefikRoute{
			Kind:        "Rule",
			Match:       rt.Rule.String(),
			Middlewares: mws,
			Services: []TraefikRouteService{{
				Kind: "Service",
				Name: ServiceName(svc.ServiceName),
				Port: svc.Port,
			}},
		})
	}

	route := &IngressRoute{
		TypeMeta: metav1.TypeMeta{APIVersion: TraefikAPIVersion, Kind: "IngressRoute"},
		ObjectMeta: metav1.ObjectMeta{
			Name:        IngressRouteName(app, svc.ServiceName),
			Namespace:   NamespaceName(app),
			Labels:      ObjectLabels(app, svc.ServiceName, svc.Type),
			Annotations: map[string]string{AnnotationTraefikEntryPoints: "web"},
		},
		Spec: IngressRouteSpec{Routes: routes},
	}
	if len(svc.IngressRoute.EntryPoints) > 0 {
		route.Spec.EntryPoints = append([]string(nil), svc.IngressRoute.EntryPoints...)
	}
	if tls := svc.IngressRoute.TLS; tls != nil {
		route.Spec.TLS = &TraefikTLS{CertResolver: tls.CertResolver}
	}
	return route
}

// MiddlewarePayloads materializes one Middleware object per distinct inline
// middleware specification across the routes of a service. References pass
// through and produce no object.
func MiddlewarePayloads(app model.AppName, svc *model.DeployableService) []*Middleware {
	var out []*Middleware
	seen := map[string]struct{}{}
	for _, rt := range svc.IngressRoute.Routes {
		for _, mw := range rt.Middlewares {
			if mw.IsRef() {
				continue
			}
			name := mw.ResolvedName()
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, &Middleware{
				TypeMeta: metav1.TypeMeta{APIVersion: TraefikAPIVersion, Kind: "Middleware"},
				ObjectMeta: metav1.ObjectMeta{
					Name:      name,
					Namespace: NamespaceName(app),
					Labels:    ObjectLabels(app, svc.ServiceName, svc.Type),
				},
				Spec: mw.Spec,
			})
		}
	}
	return out
}

// VolumeClaimPayload returns a claim request for one declared volume of a
// service. The name is generated from a deterministic prefix; existing claims
// are matched by label afterwards, never by name.
func VolumeClaimPayload(app model.AppName, service, declaredVolume string, storageSize resource.Quantity, storageClass string) *corev1.PersistentVolumeClaim {
	claim := &corev1.PersistentVolumeClaim{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: VolumeClaimPrefix(app, service),
			Namespace:    NamespaceName(app),
			Labels: map[string]string{
				LabelAppName:     app.String(),
				LabelServiceName: service,
				LabelStorageType: StorageType(declaredVolume),
			},
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: storageSize},
			},
		},
	}
	if storageClass != "" {
		claim.Spec.StorageClassName = ptr.To(storageClass)
	}
	return claim
}

// podAnnotations realizes the redeploy strategy as pod-template annotations.
// Recreation detection keys off the pod template, not the workload object.
func podAnnotations(strategy model.DeploymentStrategy) map[string]string {
	switch strategy.Kind {
	case model.RedeployOnImageUpdate:
		return map[string]string{AnnotationImageHash: strategy.ImageHash}
	case model.RedeployAlways:
		return map[string]string{AnnotationDate: time.Now().UTC().Format(time.RFC3339)}
	}
	return nil
}

// fileVolumes groups mounted files by parent directory: one secret-backed
// volume and one mount per directory regardless of file count. Groups and
// items are sorted so repeated synthesis yields identical payloads.
func fileVolumes(app model.AppName, service string, files map[string]string) ([]corev1.Volume, []corev1.VolumeMount) {
	if len(files) == 0 {
		return nil, nil
	}
	groups := map[string][]string{}
	for p := range files {
		parent := path.Dir(p)
		groups[parent] = append(groups[parent], p)
	}
	parents := make([]string, 0, len(groups))
	for parent := range groups {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	var volumes []corev1.Volume
	var mounts []corev1.VolumeMount
	for _, parent := range parents {
		paths := groups[parent]
		sort.Strings(paths)
		items := make([]corev1.KeyToPath, 0, len(paths))
		for _, p := range paths {
			items = append(items, corev1.KeyToPath{
				Key:  SecretNameFromFileName(p),
				Path: path.Base(p),
			})
		}
		name := SecretNameFromPath(parent)
		volumes = append(volumes, corev1.Volume{
			Name: name,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: FileSecretName(app, service),
					Items:      items,
				},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{Name: name, MountPath: parent})
	}
	return volumes, mounts
}

// claimVolumeName derives the pod volume name of a bound claim from its
// storage-type label.
func claimVolumeName(claim *corev1.PersistentVolumeClaim) string {
	storage := "default"
	if v, ok := claim.Labels[LabelStorageType]; ok && v != "" {
		storage = v
	}
	return storage + "-volume"
}
