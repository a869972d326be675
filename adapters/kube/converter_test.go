package kube

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/greenroom-dev/greenroom/domain/model"
)

func testAppName(t *testing.T, raw string) model.AppName {
	t.Helper()
	app, err := model.NewAppName(raw)
	if err != nil {
		t.Fatalf("app name %q: %v", raw, err)
	}
	return app
}

func testUnit(t *testing.T, raw string, configs ...model.ServiceConfig) *model.DeploymentUnit {
	t.Helper()
	unit, err := model.NewDeploymentUnit(testAppName(t, raw), configs, nil)
	if err != nil {
		t.Fatalf("assemble unit: %v", err)
	}
	return unit
}

func findDeployment(objs []runtime.Object, name string) *appsv1.Deployment {
	for _, o := range objs {
		if d, ok := o.(*appsv1.Deployment); ok && d.Name == name {
			return d
		}
	}
	return nil
}

func findService(objs []runtime.Object, name string) *corev1.Service {
	for _, o := range objs {
		if s, ok := o.(*corev1.Service); ok && s.Name == name {
			return s
		}
	}
	return nil
}

func findSecret(objs []runtime.Object, name string) *corev1.Secret {
	for _, o := range objs {
		if s, ok := o.(*corev1.Secret); ok && s.Name == name {
			return s
		}
	}
	return nil
}

func findIngressRoute(objs []runtime.Object, name string) *IngressRoute {
	for _, o := range objs {
		if r, ok := o.(*IngressRoute); ok && r.Name == name {
			return r
		}
	}
	return nil
}

func findMiddleware(objs []runtime.Object, name string) *Middleware {
	for _, o := range objs {
		if m, ok := o.(*Middleware); ok && m.Name == name {
			return m
		}
	}
	return nil
}

// TestConverterBuildMasterDB walks the full object graph of a single-service
// application and checks every synthesized name, label and route target.
func TestConverterBuildMasterDB(t *testing.T) {
	unit := testUnit(t, "master", model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Port:        80,
		Type:        model.ContainerTypeInstance,
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployAlways},
	})

	objs, err := NewConverter(unit, nil).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ns, ok := objs[0].(*corev1.Namespace)
	if !ok {
		t.Fatalf("first object is %T, want Namespace", objs[0])
	}
	if ns.Name != "master" {
		t.Errorf("namespace name = %q, want master", ns.Name)
	}

	dep := findDeployment(objs, "master-db-deployment")
	if dep == nil {
		t.Fatal("deployment master-db-deployment not found")
	}
	if dep.Namespace != "master" {
		t.Errorf("deployment namespace = %q, want master", dep.Namespace)
	}
	if got := dep.Annotations[AnnotationImage]; got != "mariadb:10.3.17" {
		t.Errorf("image annotation = %q, want mariadb:10.3.17", got)
	}
	wantLabels := map[string]string{
		LabelAppName:       "master",
		LabelServiceName:   "db",
		LabelContainerType: "instance",
	}
	if !reflect.DeepEqual(dep.Labels, wantLabels) {
		t.Errorf("deployment labels = %v, want %v", dep.Labels, wantLabels)
	}
	if !reflect.DeepEqual(dep.Spec.Selector.MatchLabels, wantLabels) {
		t.Errorf("selector = %v, want %v", dep.Spec.Selector.MatchLabels, wantLabels)
	}
	if !reflect.DeepEqual(dep.Spec.Template.Labels, wantLabels) {
		t.Errorf("pod labels = %v, want %v", dep.Spec.Template.Labels, wantLabels)
	}
	if dep.Spec.Replicas == nil || *dep.Spec.Replicas != 1 {
		t.Errorf("replicas = %v, want 1", dep.Spec.Replicas)
	}
	ctn := dep.Spec.Template.Spec.Containers[0]
	if ctn.Name != "db" || ctn.Image != "mariadb:10.3.17" {
		t.Errorf("container = %s/%s, want db/mariadb:10.3.17", ctn.Name, ctn.Image)
	}
	if len(ctn.Ports) != 1 || ctn.Ports[0].ContainerPort != 80 {
		t.Errorf("container ports = %v, want [80]", ctn.Ports)
	}

	svc := findService(objs, "db")
	if svc == nil {
		t.Fatal("service db not found")
	}
	if svc.Namespace != "master" {
		t.Errorf("service namespace = %q, want master", svc.Namespace)
	}
	if len(svc.Spec.Ports) != 1 || svc.Spec.Ports[0].Port != 80 || svc.Spec.Ports[0].Name != "db" {
		t.Errorf("service ports = %v, want one named db on 80", svc.Spec.Ports)
	}
	if !reflect.DeepEqual(svc.Spec.Selector, wantLabels) {
		t.Errorf("service selector = %v, want %v", svc.Spec.Selector, wantLabels)
	}

	route := findIngressRoute(objs, "master-db-ingress-route")
	if route == nil {
		t.Fatal("ingress route master-db-ingress-route not found")
	}
	if len(route.Spec.Routes) != 1 {
		t.Fatalf("route count = %d, want 1", len(route.Spec.Routes))
	}
	rt := route.Spec.Routes[0]
	if rt.Match != "PathPrefix(`/master/db/`)" {
		t.Errorf("match = %q, want PathPrefix(`/master/db/`)", rt.Match)
	}
	if len(rt.Services) != 1 || rt.Services[0].Name != "db" || rt.Services[0].Port != 80 {
		t.Errorf("route services = %v, want db:80", rt.Services)
	}
	if len(rt.Middlewares) != 1 || rt.Middlewares[0].Name != "master-db-middleware" {
		t.Errorf("route middlewares = %v, want master-db-middleware", rt.Middlewares)
	}

	mw := findMiddleware(objs, "master-db-middleware")
	if mw == nil {
		t.Fatal("middleware master-db-middleware not found")
	}
	strip, ok := mw.Spec["stripPrefix"].(map[string]any)
	if !ok {
		t.Fatalf("middleware spec = %v, want stripPrefix", mw.Spec)
	}
	prefixes, _ := strip["prefixes"].([]string)
	if len(prefixes) != 1 || prefixes[0] != "/master/db/" {
		t.Errorf("strip prefixes = %v, want [/master/db/]", strip["prefixes"])
	}
}

// TestConverterBuildMixedCaseApp checks that object names use the normalized
// identifier while the app-name label keeps the raw form.
func TestConverterBuildMixedCaseApp(t *testing.T) {
	unit := testUnit(t, "MY-APP", model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
	})

	objs, err := NewConverter(unit, nil).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ns := objs[0].(*corev1.Namespace)
	if ns.Name != "my-app" {
		t.Errorf("namespace name = %q, want my-app", ns.Name)
	}
	if got := ns.Labels[LabelAppName]; got != "MY-APP" {
		t.Errorf("namespace app-name label = %q, want MY-APP", got)
	}

	dep := findDeployment(objs, "my-app-db-deployment")
	if dep == nil {
		t.Fatal("deployment my-app-db-deployment not found")
	}
	if got := dep.Labels[LabelAppName]; got != "MY-APP" {
		t.Errorf("deployment app-name label = %q, want MY-APP", got)
	}
}

// TestNamespacePayloadAnnotations checks operator annotations are attached
// only when present.
func TestNamespacePayloadAnnotations(t *testing.T) {
	app := testAppName(t, "master")

	ns := NamespacePayload(app, nil)
	if ns.Annotations != nil {
		t.Errorf("annotations = %v, want none", ns.Annotations)
	}
	ns = NamespacePayload(app, map[string]string{})
	if ns.Annotations != nil {
		t.Errorf("annotations = %v, want none for empty map", ns.Annotations)
	}

	ns = NamespacePayload(app, map[string]string{"field.cattle.io/projectId": "p-example"})
	if got := ns.Annotations["field.cattle.io/projectId"]; got != "p-example" {
		t.Errorf("annotation = %q, want p-example", got)
	}
}

// TestDeploymentPayloadDeterministic synthesizes the same descriptor twice
// and expects byte-identical payloads outside the always-force strategy.
func TestDeploymentPayloadDeterministic(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Port:        3306,
		Type:        model.ContainerTypeInstance,
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployNever},
		Env: model.Environment{
			{Key: "MYSQL_USER", Value: "admin"},
			{Key: "MYSQL_DATABASE", Value: "master"},
		},
		Files: map[string]string{
			"/etc/mysql/my.cnf":    "[mysqld]",
			"/etc/mysql/extra.cnf": "[client]",
		},
	}}

	a := DeploymentPayload(app, svc, nil, false, nil)
	b := DeploymentPayload(app, svc, nil, false, nil)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("payloads differ:\n%+v\n%+v", a, b)
	}
}

// TestDeploymentPayloadAlwaysForce checks the always-force strategy stamps a
// fresh timestamp annotation and changes nothing else.
func TestDeploymentPayloadAlwaysForce(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployAlways},
	}}

	before := time.Now().UTC().Add(-time.Second)
	a := DeploymentPayload(app, svc, nil, false, nil)
	b := DeploymentPayload(app, svc, nil, false, nil)

	stampA := a.Spec.Template.Annotations[AnnotationDate]
	stampB := b.Spec.Template.Annotations[AnnotationDate]
	if stampA == "" || stampB == "" {
		t.Fatalf("date annotations missing: %q, %q", stampA, stampB)
	}
	ts, err := time.Parse(time.RFC3339, stampA)
	if err != nil {
		t.Fatalf("date annotation %q not RFC3339: %v", stampA, err)
	}
	if ts.Before(before) {
		t.Errorf("date annotation %v predates synthesis", ts)
	}

	// Everything outside the forcing annotation must be identical.
	a.Spec.Template.Annotations[AnnotationDate] = ""
	b.Spec.Template.Annotations[AnnotationDate] = ""
	if !reflect.DeepEqual(a, b) {
		t.Errorf("payloads differ beyond the forcing annotation:\n%+v\n%+v", a, b)
	}
}

// TestDeploymentPayloadImageHashStrategy checks the pinned strategy writes
// the digest annotation on the pod template.
func TestDeploymentPayloadImageHashStrategy(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployOnImageUpdate, ImageHash: "sha256:fc35"},
	}}

	dep := DeploymentPayload(app, svc, nil, false, nil)
	if got := dep.Spec.Template.Annotations[AnnotationImageHash]; got != "sha256:fc35" {
		t.Errorf("imageHash annotation = %q, want sha256:fc35", got)
	}
	if _, ok := dep.Spec.Template.Annotations[AnnotationDate]; ok {
		t.Error("date annotation present under pinned strategy")
	}

	svc.Strategy = model.DeploymentStrategy{Kind: model.RedeployNever}
	dep = DeploymentPayload(app, svc, nil, false, nil)
	if dep.Spec.Template.Annotations != nil {
		t.Errorf("pod annotations = %v, want none under never strategy", dep.Spec.Template.Annotations)
	}
}

// TestFileVolumeGrouping checks the parent directory is the unit of volume
// grouping regardless of file count.
func TestFileVolumeGrouping(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployNever},
		Files: map[string]string{
			"/etc/mysql/my.cnf":     "[mysqld]",
			"/etc/mysql/extra.cnf":  "[client]",
			"/opt/app/settings.ini": "debug=false",
		},
	}}

	dep := DeploymentPayload(app, svc, nil, false, nil)
	vols := dep.Spec.Template.Spec.Volumes
	mounts := dep.Spec.Template.Spec.Containers[0].VolumeMounts
	if len(vols) != 2 || len(mounts) != 2 {
		t.Fatalf("volumes/mounts = %d/%d, want 2/2", len(vols), len(mounts))
	}

	if vols[0].Name != "etc-mysql" || mounts[0].MountPath != "/etc/mysql" {
		t.Errorf("first group = %s at %s, want etc-mysql at /etc/mysql", vols[0].Name, mounts[0].MountPath)
	}
	if vols[1].Name != "opt-app" || mounts[1].MountPath != "/opt/app" {
		t.Errorf("second group = %s at %s, want opt-app at /opt/app", vols[1].Name, mounts[1].MountPath)
	}

	sec := vols[0].Secret
	if sec == nil || sec.SecretName != "master-db-secret" {
		t.Fatalf("volume secret = %+v, want master-db-secret", vols[0].VolumeSource)
	}
	wantItems := []corev1.KeyToPath{
		{Key: "extra-cnf", Path: "extra.cnf"},
		{Key: "my-cnf", Path: "my.cnf"},
	}
	if !reflect.DeepEqual(sec.Items, wantItems) {
		t.Errorf("secret items = %v, want %v", sec.Items, wantItems)
	}
}

// TestFileSecretPayload checks secret contents are keyed by the dot-mangled
// file name.
func TestFileSecretPayload(t *testing.T) {
	app := testAppName(t, "master")

	if got := FileSecretPayload(app, model.ServiceConfig{ServiceName: "db"}); got != nil {
		t.Errorf("secret = %+v, want nil without files", got)
	}

	sec := FileSecretPayload(app, model.ServiceConfig{
		ServiceName: "db",
		Type:        model.ContainerTypeInstance,
		Files:       map[string]string{"/etc/mysql/my.cnf": "[mysqld]\nuser=mysql"},
	})
	if sec.Name != "master-db-secret" || sec.Namespace != "master" {
		t.Errorf("secret identity = %s/%s, want master/master-db-secret", sec.Namespace, sec.Name)
	}
	if sec.Type != corev1.SecretTypeOpaque {
		t.Errorf("secret type = %s, want Opaque", sec.Type)
	}
	if got := string(sec.Data["my-cnf"]); got != "[mysqld]\nuser=mysql" {
		t.Errorf("secret data my-cnf = %q", got)
	}
}

// TestPullSecretPayload checks the docker-config credential shape.
func TestPullSecretPayload(t *testing.T) {
	app := testAppName(t, "master")
	sec := PullSecretPayload(app, []model.RegistryCredential{
		{Host: "registry.example.com", Username: "ci", Password: "hunter2"},
	})

	if sec.Name != "master-image-pull-secret" {
		t.Errorf("name = %q, want master-image-pull-secret", sec.Name)
	}
	if sec.Type != corev1.SecretTypeDockerConfigJson {
		t.Errorf("type = %s, want %s", sec.Type, corev1.SecretTypeDockerConfigJson)
	}
	if sec.Immutable == nil || !*sec.Immutable {
		t.Error("pull secret not immutable")
	}

	var cfg struct {
		Auths map[string]struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"auths"`
	}
	if err := json.Unmarshal(sec.Data[corev1.DockerConfigJsonKey], &cfg); err != nil {
		t.Fatalf("decode dockerconfigjson: %v", err)
	}
	auth, ok := cfg.Auths["registry.example.com"]
	if !ok || auth.Username != "ci" || auth.Password != "hunter2" {
		t.Errorf("auths = %+v, want registry.example.com ci/hunter2", cfg.Auths)
	}
}

// TestConverterBuildPullSecretWiring checks the pull secret is emitted and
// referenced only when a registry credential matches a unit image.
func TestConverterBuildPullSecretWiring(t *testing.T) {
	unit := testUnit(t, "master", model.ServiceConfig{
		ServiceName: "web",
		Image:       "registry.example.com/acme/web:1.2",
	})

	cfg := &model.ContainerConfig{Registries: []model.RegistryCredential{
		{Host: "registry.example.com", Username: "ci", Password: "hunter2"},
	}}
	objs, err := NewConverter(unit, cfg).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if findSecret(objs, "master-image-pull-secret") == nil {
		t.Error("pull secret not emitted for matching registry")
	}
	dep := findDeployment(objs, "master-web-deployment")
	if len(dep.Spec.Template.Spec.ImagePullSecrets) != 1 || dep.Spec.Template.Spec.ImagePullSecrets[0].Name != "master-image-pull-secret" {
		t.Errorf("imagePullSecrets = %v, want master-image-pull-secret", dep.Spec.Template.Spec.ImagePullSecrets)
	}

	other := &model.ContainerConfig{Registries: []model.RegistryCredential{
		{Host: "other.example.com", Username: "ci", Password: "hunter2"},
	}}
	objs, err = NewConverter(unit, other).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if findSecret(objs, "master-image-pull-secret") != nil {
		t.Error("pull secret emitted for non-matching registry")
	}
	dep = findDeployment(objs, "master-web-deployment")
	if len(dep.Spec.Template.Spec.ImagePullSecrets) != 0 {
		t.Errorf("imagePullSecrets = %v, want none", dep.Spec.Template.Spec.ImagePullSecrets)
	}
}

// TestReplicatedEnvAnnotation checks replicated variables are summarized on
// the workload and survive a round trip.
func TestReplicatedEnvAnnotation(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployNever},
		Env: model.Environment{
			{Key: "MYSQL_ROOT_PASSWORD", Value: "example", Replicate: true},
			{Key: "MYSQL_DATABASE", Value: "master"},
		},
	}}

	dep := DeploymentPayload(app, svc, nil, false, nil)
	raw, ok := dep.Annotations[AnnotationReplicatedEnv]
	if !ok {
		t.Fatal("replicated-env annotation missing")
	}
	env, err := model.ParseReplicatedJSON(raw)
	if err != nil {
		t.Fatalf("parse replicated summary: %v", err)
	}
	if len(env) != 1 || env[0].Key != "MYSQL_ROOT_PASSWORD" || env[0].Value != "example" || !env[0].Replicate {
		t.Errorf("replicated env = %+v", env)
	}

	svc.Env = model.Environment{{Key: "MYSQL_DATABASE", Value: "master"}}
	dep = DeploymentPayload(app, svc, nil, false, nil)
	if _, ok := dep.Annotations[AnnotationReplicatedEnv]; ok {
		t.Error("replicated-env annotation present without replicated variables")
	}
}

// TestMiddlewareResolution checks inline specs are renamed through app-name
// normalization while references pass through unchanged.
func TestMiddlewareResolution(t *testing.T) {
	app := testAppName(t, "MY-APP")
	rule, err := model.ParseRouterRule("PathPrefix(`/my-app/db/`)")
	if err != nil {
		t.Fatalf("parse rule: %v", err)
	}
	svc := &model.DeployableService{
		ServiceConfig: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17", Port: 80},
		IngressRoute: model.IngressRoute{Routes: []model.Route{{
			Rule: rule,
			Middlewares: []model.Middleware{
				model.MiddlewareSpec("MY-APP-db-middleware", map[string]any{"stripPrefix": map[string]any{"prefixes": []string{"/my-app/db/"}}}),
				model.MiddlewareRef("Traefik-Internal"),
			},
		}}},
	}

	mws := MiddlewarePayloads(app, svc)
	if len(mws) != 1 {
		t.Fatalf("middleware objects = %d, want 1 (references produce none)", len(mws))
	}
	if mws[0].Name != "my-app-db-middleware" {
		t.Errorf("middleware name = %q, want my-app-db-middleware", mws[0].Name)
	}

	route := IngressRoutePayload(app, svc)
	refs := route.Spec.Routes[0].Middlewares
	if len(refs) != 2 || refs[0].Name != "my-app-db-middleware" || refs[1].Name != "Traefik-Internal" {
		t.Errorf("route middleware refs = %v", refs)
	}
}

// TestMiddlewarePayloadsDeduplicate checks one object per distinct inline
// spec across all routes.
func TestMiddlewarePayloadsDeduplicate(t *testing.T) {
	app := testAppName(t, "master")
	mw := model.MiddlewareSpec("master-db-middleware", map[string]any{"stripPrefix": map[string]any{"prefixes": []string{"/master/db/"}}})
	ruleA, _ := model.ParseRouterRule("PathPrefix(`/master/db/`)")
	ruleB, _ := model.ParseRouterRule("Host(`preview.example.com`)")
	svc := &model.DeployableService{
		ServiceConfig: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17", Port: 80},
		IngressRoute: model.IngressRoute{Routes: []model.Route{
			{Rule: ruleA, Middlewares: []model.Middleware{mw}},
			{Rule: ruleB, Middlewares: []model.Middleware{mw}},
		}},
	}

	mws := MiddlewarePayloads(app, svc)
	if len(mws) != 1 {
		t.Errorf("middleware objects = %d, want 1 across both routes", len(mws))
	}
}

// TestDeploymentPayloadBoundClaims checks externally bound volumes become
// claim-backed pod volumes named by storage type.
func TestDeploymentPayloadBoundClaims(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployNever},
		Volumes:     []string{"/var/lib/mysql"},
	}}

	claim := &corev1.PersistentVolumeClaim{}
	claim.Name = "master-db-pvc-x7f2p"
	claim.Labels = map[string]string{LabelStorageType: "mysql"}

	dep := DeploymentPayload(app, svc, nil, false, map[string]*corev1.PersistentVolumeClaim{"/var/lib/mysql": claim})
	vols := dep.Spec.Template.Spec.Volumes
	if len(vols) != 1 || vols[0].Name != "mysql-volume" {
		t.Fatalf("volumes = %v, want one mysql-volume", vols)
	}
	if vols[0].PersistentVolumeClaim == nil || vols[0].PersistentVolumeClaim.ClaimName != "master-db-pvc-x7f2p" {
		t.Errorf("claim ref = %+v, want master-db-pvc-x7f2p", vols[0].PersistentVolumeClaim)
	}
	mounts := dep.Spec.Template.Spec.Containers[0].VolumeMounts
	if len(mounts) != 1 || mounts[0].MountPath != "/var/lib/mysql" || mounts[0].Name != "mysql-volume" {
		t.Errorf("mounts = %v, want mysql-volume at /var/lib/mysql", mounts)
	}

	// Without a storage-type label the volume name falls back to default.
	claim.Labels = nil
	dep = DeploymentPayload(app, svc, nil, false, map[string]*corev1.PersistentVolumeClaim{"/var/lib/mysql": claim})
	if got := dep.Spec.Template.Spec.Volumes[0].Name; got != "default-volume" {
		t.Errorf("volume name = %q, want default-volume", got)
	}
}

// TestDeploymentPayloadMemoryLimit checks the optional memory ceiling.
func TestDeploymentPayloadMemoryLimit(t *testing.T) {
	app := testAppName(t, "master")
	svc := &model.DeployableService{ServiceConfig: model.ServiceConfig{
		ServiceName: "db",
		Image:       "mariadb:10.3.17",
		Strategy:    model.DeploymentStrategy{Kind: model.RedeployNever},
	}}

	dep := DeploymentPayload(app, svc, &model.ContainerConfig{MemoryLimit: 256 << 20}, false, nil)
	limit := dep.Spec.Template.Spec.Containers[0].Resources.Limits[corev1.ResourceMemory]
	if limit.String() != "256Mi" {
		t.Errorf("memory limit = %s, want 256Mi", limit.String())
	}

	dep = DeploymentPayload(app, svc, nil, false, nil)
	if len(dep.Spec.Template.Spec.Containers[0].Resources.Limits) != 0 {
		t.Error("memory limit set without container config")
	}
}

// TestDeploymentReplicasPayload checks the scale payload carries only
// identity, selector and replica count.
func TestDeploymentReplicasPayload(t *testing.T) {
	app := testAppName(t, "master")
	dep := DeploymentReplicasPayload(app, "db", model.ContainerTypeInstance, 0)

	if dep.Name != "master-db-deployment" || dep.Namespace != "master" {
		t.Errorf("identity = %s/%s, want master/master-db-deployment", dep.Namespace, dep.Name)
	}
	if dep.Spec.Replicas == nil || *dep.Spec.Replicas != 0 {
		t.Errorf("replicas = %v, want 0", dep.Spec.Replicas)
	}
	if len(dep.Spec.Template.Spec.Containers) != 0 {
		t.Error("scale payload carries containers")
	}
	wantLabels := map[string]string{
		LabelAppName:       "master",
		LabelServiceName:   "db",
		LabelContainerType: "instance",
	}
	if !reflect.DeepEqual(dep.Spec.Selector.MatchLabels, wantLabels) {
		t.Errorf("selector = %v, want %v", dep.Spec.Selector.MatchLabels, wantLabels)
	}
}

// TestVolumeClaimPayload checks claim requests are generated by prefix and
// labeled for lookup.
func TestVolumeClaimPayload(t *testing.T) {
	app := testAppName(t, "MY-APP")
	claim := VolumeClaimPayload(app, "db", "/var/lib/mysql", resource.MustParse("2Gi"), "fast-ssd")

	if claim.GenerateName != "my-app-db-pvc-" {
		t.Errorf("generateName = %q, want my-app-db-pvc-", claim.GenerateName)
	}
	if claim.Name != "" {
		t.Errorf("name = %q, want empty (server generated)", claim.Name)
	}
	wantLabels := map[string]string{
		LabelAppName:     "MY-APP",
		LabelServiceName: "db",
		LabelStorageType: "mysql",
	}
	if !reflect.DeepEqual(claim.Labels, wantLabels) {
		t.Errorf("labels = %v, want %v", claim.Labels, wantLabels)
	}
	if len(claim.Spec.AccessModes) != 1 || claim.Spec.AccessModes[0] != corev1.ReadWriteOnce {
		t.Errorf("access modes = %v, want [ReadWriteOnce]", claim.Spec.AccessModes)
	}
	if got := claim.Spec.Resources.Requests[corev1.ResourceStorage]; got.String() != "2Gi" {
		t.Errorf("requested storage = %s, want 2Gi", got.String())
	}
	if claim.Spec.StorageClassName == nil || *claim.Spec.StorageClassName != "fast-ssd" {
		t.Errorf("storage class = %v, want fast-ssd", claim.Spec.StorageClassName)
	}

	claim = VolumeClaimPayload(app, "db", "/var/lib/mysql", resource.MustParse("2Gi"), "")
	if claim.Spec.StorageClassName != nil {
		t.Errorf("storage class = %v, want unset", claim.Spec.StorageClassName)
	}
}

// TestIngressRoutePayloadEntryPointsAndTLS checks explicit entry points and
// the TLS resolver reference are carried through.
func TestIngressRoutePayloadEntryPointsAndTLS(t *testing.T) {
	app := testAppName(t, "master")
	rule, _ := model.ParseRouterRule("Host(`db.example.com`)")
	svc := &model.DeployableService{
		ServiceConfig: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17", Port: 3306},
		IngressRoute: model.IngressRoute{
			EntryPoints: []string{"websecure"},
			Routes:      []model.Route{{Rule: rule}},
			TLS:         &model.RouteTLS{CertResolver: "production"},
		},
	}

	route := IngressRoutePayload(app, svc)
	if !reflect.DeepEqual(route.Spec.EntryPoints, []string{"websecure"}) {
		t.Errorf("entry points = %v, want [websecure]", route.Spec.EntryPoints)
	}
	if route.Spec.TLS == nil || route.Spec.TLS.CertResolver != "production" {
		t.Errorf("tls = %+v, want resolver production", route.Spec.TLS)
	}
	if got := route.Annotations[AnnotationTraefikEntryPoints]; got != "web" {
		t.Errorf("entrypoints annotation = %q, want web", got)
	}
	if got := route.Labels[LabelServiceName]; got != "db" {
		t.Errorf("service-name label = %q, want db", got)
	}
}
