package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// TestServiceConfigs converts a two-service compose file and checks the
// resulting descriptors field by field.
func TestServiceConfigs(t *testing.T) {
	content := `services:
  wordpress:
    image: wordpress:5.2.1
    ports:
      - "8080:80"
    environment:
      WORDPRESS_DB_HOST: db
  db:
    image: mariadb:10.3.17
    environment:
      MYSQL_ROOT_PASSWORD: example
      MYSQL_DATABASE: wordpress
    volumes:
      - data:/var/lib/mysql
    labels:
      dev.greenroom.replicate-env: "MYSQL_ROOT_PASSWORD"
volumes:
  data: {}
`
	configs, warnings, err := ServiceConfigs(context.Background(), content)
	if err != nil {
		t.Fatalf("ServiceConfigs() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(configs) != 2 {
		t.Fatalf("len(configs) = %d, want 2", len(configs))
	}

	db := configs[0]
	if db.ServiceName != "db" {
		t.Fatalf("configs[0] = %q, want db (name order)", db.ServiceName)
	}
	if db.Image != "mariadb:10.3.17" {
		t.Errorf("db image = %q", db.Image)
	}
	if len(db.Env) != 2 || db.Env[0].Key != "MYSQL_DATABASE" || db.Env[1].Key != "MYSQL_ROOT_PASSWORD" {
		t.Fatalf("db env = %+v, want sorted MYSQL_DATABASE, MYSQL_ROOT_PASSWORD", db.Env)
	}
	if !db.Env[1].Replicate {
		t.Error("MYSQL_ROOT_PASSWORD not marked for replication")
	}
	if db.Env[0].Replicate {
		t.Error("MYSQL_DATABASE marked for replication")
	}
	if len(db.Volumes) != 1 || db.Volumes[0] != "/var/lib/mysql" {
		t.Errorf("db volumes = %v, want [/var/lib/mysql]", db.Volumes)
	}

	wp := configs[1]
	if wp.ServiceName != "wordpress" {
		t.Fatalf("configs[1] = %q, want wordpress", wp.ServiceName)
	}
	if wp.Port != 80 {
		t.Errorf("wordpress port = %d, want container port 80", wp.Port)
	}
	if len(wp.Env) != 1 || wp.Env[0].Value != "db" {
		t.Errorf("wordpress env = %+v", wp.Env)
	}
}

// TestServiceConfigsLabelOverrides checks the container type and strategy
// override labels.
func TestServiceConfigsLabelOverrides(t *testing.T) {
	content := `services:
  backup:
    image: backup:1
    labels:
      dev.greenroom.container-type: service-companion
      dev.greenroom.deployment-strategy: redeploy-never
`
	configs, _, err := ServiceConfigs(context.Background(), content)
	if err != nil {
		t.Fatalf("ServiceConfigs() error = %v", err)
	}
	if got := configs[0].Type; got != model.ContainerTypeServiceCompanion {
		t.Errorf("Type = %q, want %q", got, model.ContainerTypeServiceCompanion)
	}
	if got := configs[0].Strategy.Kind; got != model.RedeployNever {
		t.Errorf("Strategy.Kind = %q, want %q", got, model.RedeployNever)
	}
}

// TestServiceConfigsRejectsBadLabels checks that malformed override labels
// are errors, not warnings.
func TestServiceConfigsRejectsBadLabels(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad container type",
			content: `services:
  app:
    image: nginx
    labels:
      dev.greenroom.container-type: sidecar
`,
		},
		{
			name: "bad strategy",
			content: `services:
  app:
    image: nginx
    labels:
      dev.greenroom.deployment-strategy: sometimes
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ServiceConfigs(context.Background(), tt.content)
			if !errors.Is(err, model.ErrConfigInvalid) {
				t.Fatalf("ServiceConfigs() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

// TestServiceConfigsWarnsOnUnsupported checks that compose features outside
// the descriptor subset produce warnings instead of failing the load.
func TestServiceConfigsWarnsOnUnsupported(t *testing.T) {
	content := `services:
  app:
    image: nginx
    command: ["nginx", "-g", "daemon off;"]
    restart: always
    ports:
      - "8080:80"
      - "8443:443"
    volumes:
      - ./conf:/etc/nginx/conf.d
`
	configs, warnings, err := ServiceConfigs(context.Background(), content)
	if err != nil {
		t.Fatalf("ServiceConfigs() error = %v", err)
	}
	if configs[0].Port != 80 {
		t.Errorf("port = %d, want first port 80", configs[0].Port)
	}
	if len(configs[0].Volumes) != 0 {
		t.Errorf("volumes = %v, want none for bind mount", configs[0].Volumes)
	}
	wantFragments := []string{"command", "restart", "first of 2 ports", "bind mount"}
	for _, frag := range wantFragments {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, frag) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("warnings %v missing %q", warnings, frag)
		}
	}
}

// TestServiceConfigsRequiresImage checks that a service without an image is
// rejected.
func TestServiceConfigsRequiresImage(t *testing.T) {
	content := `services:
  app:
    environment:
      FOO: bar
`
	_, _, err := ServiceConfigs(context.Background(), content)
	if !errors.Is(err, model.ErrConfigInvalid) {
		t.Fatalf("ServiceConfigs() error = %v, want ErrConfigInvalid", err)
	}
}
