package greenroomcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greenroom.yml")

	content := `
version: 1
backend:
  kind: kubernetes
  settings:
    kubeconfig: ~/.kube/config
    baseRule: PathPrefix(` + "`/greenroom/`" + `)
    storageSize: 2Gi
containers:
  memoryLimit: 256Mi
  registries:
    - host: registry.example.com
      username: preview
      password: secret
  namespaceAnnotations:
    team: previews
api:
  listen: ":9000"
store:
  url: sqlite:greenroom.db
logging:
  format: human
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp yaml: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.Kind != "kubernetes" {
		t.Errorf("backend.kind = %q, want kubernetes", cfg.Backend.Kind)
	}
	if got := cfg.Backend.Settings["storageSize"]; got != "2Gi" {
		t.Errorf("backend.settings.storageSize = %q, want 2Gi", got)
	}
	if cfg.Containers.MemoryLimit != "256Mi" {
		t.Errorf("containers.memoryLimit = %q, want 256Mi", cfg.Containers.MemoryLimit)
	}
	if len(cfg.Containers.Registries) != 1 || cfg.Containers.Registries[0].Host != "registry.example.com" {
		t.Errorf("containers.registries = %+v", cfg.Containers.Registries)
	}
	if cfg.API.Listen != ":9000" {
		t.Errorf("api.listen = %q, want :9000", cfg.API.Listen)
	}
	if cfg.Store.URL != "sqlite:greenroom.db" {
		t.Errorf("store.url = %q", cfg.Store.URL)
	}
	if cfg.Logging.Format != "human" || cfg.Logging.Level != "debug" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("backend:\n  kind: docker\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("version = %d, want defaulted 1", cfg.Version)
	}
	if cfg.API.Listen != ":8000" {
		t.Errorf("api.listen = %q, want :8000", cfg.API.Listen)
	}
	if cfg.Store.URL != "memory:" {
		t.Errorf("store.url = %q, want memory:", cfg.Store.URL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("logging = %+v, want json/info", cfg.Logging)
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("backend: [")); err == nil {
		t.Fatal("Parse accepted malformed YAML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogFormat, "text")
	cfg, err := Parse([]byte("backend:\n  kind: docker\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	cfg.ApplyEnv()
	if cfg.Logging.Format != "text" {
		t.Errorf("logging.format = %q, want env override text", cfg.Logging.Format)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	if got := DefaultPath(); got != DefaultFileName {
		t.Errorf("DefaultPath() = %q, want %q", got, DefaultFileName)
	}
	t.Setenv(EnvConfig, "/etc/greenroom/config.yml")
	if got := DefaultPath(); got != "/etc/greenroom/config.yml" {
		t.Errorf("DefaultPath() = %q, want env value", got)
	}
}
