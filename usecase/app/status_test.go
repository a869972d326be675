package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greenroom-dev/greenroom/domain/model"
)

// TestStatusCombinesJournalAndBackend checks that Status returns the journal
// row together with the backend's live view of the operation.
func TestStatusCombinesJournalAndBackend(t *testing.T) {
	app := testAppNameUC(t, "master")
	backend := &fakeBackend{
		changes: map[string][]model.Service{
			"d-1": {{AppName: app, Status: model.ServiceStatusRunning, Config: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17"}}},
		},
	}
	uc, repo := buildTestUseCase(t, backend)
	seed := &model.Deployment{
		ID:        "d-1",
		AppName:   "master",
		Operation: model.DeploymentOperationDeploy,
		State:     model.DeploymentStateRunning,
	}
	if err := repo.Create(context.Background(), seed); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	out, err := uc.Status(context.Background(), &StatusInput{AppName: "master", DeploymentID: "d-1"})
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if out.Deployment.State != model.DeploymentStateRunning {
		t.Errorf("Deployment.State = %q, want %q", out.Deployment.State, model.DeploymentStateRunning)
	}
	if len(out.Services) != 1 || out.Services[0].Name() != "db" {
		t.Errorf("Services = %+v, want single db service", out.Services)
	}
}

// TestStatusUnknownDeployment checks the not-found paths of Status.
func TestStatusUnknownDeployment(t *testing.T) {
	uc, repo := buildTestUseCase(t, &fakeBackend{})
	if err := repo.Create(context.Background(), &model.Deployment{ID: "d-1", AppName: "master"}); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	tests := []struct {
		name string
		in   *StatusInput
	}{
		{name: "unknown id", in: &StatusInput{DeploymentID: "nope"}},
		{name: "app mismatch", in: &StatusInput{AppName: "other", DeploymentID: "d-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Status(context.Background(), tt.in)
			if !errors.Is(err, model.ErrDeploymentNotFound) {
				t.Fatalf("Status() error = %v, want ErrDeploymentNotFound", err)
			}
		})
	}
}

// TestStatusRequiresDeploymentID checks input validation of Status.
func TestStatusRequiresDeploymentID(t *testing.T) {
	uc, _ := buildTestUseCase(t, &fakeBackend{})
	if _, err := uc.Status(context.Background(), &StatusInput{AppName: "master"}); !errors.Is(err, model.ErrConfigInvalid) {
		t.Fatalf("Status() error = %v, want ErrConfigInvalid", err)
	}
	if _, err := uc.Status(context.Background(), nil); !errors.Is(err, model.ErrConfigInvalid) {
		t.Fatalf("Status(nil) error = %v, want ErrConfigInvalid", err)
	}
}

// TestChangeState pauses a service through the backend and returns its new
// state.
func TestChangeState(t *testing.T) {
	app := testAppNameUC(t, "master")
	backend := &fakeBackend{
		changed: &model.Service{AppName: app, Status: model.ServiceStatusPaused, Config: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17"}},
	}
	uc, _ := buildTestUseCase(t, backend)

	out, err := uc.ChangeState(context.Background(), &ChangeStateInput{AppName: "master", ServiceName: "db", Status: "paused"})
	if err != nil {
		t.Fatalf("ChangeState() error = %v", err)
	}
	if out.Service.Status != model.ServiceStatusPaused {
		t.Errorf("Service.Status = %q, want %q", out.Service.Status, model.ServiceStatusPaused)
	}
}

// TestChangeStateNotFound checks that a nil backend answer becomes
// ErrServiceNotFound.
func TestChangeStateNotFound(t *testing.T) {
	uc, _ := buildTestUseCase(t, &fakeBackend{})
	_, err := uc.ChangeState(context.Background(), &ChangeStateInput{AppName: "master", ServiceName: "db", Status: "running"})
	if !errors.Is(err, model.ErrServiceNotFound) {
		t.Fatalf("ChangeState() error = %v, want ErrServiceNotFound", err)
	}
}

// TestChangeStateRejectsUnknownStatus checks status validation.
func TestChangeStateRejectsUnknownStatus(t *testing.T) {
	uc, _ := buildTestUseCase(t, &fakeBackend{})
	_, err := uc.ChangeState(context.Background(), &ChangeStateInput{AppName: "master", ServiceName: "db", Status: "restarting"})
	if !errors.Is(err, model.ErrConfigInvalid) {
		t.Fatalf("ChangeState() error = %v, want ErrConfigInvalid", err)
	}
}

// TestLogsDefaultsLimit checks that a zero limit is replaced by the default
// and that the since filter is passed through.
func TestLogsDefaultsLimit(t *testing.T) {
	since := time.Date(2019, 7, 18, 7, 30, 0, 0, time.UTC)
	backend := &fakeBackend{
		logLines: []model.LogLine{{Timestamp: since.Add(time.Second), Message: "ready"}},
	}
	uc, _ := buildTestUseCase(t, backend)

	out, err := uc.Logs(context.Background(), &LogsInput{AppName: "master", ServiceName: "db", Since: &since})
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if len(backend.logCalls) != 1 {
		t.Fatalf("backend log calls = %d, want 1", len(backend.logCalls))
	}
	call := backend.logCalls[0]
	if call.limit != DefaultLogLimit {
		t.Errorf("limit = %d, want %d", call.limit, DefaultLogLimit)
	}
	if call.since == nil || !call.since.Equal(since) {
		t.Errorf("since = %v, want %v", call.since, since)
	}
	if len(out.Lines) != 1 || out.Lines[0].Message != "ready" {
		t.Errorf("Lines = %+v, want single ready line", out.Lines)
	}
}

// TestLogsNilMeansUnobtainable checks that a backend without logs yields nil
// lines without an error.
func TestLogsNilMeansUnobtainable(t *testing.T) {
	uc, _ := buildTestUseCase(t, &fakeBackend{})
	out, err := uc.Logs(context.Background(), &LogsInput{AppName: "master", ServiceName: "db", Limit: 20})
	if err != nil {
		t.Fatalf("Logs() error = %v", err)
	}
	if out.Lines != nil {
		t.Errorf("Lines = %+v, want nil", out.Lines)
	}
}

// TestListFiltersCompanions checks that List hides companion containers from
// the visible configuration set.
func TestListFiltersCompanions(t *testing.T) {
	app := testAppNameUC(t, "master")
	backend := &fakeBackend{
		services: map[model.AppName][]model.Service{
			app: {
				{AppName: app, Status: model.ServiceStatusRunning, Config: model.ServiceConfig{ServiceName: "db", Image: "mariadb:10.3.17", Type: model.ContainerTypeInstance}},
				{AppName: app, Status: model.ServiceStatusRunning, Config: model.ServiceConfig{ServiceName: "db-backup", Image: "backup:1", Type: model.ContainerTypeServiceCompanion}},
			},
		},
	}
	uc, _ := buildTestUseCase(t, backend)

	out, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	configs, ok := out.Apps["master"]
	if !ok {
		t.Fatalf("Apps = %v, want master entry", out.Apps)
	}
	if len(configs) != 1 || configs[0].ServiceName != "db" {
		t.Errorf("visible configs = %+v, want only db", configs)
	}
}
