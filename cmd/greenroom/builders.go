package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	backenddrv "github.com/greenroom-dev/greenroom/adapters/drivers/backend"
	"github.com/greenroom-dev/greenroom/adapters/store/inmem"
	"github.com/greenroom-dev/greenroom/adapters/store/rdb"
	"github.com/greenroom-dev/greenroom/config/greenroomcfg"
	"github.com/greenroom-dev/greenroom/domain"
	"github.com/greenroom-dev/greenroom/usecase/app"
)

// findFlag looks up a flag anywhere in the command hierarchy.
func findFlag(cmd *cobra.Command, name string) *pflag.Flag {
	for c := cmd; c != nil; c = c.Parent() {
		if f := c.Flags().Lookup(name); f != nil {
			return f
		}
		if f := c.PersistentFlags().Lookup(name); f != nil {
			return f
		}
	}
	return nil
}

// loadConfig reads and validates the configuration file named by --config.
func loadConfig(cmd *cobra.Command) (*greenroomcfg.Root, error) {
	path := greenroomcfg.DefaultPath()
	if f := findFlag(cmd, "config"); f != nil && f.Value.String() != "" {
		path = f.Value.String()
	}
	cfg, err := greenroomcfg.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return cfg, nil
}

// buildDeploymentRepository selects the journal store from store.url.
func buildDeploymentRepository(cfg *greenroomcfg.Root) (domain.DeploymentRepository, error) {
	switch {
	case cfg.Store.URL == "memory:":
		return inmem.NewDeploymentRepository(), nil
	case strings.HasPrefix(cfg.Store.URL, "sqlite:"):
		db, err := rdb.OpenFromURL(cfg.Store.URL)
		if err != nil {
			return nil, err
		}
		if err := rdb.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate journal store: %w", err)
		}
		return rdb.NewDeploymentRepository(db), nil
	}
	return nil, fmt.Errorf("unsupported store url: %s", cfg.Store.URL)
}

// buildAppUseCase assembles the app use case from the configuration.
func buildAppUseCase(cmd *cobra.Command) (*app.UseCase, *greenroomcfg.Root, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	repo, err := buildDeploymentRepository(cfg)
	if err != nil {
		return nil, nil, err
	}
	backend, err := backenddrv.New(cfg.Backend.Kind, cfg.Backend.Settings)
	if err != nil {
		return nil, nil, err
	}
	containers, err := cfg.Containers.ContainerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("containers: %w", err)
	}
	return &app.UseCase{
		Repos:      &app.Repos{Deployment: repo},
		Backend:    backend,
		Containers: containers,
	}, cfg, nil
}
