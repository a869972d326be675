package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/go-connections/nat"

	"github.com/greenroom-dev/greenroom/domain/model"
	"github.com/greenroom-dev/greenroom/internal/logging"
)

// deployService brings one service container to the desired configuration.
// An existing container whose recorded hash matches is kept; the always
// strategy replaces unconditionally.
func (d *driver) deployService(ctx context.Context, app model.AppName, svc *model.DeployableService, cfg *model.ContainerConfig, current *types.Container) error {
	hash := configHash(svc)
	if current != nil {
		unchanged := current.Labels[labelConfigHash] == hash
		if unchanged && svc.Strategy.Kind != model.RedeployAlways {
			// Keep the container; restart it if it is not up anymore.
			if current.State != "running" && current.State != "paused" {
				if err := d.cli.ContainerStart(ctx, current.ID, types.ContainerStartOptions{}); err != nil {
					return fmt.Errorf("start %s/%s: %w", app, svc.ServiceName, err)
				}
			}
			return nil
		}
		if err := d.removeContainer(ctx, current.ID); err != nil {
			return fmt.Errorf("replace %s/%s: %w", app, svc.ServiceName, err)
		}
	}

	if err := d.pullImage(ctx, svc.Image, cfg); err != nil {
		return err
	}

	mounts, err := d.ensureVolumes(ctx, app, svc)
	if err != nil {
		return err
	}

	labels := identityLabels(app, svc)
	labels[labelConfigHash] = hash
	for k, v := range TraefikLabels(app, svc) {
		labels[k] = v
	}

	env := make([]string, 0, len(svc.Env))
	for _, v := range svc.Env {
		env = append(env, v.Key+"="+v.Value)
	}

	config := &container.Config{
		Image:  svc.Image,
		Env:    env,
		Labels: labels,
		ExposedPorts: nat.PortSet{
			nat.Port(fmt.Sprintf("%d/tcp", svc.Port)): struct{}{},
		},
	}
	host := &container.HostConfig{Mounts: mounts}
	if cfg != nil && cfg.MemoryLimit > 0 {
		host.Resources.Memory = cfg.MemoryLimit
	}
	networking := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			NetworkName(app): {Aliases: []string{svc.ServiceName}},
		},
	}

	created, err := d.cli.ContainerCreate(ctx, config, host, networking, nil, ContainerName(app, svc.ServiceName))
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", app, svc.ServiceName, err)
	}
	if len(svc.Files) > 0 {
		archive, err := filesArchive(svc.Files)
		if err != nil {
			return fmt.Errorf("archive files of %s/%s: %w", app, svc.ServiceName, err)
		}
		if err := d.cli.CopyToContainer(ctx, created.ID, "/", archive, types.CopyToContainerOptions{}); err != nil {
			return fmt.Errorf("copy files into %s/%s: %w", app, svc.ServiceName, err)
		}
	}
	if err := d.cli.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("start %s/%s: %w", app, svc.ServiceName, err)
	}
	return nil
}

// pullImage pulls the service image, authenticating when the backend
// configuration carries credentials for its registry.
func (d *driver) pullImage(ctx context.Context, image string, cfg *model.ContainerConfig) error {
	var opts types.ImagePullOptions
	for _, cred := range cfg.CredentialsFor([]string{image}) {
		auth, err := json.Marshal(registry.AuthConfig{
			Username:      cred.Username,
			Password:      cred.Password,
			ServerAddress: cred.Host,
		})
		if err != nil {
			return fmt.Errorf("encode registry auth: %w", err)
		}
		opts.RegistryAuth = base64.URLEncoding.EncodeToString(auth)
	}
	rc, err := d.cli.ImagePull(ctx, image, opts)
	if err != nil {
		return fmt.Errorf("pull %s: %w", image, err)
	}
	defer rc.Close()
	// The pull completes only once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull %s: %w", image, err)
	}
	return nil
}

// ensureVolumes creates the named volume behind every declared path and
// returns the mounts wiring them in.
func (d *driver) ensureVolumes(ctx context.Context, app model.AppName, svc *model.DeployableService) ([]mount.Mount, error) {
	var mounts []mount.Mount
	for _, declared := range svc.Volumes {
		name := VolumeName(app, svc.ServiceName, declared)
		_, err := d.cli.VolumeCreate(ctx, volume.CreateOptions{
			Name: name,
			Labels: map[string]string{
				labelAppName:     app.String(),
				labelServiceName: svc.ServiceName,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create volume %s: %w", name, err)
		}
		mounts = append(mounts, mount.Mount{Type: mount.TypeVolume, Source: name, Target: declared})
	}
	return mounts, nil
}

// ensureNetwork creates the application bridge network if it does not exist.
func (d *driver) ensureNetwork(ctx context.Context, app model.AppName) error {
	id, err := d.findNetwork(ctx, app)
	if err != nil {
		return err
	}
	if id != "" {
		return nil
	}
	name := NetworkName(app)
	_, err = d.cli.NetworkCreate(ctx, name, types.NetworkCreate{
		Driver: "bridge",
		Labels: map[string]string{labelAppName: app.String()},
	})
	if err != nil {
		return fmt.Errorf("create network %s: %w", name, err)
	}
	logging.FromContext(ctx).Debugf(ctx, "created network %s", name)
	return nil
}

// findNetwork returns the ID of the application network, or empty.
func (d *driver) findNetwork(ctx context.Context, app model.AppName) (string, error) {
	name := NetworkName(app)
	args := filters.NewArgs(filters.Arg("name", name))
	networks, err := d.cli.NetworkList(ctx, types.NetworkListOptions{Filters: args})
	if err != nil {
		return "", fmt.Errorf("list networks: %w", err)
	}
	for _, n := range networks {
		// The name filter matches substrings; require equality.
		if n.Name == name {
			return n.ID, nil
		}
	}
	return "", nil
}

// removeContainer stops and removes one container.
func (d *driver) removeContainer(ctx context.Context, id string) error {
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return err
	}
	return d.cli.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true})
}

// filesArchive packs mounted files into a tar stream rooted at /, with
// directory entries for every parent so extraction never depends on the
// image's filesystem layout.
func filesArchive(files map[string]string) (io.Reader, error) {
	paths := make([]string, 0, len(files))
	dirs := map[string]struct{}{}
	for p := range files {
		paths = append(paths, p)
		for dir := path.Dir(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}
	sort.Strings(paths)
	parents := make([]string, 0, len(dirs))
	for dir := range dirs {
		parents = append(parents, dir)
	}
	sort.Strings(parents)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	now := time.Now()
	for _, dir := range parents {
		hdr := &tar.Header{
			Typeflag: tar.TypeDir,
			Name:     dir[1:] + "/",
			Mode:     0o755,
			ModTime:  now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
	}
	for _, p := range paths {
		content := files[p]
		hdr := &tar.Header{
			Name:    p[1:],
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
