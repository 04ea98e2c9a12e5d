package sandbox

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"go.uber.org/zap"
)

// DockerAPI is the part of the docker client used by Preflight.
type DockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageInspect(ctx context.Context, imageID string, opts ...client.ImageInspectOption) (image.InspectResponse, error)
}

var _ DockerAPI = (*client.Client)(nil)

// Preflight checks that the docker daemon is reachable and the sandbox
// image is present, so a broken host fails at startup instead of on the
// first request.
func Preflight(ctx context.Context, api DockerAPI, policy Policy, logger *zap.Logger) error {
	if policy.Mode != ModeDocker {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ping, err := api.Ping(ctx)
	if err != nil {
		return fmt.Errorf("connecting to docker daemon: %w", err)
	}
	img, err := api.ImageInspect(ctx, policy.Image)
	if err != nil {
		return fmt.Errorf("inspecting sandbox image %q: %w", policy.Image, err)
	}
	logger.Info("docker preflight passed",
		zap.String("api_version", ping.APIVersion),
		zap.String("image", policy.Image),
		zap.String("image_id", img.ID),
	)
	return nil
}

// NewDockerClient connects to the daemon configured in the environment
// (DOCKER_HOST and friends).
func NewDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return cli, nil
}
