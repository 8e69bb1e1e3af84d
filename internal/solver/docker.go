package solver

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const containerWorkDir = "/offsim"

// DockerRunner runs the programs in a container where the working directory
// of the simulation is bind-mounted.
type DockerRunner struct {
	Image       string
	Interpreter string
	Dir         string
	Output      io.Writer

	cli *client.Client
}

func NewDockerRunner(image, interpreter, dir string) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to docker")
	}
	return &DockerRunner{Image: image, Interpreter: interpreter, Dir: dir, Output: os.Stdout, cli: cli}, nil
}

func (r *DockerRunner) hasImage(ctx context.Context) bool {
	list, err := r.cli.ImageList(ctx, types.ImageListOptions{Filters: filters.NewArgs(filters.Arg("reference", r.Image))})
	if err != nil {
		log.Warnf("Image list error: %v", err)
		return false
	}
	return len(list) > 0
}

func (r *DockerRunner) pull(ctx context.Context) {
	if r.hasImage(ctx) {
		return
	}
	log.Infof("Pulling image: %s", r.Image)
	pullResp, err := r.cli.ImagePull(ctx, r.Image, types.ImagePullOptions{})
	if err != nil {
		// a stale local copy may still work
		log.Warnf("Could not pull image %s: %v", r.Image, err)
		return
	}
	defer pullResp.Close()
	io.Copy(ioutil.Discard, pullResp)
}

func (r *DockerRunner) Run(ctx context.Context, program string, args ...string) error {
	r.pull(ctx)

	dir, err := filepath.Abs(r.Dir)
	if err != nil {
		return err
	}
	cmd := append([]string{r.Interpreter, program}, args...)
	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:      r.Image,
		Cmd:        cmd,
		WorkingDir: containerWorkDir,
		Tty:        false,
	}, &container.HostConfig{Binds: []string{dir + ":" + containerWorkDir}}, nil, nil, "")
	if err != nil {
		return errors.Wrapf(err, "could not create container for %s", program)
	}
	// force removes the container even if still running
	defer r.cli.ContainerRemove(context.Background(), resp.ID, types.ContainerRemoveOptions{Force: true})

	if err := r.cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return errors.Wrapf(err, "could not start container for %s", program)
	}

	statusCh, errCh := r.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "waiting for %s", program)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := r.cli.ContainerLogs(ctx, resp.ID, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err == nil {
		stdcopy.StdCopy(r.Output, r.Output, logs)
		logs.Close()
	}

	if exitCode != 0 {
		return errors.Wrapf(ProgramFailedErr, "%s exited with code %d", program, exitCode)
	}
	return nil
}
