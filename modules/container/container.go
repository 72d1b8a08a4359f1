// Package container runs detached containers on the host's container
// runtime. The action is idempotent: an already-running container of the
// requested name is left alone, a stopped one is restarted, and only a
// missing one is created.
package container

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'container' action.
type Input struct {
	Name    string            `hcl:"name"`
	Image   string            `hcl:"image"`
	Env     map[string]string `hcl:"env,optional"`
	Ports   []string          `hcl:"ports,optional"`
	Volumes []string          `hcl:"volumes,optional"`
	// Args are appended after the image, as the container command.
	Args []string `hcl:"args,optional"`
	// Pull fetches the image explicitly before the run, so a slow registry
	// shows up as its own retryable step attempt rather than a run timeout.
	Pull bool `hcl:"pull,optional"`
}

// RunArgs renders the full `docker run` argument list for the input.
// Environment keys are sorted so repeated renders are identical.
func (in *Input) RunArgs() []string {
	args := []string{"run", "-d", "--name", in.Name, "--restart", "no"}

	keys := make([]string, 0, len(in.Env))
	for k := range in.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+in.Env[k])
	}
	for _, p := range in.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range in.Volumes {
		args = append(args, "-v", v)
	}

	args = append(args, in.Image)
	return append(args, in.Args...)
}

// OnRunContainer is the handler for the 'container' action.
func OnRunContainer(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx).With("container", input.Name)

	res, err := host.Exec.Run(ctx, "docker", "inspect", "--format", "{{.State.Status}}", input.Name)
	if err != nil {
		return fmt.Errorf("container: inspecting %s: %w", input.Name, err)
	}
	if res.ExitCode == 0 {
		status := strings.TrimSpace(res.Stdout)
		if status == "running" {
			logger.Info("⏭️ Container already running.")
			return nil
		}
		logger.Info("Container exists but is not running, starting it.", "status", status)
		res, err := host.Exec.Run(ctx, "docker", "start", input.Name)
		if err != nil {
			return fmt.Errorf("container: starting %s: %w", input.Name, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("container: docker start %s exited %d: %s", input.Name, res.ExitCode, res.Stderr)
		}
		return nil
	}

	if input.Pull {
		res, err := host.Exec.Run(ctx, "docker", "pull", input.Image)
		if err != nil {
			return fmt.Errorf("container: pulling %s: %w", input.Image, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("container: docker pull %s exited %d: %s", input.Image, res.ExitCode, res.Stderr)
		}
	}

	res, err = host.Exec.Run(ctx, "docker", input.RunArgs()...)
	if err != nil {
		return fmt.Errorf("container: running %s: %w", input.Name, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("container: docker run %s exited %d: %s", input.Name, res.ExitCode, res.Stderr)
	}

	logger.Info("🐳 Container started.", "image", input.Image)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("container", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunContainer(ctx, host, input.(*Input))
		},
	})
}
