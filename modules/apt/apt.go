// Package apt installs OS packages through the host's package manager.
// apt-get is already idempotent for installed packages, so re-running a
// completed phase is harmless.
package apt

import (
	"context"
	"fmt"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'apt' action.
type Input struct {
	Packages []string `hcl:"packages"`
	// Update runs `apt-get update` before the install, for fresh images
	// whose package index is stale or absent.
	Update bool `hcl:"update,optional"`
}

// OnRunApt is the handler for the 'apt' action.
func OnRunApt(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx)

	if len(input.Packages) == 0 {
		return fmt.Errorf("apt: packages list is empty")
	}

	if input.Update {
		res, err := host.Exec.Run(ctx, "apt-get", "update", "-qq")
		if err != nil {
			return fmt.Errorf("apt-get update: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("apt-get update exited %d: %s", res.ExitCode, res.Stderr)
		}
	}

	args := append([]string{"install", "-y", "-qq"}, input.Packages...)
	res, err := host.Exec.Run(ctx, "apt-get", args...)
	if err != nil {
		return fmt.Errorf("apt-get install: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("apt-get install exited %d: %s", res.ExitCode, res.Stderr)
	}

	logger.Info("📦 Packages installed.", "count", len(input.Packages))
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("apt", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunApt(ctx, host, input.(*Input))
		},
	})
}
