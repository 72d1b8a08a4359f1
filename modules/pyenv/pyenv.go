// Package pyenv installs and activates a Python runtime version through the
// pyenv version manager.
package pyenv

import (
	"context"
	"fmt"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'pyenv' action.
type Input struct {
	Version string `hcl:"version"`
	// Global makes the installed version the machine-wide default.
	Global bool `hcl:"global,optional"`
}

// OnRunPyenv is the handler for the 'pyenv' action. The -s flag makes the
// install a no-op when the version is already present, which keeps phase
// re-runs cheap.
func OnRunPyenv(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx)

	res, err := host.Exec.Run(ctx, "pyenv", "install", "-s", input.Version)
	if err != nil {
		return fmt.Errorf("pyenv install: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("pyenv install %s exited %d: %s", input.Version, res.ExitCode, res.Stderr)
	}

	if input.Global {
		res, err := host.Exec.Run(ctx, "pyenv", "global", input.Version)
		if err != nil {
			return fmt.Errorf("pyenv global: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("pyenv global %s exited %d: %s", input.Version, res.ExitCode, res.Stderr)
		}
	}

	logger.Info("🐍 Python runtime ready.", "version", input.Version, "global", input.Global)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("pyenv", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunPyenv(ctx, host, input.(*Input))
		},
	})
}
