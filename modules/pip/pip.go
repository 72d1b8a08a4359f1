// Package pip installs pinned Python libraries. Every package carries an
// exact version so repeated provisioning converges on the same environment.
package pip

import (
	"context"
	"fmt"
	"sort"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'pip' action.
type Input struct {
	// Packages maps package name to an exact version.
	Packages map[string]string `hcl:"packages"`
	// Binary overrides the pip executable, e.g. a virtualenv's pip.
	Binary string `hcl:"binary,optional"`
	// Requirements optionally installs from a requirements file as well.
	Requirements string `hcl:"requirements,optional"`
}

// Pins returns the sorted name==version install arguments.
func (in *Input) Pins() []string {
	names := make([]string, 0, len(in.Packages))
	for name := range in.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	pins := make([]string, 0, len(names))
	for _, name := range names {
		pins = append(pins, name+"=="+in.Packages[name])
	}
	return pins
}

// OnRunPip is the handler for the 'pip' action.
func OnRunPip(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx)

	binary := input.Binary
	if binary == "" {
		binary = "pip3"
	}
	if len(input.Packages) == 0 && input.Requirements == "" {
		return fmt.Errorf("pip: neither packages nor requirements given")
	}

	if len(input.Packages) > 0 {
		args := append([]string{"install", "--no-input"}, input.Pins()...)
		res, err := host.Exec.Run(ctx, binary, args...)
		if err != nil {
			return fmt.Errorf("pip install: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("pip install exited %d: %s", res.ExitCode, res.Stderr)
		}
	}

	if input.Requirements != "" {
		res, err := host.Exec.Run(ctx, binary, "install", "--no-input", "-r", input.Requirements)
		if err != nil {
			return fmt.Errorf("pip install -r: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("pip install -r %s exited %d: %s", input.Requirements, res.ExitCode, res.Stderr)
		}
	}

	logger.Info("🐍 Python libraries installed.", "pinned", len(input.Packages))
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("pip", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunPip(ctx, host, input.(*Input))
		},
	})
}
