// Package shell runs an arbitrary host command. It is the escape hatch for
// one-off provisioning work (filesystem growth, firewall rules) that does
// not warrant a dedicated action.
package shell

import (
	"context"
	"fmt"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'shell' action.
type Input struct {
	Command string   `hcl:"command"`
	Args    []string `hcl:"args,optional"`
}

// OnRunShell is the handler for the 'shell' action.
func OnRunShell(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx)

	res, err := host.Exec.Run(ctx, input.Command, input.Args...)
	if err != nil {
		return fmt.Errorf("shell: running %s: %w", input.Command, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("shell: %s exited %d: %s", input.Command, res.ExitCode, res.CombinedOutput())
	}

	logger.Debug("Shell command finished.", "command", input.Command)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("shell", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunShell(ctx, host, input.(*Input))
		},
	})
}
