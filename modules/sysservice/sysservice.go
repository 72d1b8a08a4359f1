// Package sysservice registers a background service from inside a phase,
// for units whose definition depends on values computed during
// provisioning. Plan-level `service` blocks cover the common case; this
// action covers the rest.
package sysservice

import (
	"context"
	"fmt"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/systemd"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'sysservice' action. It mirrors the
// plan's `service` block.
type Input struct {
	Name             string            `hcl:"name"`
	Description      string            `hcl:"description,optional"`
	ExecStart        string            `hcl:"exec_start"`
	ExecStop         string            `hcl:"exec_stop,optional"`
	Restart          string            `hcl:"restart,optional"`
	After            []string          `hcl:"after,optional"`
	Requires         []string          `hcl:"requires,optional"`
	RequiresPhase    string            `hcl:"requires_phase,optional"`
	Environment      map[string]string `hcl:"environment,optional"`
	WorkingDirectory string            `hcl:"working_directory,optional"`
	User             string            `hcl:"user,optional"`
}

// OnRunSysservice is the handler for the 'sysservice' action.
func OnRunSysservice(ctx context.Context, host *registry.Host, input *Input) error {
	logger := ctxlog.FromContext(ctx)

	restart := input.Restart
	if restart == "" {
		restart = "on-failure"
	}
	svc := &config.Service{
		Name:             input.Name,
		Description:      input.Description,
		ExecStart:        input.ExecStart,
		ExecStop:         input.ExecStop,
		Restart:          restart,
		After:            input.After,
		Requires:         input.Requires,
		RequiresPhase:    input.RequiresPhase,
		Environment:      input.Environment,
		WorkingDirectory: input.WorkingDirectory,
		User:             input.User,
	}

	unit := systemd.FromConfig(svc, host.MarkerPath)
	if err := host.Systemd.Register(ctx, unit); err != nil {
		return fmt.Errorf("sysservice: registering %s: %w", unit.UnitName(), err)
	}

	logger.Info("🧩 Service registered from phase.", "unit", unit.UnitName())
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("sysservice", &registry.RegisteredAction{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, host *registry.Host, input any) error {
			return OnRunSysservice(ctx, host, input.(*Input))
		},
	})
}
