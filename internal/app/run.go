package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/audit"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/marker"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/probe"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/sequencer"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/step"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/systemd"
)

// Run executes one provisioning pass: sequence all phases, then register
// the plan's declared services. Re-running is always safe; a fully
// provisioned machine yields a no-op pass and a nil error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	markers, err := marker.NewFileStore(a.plan.Settings.StateDir)
	if err != nil {
		return fmt.Errorf("opening marker store: %w", err)
	}

	journalW := audit.OpenRotating(a.plan.Settings.AuditLog)
	defer journalW.Close() //nolint:errcheck
	runID := uuid.NewString()
	journal := audit.New(journalW, runID)

	host := &registry.Host{
		Exec:       hostcmd.Exec{},
		HTTP:       probe.NewHTTPClient(),
		Systemd:    systemd.NewManager(a.plan.Settings.UnitDir),
		StateDir:   a.plan.Settings.StateDir,
		MarkerPath: markers.MarkerPath,
	}

	seq := sequencer.New(sequencer.Config{
		Plan:     a.plan,
		Registry: a.registry,
		Host:     host,
		Executor: step.NewExecutor(journal),
		Prober:   probe.New(),
		Markers:  markers,
		Journal:  journal,
	})

	a.logger.Info("🚀 Starting provisioning run.", "run_id", runID, "phases", len(a.plan.Phases))
	result, err := seq.Run(ctx)
	if err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}

	for _, svc := range a.plan.Services {
		unit := systemd.FromConfig(svc, markers.MarkerPath)
		if err := host.Systemd.Register(ctx, unit); err != nil {
			return fmt.Errorf("registering service %s: %w", unit.UnitName(), err)
		}
	}

	a.logger.Info("🏁 Provisioning finished.",
		"ran", len(result.Ran),
		"skipped", len(result.Skipped),
		"tolerated", len(result.Tolerated),
		"services", len(a.plan.Services),
	)
	a.logger.Debug("App.Run method finished.")
	return nil
}
