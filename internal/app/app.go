package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/dag"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	plan     *config.Plan
	registry *registry.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup failures (unreadable plan, invalid phase graph) are programmer or
// operator errors and panic; the entrypoint recovers them into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	plan, err := loader.Load(ctx, appConfig.PlanPath)
	if err != nil {
		panic(fmt.Errorf("failed to load plan: %w", err))
	}
	logger.Debug("Plan loaded and translated into unified model.")

	// CLI flags win over the plan's settings block.
	if appConfig.StateDir != "" {
		plan.Settings.StateDir = appConfig.StateDir
	}
	if appConfig.AuditLog != "" {
		plan.Settings.AuditLog = appConfig.AuditLog
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All action modules registered.", "count", len(modules))

	// Validate the phase graph up front: cycles, unknown references, and
	// forward dependencies are all plan-authoring errors.
	if _, err := dag.Build(plan); err != nil {
		panic(fmt.Errorf("invalid phase graph: %w", err))
	}
	logger.Debug("Phase graph validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		plan:     plan,
		registry: reg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Plan returns the loaded plan. This is primarily for testing.
func (a *App) Plan() *config.Plan {
	return a.plan
}
