// Package sequencer drives a provisioning plan to completion: phases run
// strictly in declared order, completed phases are skipped via the marker
// store, steps run through the retrying executor, and readiness gates block
// progression until external dependencies are usable. Re-invoking the
// sequencer is always safe; it is how both resume-after-crash and no-op
// re-provisioning work.
package sequencer

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/audit"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/marker"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/probe"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/registry"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/step"
)

// Sequencer executes the phases of one plan.
type Sequencer struct {
	plan     *config.Plan
	registry *registry.Registry
	host     *registry.Host
	executor *step.Executor
	prober   *probe.Prober
	markers  marker.Store
	journal  *audit.Journal
}

// Config wires a Sequencer. All fields are required except Journal.
type Config struct {
	Plan     *config.Plan
	Registry *registry.Registry
	Host     *registry.Host
	Executor *step.Executor
	Prober   *probe.Prober
	Markers  marker.Store
	Journal  *audit.Journal
}

// New creates a Sequencer.
func New(cfg Config) *Sequencer {
	return &Sequencer{
		plan:     cfg.Plan,
		registry: cfg.Registry,
		host:     cfg.Host,
		executor: cfg.Executor,
		prober:   cfg.Prober,
		markers:  cfg.Markers,
		journal:  cfg.Journal,
	}
}

// Result summarizes one sequencer run.
type Result struct {
	// Ran lists phases whose steps executed this run.
	Ran []string
	// Skipped lists phases already complete before this run.
	Skipped []string
	// Tolerated lists phases that finished with tolerated step failures,
	// plus phases that failed but were declared tolerate_failure.
	Tolerated []string
}

// Run executes every phase in declared order. It returns an error only on
// a fatal, non-tolerated failure; in that case the failing phase is not
// marked complete, so the next invocation retries it from its first step.
func (s *Sequencer) Run(ctx context.Context) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	var result Result

	for _, phase := range s.plan.Phases {
		phaseLogger := logger.With("phase", phase.Name)

		complete, err := s.markers.IsComplete(ctx, phase.Name)
		if err != nil {
			return result, fmt.Errorf("checking marker for phase '%s': %w", phase.Name, err)
		}
		if complete {
			phaseLogger.Info("⏭️ Phase already complete, skipping.")
			result.Skipped = append(result.Skipped, phase.Name)
			continue
		}

		// A declared dependency that is not complete at this point is a
		// plan-ordering bug (or an earlier tolerated failure), never a
		// condition to wait out.
		for _, dep := range phase.DependsOn {
			depComplete, err := s.markers.IsComplete(ctx, dep)
			if err != nil {
				return result, fmt.Errorf("checking marker for dependency '%s': %w", dep, err)
			}
			if !depComplete {
				return result, fmt.Errorf("phase '%s' depends on '%s', which is not complete", phase.Name, dep)
			}
		}

		phaseLogger.Info("▶️ Starting phase.", "steps", len(phase.Steps))
		tolerated, err := s.runPhase(ctx, phase)
		if err != nil {
			if phase.TolerateFailure {
				phaseLogger.Warn("Phase failed but is tolerated; continuing without marking it complete.", "error", err)
				s.append(audit.Entry{Phase: phase.Name, Outcome: audit.OutcomeTolerated, Detail: err.Error()})
				result.Tolerated = append(result.Tolerated, phase.Name)
				continue
			}
			phaseLogger.Error("Phase failed, aborting sequence.", "error", err)
			return result, fmt.Errorf("phase '%s': %w", phase.Name, err)
		}

		if err := s.markers.MarkComplete(ctx, phase.Name); err != nil {
			return result, fmt.Errorf("marking phase '%s' complete: %w", phase.Name, err)
		}
		phaseLogger.Info("✅ Phase complete.")
		result.Ran = append(result.Ran, phase.Name)
		if tolerated {
			result.Tolerated = append(result.Tolerated, phase.Name)
		}
	}

	return result, nil
}

// runPhase executes every step of one phase in order. It returns whether
// any step failure was tolerated, and the first fatal error.
func (s *Sequencer) runPhase(ctx context.Context, phase *config.Phase) (tolerated bool, err error) {
	logger := ctxlog.FromContext(ctx).With("phase", phase.Name)

	for _, st := range phase.Steps {
		if err := ctx.Err(); err != nil {
			return tolerated, err
		}

		stepErr := s.runStep(ctx, phase, st)
		if stepErr == nil {
			continue
		}

		if st.OnFailure == config.FailureWarn {
			logger.Warn("Step failed but is classified tolerable; phase continues.", "step", st.Name, "error", stepErr)
			s.append(audit.Entry{Phase: phase.Name, Step: st.Name, Outcome: audit.OutcomeTolerated, Detail: stepErr.Error()})
			tolerated = true
			continue
		}
		return tolerated, fmt.Errorf("step '%s': %w", st.Name, stepErr)
	}
	return tolerated, nil
}

// runStep executes one step: argument decode, retried action, readiness
// gate. Any returned error is already terminal for the step; retrying
// happened inside the executor.
func (s *Sequencer) runStep(ctx context.Context, phase *config.Phase, st *config.Step) error {
	action, ok := s.registry.Action(st.Action)
	if !ok {
		return fmt.Errorf("unknown action '%s'", st.Action)
	}

	var input any
	if action.NewInput != nil {
		input = action.NewInput()
		if st.Arguments != nil {
			if diags := gohcl.DecodeBody(st.Arguments, s.plan.EvalContext, input); diags.HasErrors() {
				return fmt.Errorf("decoding arguments: %w", diags)
			}
		}
	}

	policy := step.RetryPolicy{MaxAttempts: st.MaxAttempts, BaseDelay: st.BaseDelay}
	outcome := s.executor.Run(ctx, phase.Name, st.Name, policy, func(ctx context.Context) error {
		return action.Fn(ctx, s.host, input)
	})
	if outcome.Status != step.StatusSuccess {
		return outcome.Err
	}

	if st.WaitFor == nil {
		return nil
	}
	return s.waitForReadiness(ctx, phase.Name, st)
}

// waitForReadiness blocks until the step's readiness gate resolves. The
// sequencer suspends here and nowhere else.
func (s *Sequencer) waitForReadiness(ctx context.Context, phaseName string, st *config.Step) error {
	deps := probe.Deps{Exec: s.host.Exec, HTTP: s.host.HTTP}

	check := probe.Check{
		Target:        st.WaitFor.Target,
		Interval:      st.WaitFor.Interval,
		Timeout:       st.WaitFor.Timeout,
		ProgressEvery: st.WaitFor.ProgressEvery,
	}
	for _, c := range st.WaitFor.Checks {
		pred, err := probe.Build(c, s.plan.EvalContext, deps)
		if err != nil {
			return err
		}
		check.Predicates = append(check.Predicates, pred)
	}

	res, err := s.prober.WaitFor(ctx, check)
	if err != nil {
		return err
	}
	if res.State != probe.StateReady {
		s.append(audit.Entry{Phase: phaseName, Step: st.Name, Outcome: audit.OutcomeFailed, Detail: "readiness: " + res.State.String()})
		return fmt.Errorf("readiness check for '%s' %s after %s (%d polls): %s",
			st.WaitFor.Target, res.State, res.Elapsed, res.Polls, res.Detail)
	}
	return nil
}

func (s *Sequencer) append(entry audit.Entry) {
	if s.journal == nil {
		return
	}
	_ = s.journal.Append(entry)
}
