package hcl

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/schema"
)

// Fallbacks applied when neither the step nor the settings block says
// otherwise.
const (
	fallbackMaxAttempts = 3
	fallbackBaseDelay   = 2 * time.Second
	fallbackInterval    = 2 * time.Second
	fallbackTimeout     = 5 * time.Minute
	fallbackProgress    = 10
)

// translate converts the merged HCL schema into the agnostic plan model,
// applying defaults and validating enumerations and references.
func (l *Loader) translate(root *schema.PlanFile, evalCtx *hcl.EvalContext) (*config.Plan, error) {
	settings, err := l.translateSettings(root.Settings)
	if err != nil {
		return nil, err
	}

	plan := &config.Plan{
		Settings:    settings,
		EvalContext: evalCtx,
	}

	seenPhases := make(map[string]struct{})
	for _, p := range root.Phases {
		if _, dup := seenPhases[p.Name]; dup {
			return nil, fmt.Errorf("phase %q declared more than once", p.Name)
		}
		seenPhases[p.Name] = struct{}{}

		phase, err := l.translatePhase(p, settings)
		if err != nil {
			return nil, err
		}
		plan.Phases = append(plan.Phases, phase)
	}

	seenServices := make(map[string]struct{})
	for _, s := range root.Services {
		if _, dup := seenServices[s.Name]; dup {
			return nil, fmt.Errorf("service %q declared more than once", s.Name)
		}
		seenServices[s.Name] = struct{}{}

		svc, err := l.translateService(s, seenPhases)
		if err != nil {
			return nil, err
		}
		plan.Services = append(plan.Services, svc)
	}

	return plan, nil
}

func (l *Loader) translateSettings(s *schema.Settings) (*config.Settings, error) {
	out := &config.Settings{
		StateDir:           "/var/lib/genai-sandbox",
		AuditLog:           "/var/log/genai-sandbox/audit.jsonl",
		UnitDir:            "/etc/systemd/system",
		DefaultMaxAttempts: fallbackMaxAttempts,
		DefaultBaseDelay:   fallbackBaseDelay,
		DefaultInterval:    fallbackInterval,
		DefaultTimeout:     fallbackTimeout,
	}
	if s == nil {
		return out, nil
	}

	if s.StateDir != "" {
		out.StateDir = s.StateDir
	}
	if s.AuditLog != "" {
		out.AuditLog = s.AuditLog
	}
	if s.UnitDir != "" {
		out.UnitDir = s.UnitDir
	}
	if s.DefaultRetry > 0 {
		out.DefaultMaxAttempts = s.DefaultRetry
	}

	var err error
	if out.DefaultBaseDelay, err = parseDuration("settings.default_base_delay", s.DefaultDelay, out.DefaultBaseDelay); err != nil {
		return nil, err
	}
	if out.DefaultInterval, err = parseDuration("settings.default_interval", s.DefaultPolls, out.DefaultInterval); err != nil {
		return nil, err
	}
	if out.DefaultTimeout, err = parseDuration("settings.default_timeout", s.DefaultWaitTO, out.DefaultTimeout); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) translatePhase(p *schema.Phase, settings *config.Settings) (*config.Phase, error) {
	phase := &config.Phase{
		Name:            p.Name,
		DependsOn:       p.DependsOn,
		TolerateFailure: p.TolerateFailure,
	}

	seen := make(map[string]struct{})
	for _, s := range p.Steps {
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("phase %q: step %q declared more than once", p.Name, s.Name)
		}
		seen[s.Name] = struct{}{}

		step, err := l.translateStep(p.Name, s, settings)
		if err != nil {
			return nil, err
		}
		phase.Steps = append(phase.Steps, step)
	}
	return phase, nil
}

func (l *Loader) translateStep(phaseName string, s *schema.Step, settings *config.Settings) (*config.Step, error) {
	step := &config.Step{
		Name:        s.Name,
		Action:      s.Action,
		MaxAttempts: settings.DefaultMaxAttempts,
	}
	if s.Action == "" {
		return nil, fmt.Errorf("phase %q, step %q: action is required", phaseName, s.Name)
	}
	if s.MaxAttempts < 0 {
		return nil, fmt.Errorf("phase %q, step %q: max_attempts must be positive", phaseName, s.Name)
	}
	if s.MaxAttempts > 0 {
		step.MaxAttempts = s.MaxAttempts
	}

	var err error
	if step.BaseDelay, err = parseDuration(fmt.Sprintf("phase %q, step %q: base_delay", phaseName, s.Name), s.BaseDelay, settings.DefaultBaseDelay); err != nil {
		return nil, err
	}

	switch s.OnFailure {
	case "", "fatal":
		step.OnFailure = config.FailureFatal
	case "warn":
		step.OnFailure = config.FailureWarn
	default:
		return nil, fmt.Errorf("phase %q, step %q: invalid on_failure %q (must be 'fatal' or 'warn')", phaseName, s.Name, s.OnFailure)
	}

	if s.Arguments != nil {
		step.Arguments = s.Arguments.Body
	}

	if s.WaitFor != nil {
		wait, err := l.translateWait(phaseName, s.Name, s.WaitFor, settings)
		if err != nil {
			return nil, err
		}
		step.WaitFor = wait
	}
	return step, nil
}

func (l *Loader) translateWait(phaseName, stepName string, w *schema.WaitFor, settings *config.Settings) (*config.Wait, error) {
	if len(w.Checks) == 0 {
		return nil, fmt.Errorf("phase %q, step %q: wait_for requires at least one check block", phaseName, stepName)
	}

	wait := &config.Wait{
		Target:        w.Target,
		ProgressEvery: w.ProgressEvery,
	}
	if wait.Target == "" {
		wait.Target = stepName
	}
	if wait.ProgressEvery <= 0 {
		wait.ProgressEvery = fallbackProgress
	}

	var err error
	if wait.Interval, err = parseDuration(fmt.Sprintf("phase %q, step %q: wait_for.interval", phaseName, stepName), w.Interval, settings.DefaultInterval); err != nil {
		return nil, err
	}
	if wait.Timeout, err = parseDuration(fmt.Sprintf("phase %q, step %q: wait_for.timeout", phaseName, stepName), w.Timeout, settings.DefaultTimeout); err != nil {
		return nil, err
	}

	for _, c := range w.Checks {
		check := &config.Check{Kind: c.Kind}
		if c.Arguments != nil {
			check.Arguments = c.Arguments.Body
		}
		wait.Checks = append(wait.Checks, check)
	}
	return wait, nil
}

func (l *Loader) translateService(s *schema.Service, phases map[string]struct{}) (*config.Service, error) {
	switch s.Restart {
	case "", "no", "on-failure", "always":
	default:
		return nil, fmt.Errorf("service %q: invalid restart policy %q (must be 'no', 'on-failure', or 'always')", s.Name, s.Restart)
	}
	if s.RequiresPhase != "" {
		if _, ok := phases[s.RequiresPhase]; !ok {
			return nil, fmt.Errorf("service %q: requires_phase references unknown phase %q", s.Name, s.RequiresPhase)
		}
	}

	restart := s.Restart
	if restart == "" {
		restart = "on-failure"
	}

	return &config.Service{
		Name:             s.Name,
		Description:      s.Description,
		ExecStart:        s.ExecStart,
		ExecStop:         s.ExecStop,
		Restart:          restart,
		After:            s.After,
		Requires:         s.Requires,
		RequiresPhase:    s.RequiresPhase,
		Environment:      s.Environment,
		WorkingDirectory: s.WorkingDirectory,
		User:             s.User,
	}, nil
}

// parseDuration parses an optional duration attribute, falling back to the
// given default when the attribute is empty.
func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: duration must be positive, got %q", field, raw)
	}
	return d, nil
}
