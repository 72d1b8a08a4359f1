package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// FailureMode classifies what a step failure means to its phase.
type FailureMode int

const (
	// FailureFatal aborts the phase (and, unless the phase tolerates
	// failure, the whole sequence).
	FailureFatal FailureMode = iota
	// FailureWarn records the failure and lets the phase continue.
	FailureWarn
)

func (m FailureMode) String() string {
	if m == FailureWarn {
		return "warn"
	}
	return "fatal"
}

// Plan is the unified, format-agnostic representation of one provisioning
// plan: ordered phases, background services, settings, and the evaluation
// context shared by all argument expressions.
type Plan struct {
	Settings *Settings
	Phases   []*Phase
	Services []*Service

	// EvalContext resolves `var.*` references when argument bodies are
	// decoded at execution time.
	EvalContext *hcl.EvalContext
}

// Settings holds plan-wide paths and retry/readiness defaults.
type Settings struct {
	StateDir string
	AuditLog string
	UnitDir  string

	DefaultMaxAttempts int
	DefaultBaseDelay   time.Duration
	DefaultInterval    time.Duration
	DefaultTimeout     time.Duration
}

// Phase is a named, ordered, idempotent unit of provisioning work.
type Phase struct {
	Name            string
	DependsOn       []string
	TolerateFailure bool
	Steps           []*Step
}

// Step is a single retryable action within a phase.
type Step struct {
	Name        string
	Action      string
	MaxAttempts int
	BaseDelay   time.Duration
	OnFailure   FailureMode
	Arguments   hcl.Body
	WaitFor     *Wait
}

// Wait gates a step's completion on an external readiness condition.
type Wait struct {
	Target        string
	Interval      time.Duration
	Timeout       time.Duration
	ProgressEvery int
	Checks        []*Check
}

// Check is one predicate of a readiness disjunction.
type Check struct {
	Kind      string
	Arguments hcl.Body
}

// Service declares a long-running background process registered with the
// host's service supervisor after provisioning.
type Service struct {
	Name             string
	Description      string
	ExecStart        string
	ExecStop         string
	Restart          string
	After            []string
	Requires         []string
	RequiresPhase    string
	Environment      map[string]string
	WorkingDirectory string
	User             string
}

// PhaseNames returns the phase identifiers in declared order.
func (p *Plan) PhaseNames() []string {
	names := make([]string, 0, len(p.Phases))
	for _, ph := range p.Phases {
		names = append(names, ph.Name)
	}
	return names
}
