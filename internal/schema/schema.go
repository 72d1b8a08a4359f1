// Package schema defines the raw HCL shapes of a provisioning plan. These
// structs are what gohcl decodes plan files into before they are translated
// to the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// StepArgs represents the content of the 'arguments' block within a step or
// readiness check. It is decoded lazily, against the plan's evaluation
// context, by the action or predicate that consumes it.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Check represents a `check` block inside a `wait_for` block. The checks of
// a wait_for form a disjunction: the first one to report ready wins.
type Check struct {
	Kind      string    `hcl:"kind,label"`
	Arguments *StepArgs `hcl:"arguments,block"`
}

// WaitFor represents the readiness gate that blocks a step's completion
// until an external dependency is usable.
type WaitFor struct {
	Target        string   `hcl:"target,optional"`
	Interval      string   `hcl:"interval,optional"`
	Timeout       string   `hcl:"timeout,optional"`
	ProgressEvery int      `hcl:"progress_every,optional"`
	Checks        []*Check `hcl:"check,block"`
}

// Step represents a `step` block from a plan file: one retryable,
// side-effecting action within a phase.
type Step struct {
	Name        string    `hcl:"name,label"`
	Action      string    `hcl:"action"`
	MaxAttempts int       `hcl:"max_attempts,optional"`
	BaseDelay   string    `hcl:"base_delay,optional"`
	OnFailure   string    `hcl:"on_failure,optional"`
	Arguments   *StepArgs `hcl:"arguments,block"`
	WaitFor     *WaitFor  `hcl:"wait_for,block"`
}

// Phase represents a `phase` block: a named, ordered, idempotent unit of
// provisioning work composed of steps.
type Phase struct {
	Name            string   `hcl:"name,label"`
	DependsOn       []string `hcl:"depends_on,optional"`
	TolerateFailure bool     `hcl:"tolerate_failure,optional"`
	Steps           []*Step  `hcl:"step,block"`
}

// Service represents a `service` block: a long-running background process
// handed to the host's service supervisor, with explicit ordering and
// restart policy.
type Service struct {
	Name             string            `hcl:"name,label"`
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

// Settings represents the `settings` block: paths and defaults that apply
// to the whole plan.
type Settings struct {
	StateDir      string `hcl:"state_dir,optional"`
	AuditLog      string `hcl:"audit_log,optional"`
	UnitDir       string `hcl:"unit_dir,optional"`
	DefaultDelay  string `hcl:"default_base_delay,optional"`
	DefaultRetry  int    `hcl:"default_max_attempts,optional"`
	DefaultPolls  string `hcl:"default_interval,optional"`
	DefaultWaitTO string `hcl:"default_timeout,optional"`
}

// Variable represents a `variable` block. Variables are referenced from
// argument expressions as `var.<name>`.
type Variable struct {
	Name    string     `hcl:"name,label"`
	Default *cty.Value `hcl:"default,optional"`
}

// PlanFile represents the top-level structure of one plan file. A plan may
// be split across multiple .hcl files; the loader merges them.
type PlanFile struct {
	Settings  *Settings   `hcl:"settings,block"`
	Variables []*Variable `hcl:"variable,block"`
	Phases    []*Phase    `hcl:"phase,block"`
	Services  []*Service  `hcl:"service,block"`
	Body      hcl.Body    `hcl:",remain"`
}

// VariablesOnly is the first-pass decode target used to collect variable
// blocks before the rest of the plan is evaluated against them.
type VariablesOnly struct {
	Variables []*Variable `hcl:"variable,block"`
	Body      hcl.Body    `hcl:",remain"`
}
