// Package hostcmd is the single choke point through which the provisioner
// runs commands on the host. The package managers, container runtime, and
// fetch tools this system drives are all CLIs; routing every invocation
// through one small interface keeps the modules testable with a scripted
// fake instead of a live host.
package hostcmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures one command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a host command. A non-zero exit is not an error: callers
// decide what an exit code means. The returned error is reserved for the
// command failing to run at all (binary missing, context cancelled).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec is the production Runner backed by os/exec.
type Exec struct{}

var _ Runner = Exec{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, err
	}
	return res, nil
}

// CombinedOutput returns stdout and stderr joined, trimmed, for error
// messages and log matching.
func (r Result) CombinedOutput() string {
	return strings.TrimSpace(strings.Join([]string{r.Stdout, r.Stderr}, "\n"))
}
