package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
)

type scriptedResponse struct {
	prefix  string
	results []hostcmd.Result
	err     error
}

// ScriptedRunner is a hostcmd.Runner for tests: responses are scripted per
// command-line prefix and every invocation is recorded. When a prefix's
// scripted results are exhausted, the last one keeps being returned, which
// makes poll-until-ready sequences easy to express.
type ScriptedRunner struct {
	mu        sync.Mutex
	Calls     []string
	responses []*scriptedResponse
}

// On scripts the results returned for command lines starting with prefix.
func (r *ScriptedRunner) On(prefix string, results ...hostcmd.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, &scriptedResponse{prefix: prefix, results: results})
}

// OnError scripts a runner-level error (command not runnable) for prefix.
func (r *ScriptedRunner) OnError(prefix string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, &scriptedResponse{prefix: prefix, err: err})
}

// Run implements hostcmd.Runner.
func (r *ScriptedRunner) Run(ctx context.Context, name string, args ...string) (hostcmd.Result, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, line)

	for _, resp := range r.responses {
		if !strings.HasPrefix(line, resp.prefix) {
			continue
		}
		if resp.err != nil {
			return hostcmd.Result{}, resp.err
		}
		if len(resp.results) == 0 {
			return hostcmd.Result{}, nil
		}
		res := resp.results[0]
		if len(resp.results) > 1 {
			resp.results = resp.results[1:]
		}
		return res, nil
	}
	// Unscripted commands succeed silently.
	return hostcmd.Result{}, nil
}

// CallsWithPrefix returns the recorded command lines starting with prefix.
func (r *ScriptedRunner) CallsWithPrefix(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range r.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
