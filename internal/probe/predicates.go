package probe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/hostcmd"
)

// Deps carries what the built-in predicates need to observe the host.
type Deps struct {
	Exec hostcmd.Runner
	HTTP *http.Client
}

// NewHTTPClient returns the client used by http predicates: a standard
// client with one transport-level retry, since the poll loop above it
// already handles not-ready conditions.
func NewHTTPClient() *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 1
	rc.Logger = nil
	return rc.StandardClient()
}

// Build translates one `check` block of a plan into a Predicate.
func Build(check *config.Check, evalCtx *hcl.EvalContext, deps Deps) (Predicate, error) {
	decode := func(target any) error {
		if check.Arguments == nil {
			return fmt.Errorf("check %q requires an arguments block", check.Kind)
		}
		if diags := gohcl.DecodeBody(check.Arguments, evalCtx, target); diags.HasErrors() {
			return fmt.Errorf("decoding %q check arguments: %w", check.Kind, diags)
		}
		return nil
	}

	switch check.Kind {
	case "command":
		args := &struct {
			Command string   `hcl:"command"`
			Args    []string `hcl:"args,optional"`
		}{}
		if err := decode(args); err != nil {
			return nil, err
		}
		return &commandPredicate{exec: deps.Exec, command: args.Command, args: args.Args}, nil

	case "http_get":
		args := &struct {
			URL string `hcl:"url"`
		}{}
		if err := decode(args); err != nil {
			return nil, err
		}
		client := deps.HTTP
		if client == nil {
			client = NewHTTPClient()
		}
		return &httpPredicate{client: client, url: args.URL}, nil

	case "file_exists":
		args := &struct {
			Path string `hcl:"path"`
		}{}
		if err := decode(args); err != nil {
			return nil, err
		}
		return &filePredicate{path: args.Path}, nil

	case "log_match":
		args := &struct {
			Name           string `hcl:"name"`
			Pattern        string `hcl:"pattern"`
			FailurePattern string `hcl:"failure_pattern,optional"`
		}{}
		if err := decode(args); err != nil {
			return nil, err
		}
		return &logMatchPredicate{exec: deps.Exec, container: args.Name, pattern: args.Pattern, failurePattern: args.FailurePattern}, nil

	case "container_healthy":
		args := &struct {
			Name string `hcl:"name"`
		}{}
		if err := decode(args); err != nil {
			return nil, err
		}
		return &containerPredicate{exec: deps.Exec, name: args.Name}, nil

	default:
		return nil, fmt.Errorf("unknown check kind %q", check.Kind)
	}
}

// commandPredicate is ready when the command exits zero.
type commandPredicate struct {
	exec    hostcmd.Runner
	command string
	args    []string
}

func (p *commandPredicate) Name() string { return "command(" + p.command + ")" }

func (p *commandPredicate) Probe(ctx context.Context) Observation {
	res, err := p.exec.Run(ctx, p.command, p.args...)
	if err != nil {
		return Observation{Status: NotReady, Detail: err.Error()}
	}
	if res.ExitCode != 0 {
		return Observation{Status: NotReady, Detail: fmt.Sprintf("exit %d", res.ExitCode)}
	}
	return Observation{Status: Ready}
}

// httpPredicate is ready when a GET returns a non-error status.
type httpPredicate struct {
	client *http.Client
	url    string
}

func (p *httpPredicate) Name() string { return "http_get(" + p.url + ")" }

func (p *httpPredicate) Probe(ctx context.Context) Observation {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Observation{Status: Failed, Detail: err.Error()}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Observation{Status: NotReady, Detail: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		return Observation{Status: NotReady, Detail: resp.Status}
	}
	return Observation{Status: Ready}
}

// filePredicate is ready when the path exists.
type filePredicate struct {
	path string
}

func (p *filePredicate) Name() string { return "file_exists(" + p.path + ")" }

func (p *filePredicate) Probe(ctx context.Context) Observation {
	if _, err := os.Stat(p.path); err != nil {
		if os.IsNotExist(err) {
			return Observation{Status: NotReady, Detail: "missing"}
		}
		return Observation{Status: NotReady, Detail: err.Error()}
	}
	return Observation{Status: Ready}
}

// logMatchPredicate is ready when the container's logs contain pattern; it
// fails permanently when they contain failurePattern. This is the fallback
// textual signal for images whose structured health probe is unreliable.
type logMatchPredicate struct {
	exec           hostcmd.Runner
	container      string
	pattern        string
	failurePattern string
}

func (p *logMatchPredicate) Name() string { return "log_match(" + p.container + ")" }

func (p *logMatchPredicate) Probe(ctx context.Context) Observation {
	res, err := p.exec.Run(ctx, "docker", "logs", p.container)
	if err != nil {
		return Observation{Status: NotReady, Detail: err.Error()}
	}
	out := res.CombinedOutput()
	if p.failurePattern != "" && strings.Contains(out, p.failurePattern) {
		return Observation{Status: Failed, Detail: "matched failure pattern " + p.failurePattern}
	}
	if strings.Contains(out, p.pattern) {
		return Observation{Status: Ready}
	}
	return Observation{Status: NotReady, Detail: "pattern not seen yet"}
}

// containerPredicate reads the container runtime's structured health state.
// A container that exited is a permanent failure: polling cannot bring it
// back, its supervisor can.
type containerPredicate struct {
	exec hostcmd.Runner
	name string
}

func (p *containerPredicate) Name() string { return "container_healthy(" + p.name + ")" }

func (p *containerPredicate) Probe(ctx context.Context) Observation {
	res, err := p.exec.Run(ctx, "docker", "inspect", "--format",
		"{{.State.Status}} {{if .State.Health}}{{.State.Health.Status}}{{end}}", p.name)
	if err != nil {
		return Observation{Status: NotReady, Detail: err.Error()}
	}
	if res.ExitCode != 0 {
		return Observation{Status: NotReady, Detail: "container not found"}
	}

	fields := strings.Fields(res.Stdout)
	if len(fields) == 0 {
		return Observation{Status: NotReady, Detail: "no state reported"}
	}
	state := fields[0]
	health := ""
	if len(fields) > 1 {
		health = fields[1]
	}

	switch {
	case state == "exited" || state == "dead":
		return Observation{Status: Failed, Detail: "container " + state}
	case health == "healthy":
		return Observation{Status: Ready}
	case health != "":
		return Observation{Status: NotReady, Detail: "health " + health}
	case state == "running":
		return Observation{Status: Ready}
	default:
		return Observation{Status: NotReady, Detail: "state " + state}
	}
}
