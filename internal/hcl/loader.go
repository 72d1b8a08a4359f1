package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/ctxlog"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/fsutil"
	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL plan loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under path (or path itself, if it is a file),
// resolves plan variables, and translates the merged result into the
// format-agnostic plan model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering plan files under %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl plan files found under %s", path)
	}
	logger.Debug("Discovered plan files.", "count", len(files))

	parser := hclparse.NewParser()
	bodies := make([]hcl.Body, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing plan file %s: %w", file, diags)
		}
		bodies = append(bodies, hclFile.Body)
	}

	// First pass: collect variable blocks so everything else can be
	// evaluated against them.
	evalCtx, err := l.buildEvalContext(bodies)
	if err != nil {
		return nil, err
	}

	// Second pass: decode the full plan structure with variables in scope.
	merged := &schema.PlanFile{}
	for i, body := range bodies {
		var root schema.PlanFile
		if diags := gohcl.DecodeBody(body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding plan file %s: %w", files[i], diags)
		}
		if root.Settings != nil {
			if merged.Settings != nil {
				return nil, fmt.Errorf("duplicate settings block in %s", files[i])
			}
			merged.Settings = root.Settings
		}
		merged.Phases = append(merged.Phases, root.Phases...)
		merged.Services = append(merged.Services, root.Services...)
	}

	plan, err := l.translate(merged, evalCtx)
	if err != nil {
		return nil, err
	}

	logger.Debug("Plan loaded.", "phases", len(plan.Phases), "services", len(plan.Services))
	return plan, nil
}

// buildEvalContext decodes the variable blocks of all plan files and
// returns an evaluation context exposing them as `var.<name>`.
func (l *Loader) buildEvalContext(bodies []hcl.Body) (*hcl.EvalContext, error) {
	vars := make(map[string]cty.Value)
	for _, body := range bodies {
		var root schema.VariablesOnly
		if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("decoding plan variables: %w", diags)
		}
		for _, v := range root.Variables {
			if _, exists := vars[v.Name]; exists {
				return nil, fmt.Errorf("variable %q declared more than once", v.Name)
			}
			if v.Default == nil {
				return nil, fmt.Errorf("variable %q has no default value", v.Name)
			}
			vars[v.Name] = *v.Default
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vars),
		},
	}, nil
}
