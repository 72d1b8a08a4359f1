package dag

import (
	"fmt"

	"github.com/oracle-university-labs/GenAI-RAG-Sandbox-Stack/internal/config"
)

// Build constructs the phase graph of a plan and runs every structural
// validation on it. It returns the graph so callers can query dependencies,
// or an error describing the first problem found.
func Build(plan *config.Plan) (*Graph, error) {
	g := New()
	for _, phase := range plan.Phases {
		g.AddNode(phase.Name)
	}

	for _, phase := range plan.Phases {
		for _, dep := range phase.DependsOn {
			if err := g.AddEdge(dep, phase.Name); err != nil {
				return nil, fmt.Errorf("phase '%s': %w", phase.Name, err)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	if err := g.ValidateDeclaredOrder(); err != nil {
		return nil, err
	}
	return g, nil
}
