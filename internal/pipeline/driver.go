package pipeline

import (
	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/policy"
	"github.com/opalforge/adaptiveplan/internal/scoring"
	"github.com/opalforge/adaptiveplan/internal/shacl"
)

// Run drives the full Stage A → Stage B → Stage C pipeline, the single
// entry point library callers use rather
// than wiring the three stages themselves. The CLI instead exposes each
// stage as its own subcommand so a caller can inspect or replay
// an intermediate artifact; Run is for callers that only want the final
// package and report.
func Run(req *intent.CompiledRequest, g *graph.Graph, shapes, ontology string, oracle shacl.Validator, candidates []scoring.Candidate) (*Package, *DecisionReport, error) {
	stageA, err := policy.Evaluate(req, g, shapes, ontology, oracle)
	if err != nil || stageA.Status != policy.StatusOK {
		return nil, NewErrorReport(FailedStageA), nil
	}

	stageB, err := scoring.Evaluate(&req.StageB.Optimization, req.StageB.Override, candidates)
	if err != nil || stageB.Status != scoring.StatusOK {
		return nil, NewErrorReport(FailedStageB), nil
	}

	return EmitStageC(req, stageA, stageB)
}
