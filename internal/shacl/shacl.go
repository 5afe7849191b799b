// Package shacl defines the external SHACL validation collaborator as an
// opaque oracle: ValidateGraph(data, shapes, ontology) → {conforms, report}.
// Real SHACL reasoning lives outside this system; Stage A only needs
// something satisfying this interface to call at its pre- and
// post-validation gates.
package shacl

import "github.com/opalforge/adaptiveplan/internal/graph"

// Report carries the oracle's conformance verdict and, on failure, a
// human-readable explanation. Stage A never inspects Report.Messages beyond
// deciding pass/fail — any SHACL failure collapses to a
// PreconditionError regardless of the underlying reason.
type Report struct {
	Conforms bool
	Messages []string
}

// Validator is the oracle contract. Shapes and ontology are opaque to this
// package: whatever a concrete implementation needs to reason with, it
// carries internally.
type Validator interface {
	ValidateGraph(data *graph.Graph, shapes, ontology string) (Report, error)
}

// AlwaysConformant is a no-op Validator: every graph conforms unconditionally.
// It stands in for the real SHACL reasoner this system treats as an external
// collaborator — wiring a concrete reasoner is outside this
// system's scope, but the pipeline still needs something implementing
// Validator to exercise the pre- and post-validation gates.
type AlwaysConformant struct{}

func (AlwaysConformant) ValidateGraph(_ *graph.Graph, _, _ string) (Report, error) {
	return Report{Conforms: true}, nil
}
