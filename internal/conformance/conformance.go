// Package conformance implements the orthogonal procedural checks run over
// graph artifacts: no implicit semantics, materialized defaults, NFC/blank-node/
// canonical-serialization/scoped-hash checks, and the combined validation
// contract. Checks report recoverable results a harness can collect and
// print rather than panicking on violation.
package conformance

import (
	"fmt"

	"github.com/opalforge/adaptiveplan/internal/canon"
	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/pipeline"
	"github.com/opalforge/adaptiveplan/internal/shacl"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// implicitProperties are the properties forbidden from appearing
// anywhere in a conformant graph.
var implicitProperties = []string{
	"inheritsStyleFrom", "implicitGridSnap", "implicitZOrder", "implicitGroupDefault",
}

// CheckResult is one named procedural check's outcome.
type CheckResult struct {
	Name string
	Err  error // nil iff the check passed
}

// NoImplicitSemantics asserts none of the forbidden implicit
// properties appear as a predicate anywhere in g.
func NoImplicitSemantics(g *graph.Graph) error {
	forbidden := map[string]bool{}
	for _, local := range implicitProperties {
		forbidden[local] = true
	}
	for _, t := range g.Triples() {
		if local := localName(string(t.Predicate)); forbidden[local] {
			return &pipeline.PreconditionError{Reason: fmt.Sprintf("forbidden implicit property %q present on %s", local, t.Subject)}
		}
	}
	return nil
}

func localName(iri string) string {
	for i := len(iri) - 1; i >= 0; i-- {
		switch iri[i] {
		case '#', '/':
			return iri[i+1:]
		}
	}
	return iri
}

// DefaultsMaterialized asserts every node typed Stroke has strokeWidth, and
// every node typed BaselineGrid has baselineStep.
func DefaultsMaterialized(g *graph.Graph, strokeClass, strokeWidthPred, baselineGridClass, baselineStepPred term.IRI) error {
	subjects := map[term.IRI]bool{}
	for _, t := range g.ByPredicate(graph.PredType) {
		subjects[t.Subject] = true
	}
	for s := range subjects {
		if g.HasType(s, strokeClass) && len(g.ObjectsOf(s, strokeWidthPred)) == 0 {
			return &pipeline.PreconditionError{Reason: fmt.Sprintf("Stroke %s is missing required default strokeWidth", s)}
		}
		if g.HasType(s, baselineGridClass) && len(g.ObjectsOf(s, baselineStepPred)) == 0 {
			return &pipeline.PreconditionError{Reason: fmt.Sprintf("BaselineGrid %s is missing required default baselineStep", s)}
		}
	}
	return nil
}

// NFC asserts g is NFC-normalized and blank-node-free — a thin wrapper over
// canon.Validate under the procedural check's name.
func NFC(g *graph.Graph) error {
	return canon.Validate(g)
}

// CanonicalSerializationMatches asserts g's canonical serialization equals
// the fixture bytes exactly.
func CanonicalSerializationMatches(g *graph.Graph, fixture []byte) error {
	got, err := canon.Serialize(g)
	if err != nil {
		return err
	}
	if string(got) != string(fixture) {
		return &pipeline.PreconditionError{Reason: "canonical serialization does not match fixture"}
	}
	return nil
}

// ScopedHashMatches asserts the scoped hash for composition equals expected.
func ScopedHashMatches(g *graph.Graph, composition term.IRI, expected string) error {
	got, err := canon.ScopedHash(g, composition)
	if err != nil {
		return err
	}
	if got != expected {
		return &pipeline.PreconditionError{Reason: fmt.Sprintf("scoped hash %s does not match expected %s", got, expected)}
	}
	return nil
}

// ContractInput carries everything the combined validation contract needs:
// the graph, the SHACL inputs, and the fixture-supplied expectations for the
// serialization and hash checks. The two expectation-driven checks are
// skipped when their expectation is absent, since there is nothing to
// compare against.
type ContractInput struct {
	Graph              *graph.Graph
	Shapes             string
	Ontology           string
	ExpectedCanonical  []byte   // canonical-serialization check, skipped if nil
	Composition        term.IRI // scoped-hash subject
	ExpectedScopedHash string   // scoped-hash check, skipped if ""
}

// ValidationContract runs every structural check above plus a SHACL
// conformance call: no implicit semantics, materialized defaults, NFC, and,
// when the input supplies expectations, canonical-serialization and
// scoped-hash matching.
func ValidationContract(in ContractInput, oracle shacl.Validator) []CheckResult {
	g := in.Graph
	results := []CheckResult{
		{Name: "noImplicitSemantics", Err: NoImplicitSemantics(g)},
		{Name: "defaultsMaterialized", Err: DefaultsMaterialized(g, graph.ClassStroke, graph.PredStrokeWidth, graph.ClassBaselineGrid, graph.PredBaselineStep)},
		{Name: "nfc", Err: NFC(g)},
	}
	if in.ExpectedCanonical != nil {
		results = append(results, CheckResult{Name: "canonicalSerialization", Err: CanonicalSerializationMatches(g, in.ExpectedCanonical)})
	}
	if in.ExpectedScopedHash != "" {
		results = append(results, CheckResult{Name: "scopedHash", Err: ScopedHashMatches(g, in.Composition, in.ExpectedScopedHash)})
	}
	report, err := oracle.ValidateGraph(g, in.Shapes, in.Ontology)
	switch {
	case err != nil:
		results = append(results, CheckResult{Name: "shacl", Err: err})
	case !report.Conforms:
		results = append(results, CheckResult{Name: "shacl", Err: &pipeline.PreconditionError{Reason: "SHACL graph does not conform"}})
	default:
		results = append(results, CheckResult{Name: "shacl", Err: nil})
	}
	return results
}
