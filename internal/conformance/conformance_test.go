package conformance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/pipeline"
	"github.com/opalforge/adaptiveplan/internal/shacl"
	"github.com/opalforge/adaptiveplan/internal/term"
)

func TestNoImplicitSemanticsRejectsForbiddenPredicate(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{
		Subject:   "urn:a",
		Predicate: "https://adaptiveplan.dev/ns#inheritsStyleFrom",
		Object:    term.ObjIRI("urn:b"),
	})
	err := NoImplicitSemantics(g)
	require.Error(t, err)
	var preErr *pipeline.PreconditionError
	assert.ErrorAs(t, err, &preErr)
}

func TestNoImplicitSemanticsPassesOnCleanGraph(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	assert.NoError(t, NoImplicitSemantics(g))
}

func TestDefaultsMaterializedRequiresStrokeWidth(t *testing.T) {
	strokeClass := term.IRI("urn:Stroke")
	strokeWidthPred := term.IRI("urn:strokeWidth")
	gridClass := term.IRI("urn:BaselineGrid")
	stepPred := term.IRI("urn:baselineStep")

	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:stroke1", Predicate: graph.PredType, Object: term.ObjIRI(strokeClass)})
	err := DefaultsMaterialized(g, strokeClass, strokeWidthPred, gridClass, stepPred)
	require.Error(t, err)

	g.Add(graph.Triple{Subject: "urn:stroke1", Predicate: strokeWidthPred, Object: term.ObjLiteral(term.Literal{Lexical: "1"})})
	assert.NoError(t, DefaultsMaterialized(g, strokeClass, strokeWidthPred, gridClass, stepPred))
}

func TestNFCRejectsNonNormalizedTerm(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "é"})})
	require.Error(t, NFC(g))
}

func TestCanonicalSerializationMatchesDetectsDivergence(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	err := CanonicalSerializationMatches(g, []byte("not the real serialization"))
	require.Error(t, err)
}

func TestValidationContractAggregatesAllChecks(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	results := ValidationContract(ContractInput{Graph: g}, shacl.AlwaysConformant{})
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Name)
	}
}

func TestValidationContractRunsExpectationChecksWhenSupplied(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	in := ContractInput{
		Graph:              g,
		ExpectedCanonical:  []byte("wrong"),
		Composition:        term.IRI("urn:a"),
		ExpectedScopedHash: "deadbeef",
	}
	results := ValidationContract(in, shacl.AlwaysConformant{})
	require.Len(t, results, 6)
	byName := map[string]error{}
	for _, r := range results {
		byName[r.Name] = r.Err
	}
	assert.Error(t, byName["canonicalSerialization"])
	assert.Error(t, byName["scopedHash"])
	assert.NoError(t, byName["defaultsMaterialized"])
}

func TestValidationContractReportsMissingDefault(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:stroke1", Predicate: graph.PredType, Object: term.ObjIRI(graph.ClassStroke)})
	results := ValidationContract(ContractInput{Graph: g}, shacl.AlwaysConformant{})
	for _, r := range results {
		if r.Name == "defaultsMaterialized" {
			require.Error(t, r.Err)
			return
		}
	}
	t.Fatal("defaultsMaterialized check was not run")
}
