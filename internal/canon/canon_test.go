package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/term"
)

func sampleGraph() *graph.Graph {
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:b", Predicate: graph.PredPriority, Object: term.ObjLiteral(term.Literal{Lexical: "1"})})
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	return g
}

func TestSerializeIsDeterministicAndSorted(t *testing.T) {
	g := sampleGraph()
	out, err := Serialize(g)
	require.NoError(t, err)

	lines := []string{
		NTriplesLine(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})}),
		NTriplesLine(graph.Triple{Subject: "urn:b", Predicate: graph.PredPriority, Object: term.ObjLiteral(term.Literal{Lexical: "1"})}),
	}
	assert.Equal(t, lines[0]+lines[1], string(out))
}

func TestSerializeIdempotent(t *testing.T) {
	g := sampleGraph()
	first, err := Serialize(g)
	require.NoError(t, err)
	triples, err := graph.ParseTurtle(string(first))
	require.NoError(t, err)
	second, err := Serialize(graph.FromTriples(triples))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateRejectsBlankNode(t *testing.T) {
	g := graph.New()
	g.Add(graph.Triple{Subject: term.IRI(graph.BlankPrefix + "b0"), Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	err := Validate(g)
	require.Error(t, err)
	var bnErr *BlankNodeError
	assert.ErrorAs(t, err, &bnErr)
}

func TestValidateRejectsNonNFC(t *testing.T) {
	// "é" (e + combining acute) is valid NFD but not NFC.
	notNFC := "é"
	g := graph.New()
	g.Add(graph.Triple{Subject: "urn:a", Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: notNFC})})
	err := Validate(g)
	require.Error(t, err)
	var nfcErr *NotNFCError
	assert.ErrorAs(t, err, &nfcErr)
}

func TestHashIsStableForEqualBytes(t *testing.T) {
	a := Hash([]byte("payload"))
	b := Hash([]byte("payload"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Hash([]byte("different")))
}

func TestScopedSubgraphSingleHopOnly(t *testing.T) {
	g := graph.New()
	comp := term.IRI("urn:comp")
	owned := term.IRI("urn:owned")
	grandchild := term.IRI("urn:grandchild")

	g.Add(graph.Triple{Subject: owned, Predicate: graph.PredOwnedBy, Object: term.ObjIRI(comp)})
	g.Add(graph.Triple{Subject: grandchild, Predicate: graph.PredOwnedBy, Object: term.ObjIRI(owned)})
	g.Add(graph.Triple{Subject: comp, Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})
	g.Add(graph.Triple{Subject: grandchild, Predicate: graph.PredEnabled, Object: term.ObjLiteral(term.Literal{Lexical: "true"})})

	sub := ScopedSubgraph(g, comp)
	subjects := map[term.IRI]bool{}
	for _, tr := range sub.Triples() {
		subjects[tr.Subject] = true
	}
	assert.True(t, subjects[comp])
	assert.True(t, subjects[owned])
	assert.False(t, subjects[grandchild], "ownership is single-hop, grandchild must not be pulled in")
}

func TestScopedHashMatchesManualSerialize(t *testing.T) {
	g := sampleGraph()
	comp := term.IRI("urn:a")
	h1, err := ScopedHash(g, comp)
	require.NoError(t, err)

	sub := ScopedSubgraph(g, comp)
	bytes, err := Serialize(sub)
	require.NoError(t, err)
	assert.Equal(t, Hash(bytes), h1)
}
