// Package graph implements the immutable triple store at the base of the
// pipeline: typed terms, triple storage with add/remove/iterate, and the
// Turtle reader used to load policy graphs. Canonical serialization and
// hashing live in package canon, one layer up; graph primitives carry no
// canonicalization knowledge.
package graph

import (
	"sort"

	"github.com/opalforge/adaptiveplan/internal/term"
)

// BlankPrefix marks an IRI-shaped string as standing in for a blank node
// produced by the Turtle reader (e.g. "_:b0"). Real IRIs never start with
// this prefix; the canonicalizer rejects any term carrying it.
const BlankPrefix = "_:"

// Triple is a single (subject, predicate, object) fact.
type Triple struct {
	Subject   term.IRI
	Predicate term.IRI
	Object    term.Object
}

// IsBlank reports whether any position of t is a blank-node placeholder.
func (t Triple) IsBlank() bool {
	if isBlankIRI(t.Subject) || isBlankIRI(t.Predicate) {
		return true
	}
	if t.Object.IsIRI {
		return isBlankIRI(t.Object.IRIVal)
	}
	return false
}

func isBlankIRI(v term.IRI) bool {
	return len(v) >= len(BlankPrefix) && string(v[:len(BlankPrefix)]) == BlankPrefix
}

// Graph is an immutable-by-convention triple store: callers that need to
// mutate (Stage A's delta application) work against a Clone. Triples are
// kept in a single slice with no separate lookup index; there is no notion of a blank
// node identity map — blank nodes are opaque placeholders that fail
// validation before they would ever need resolving.
type Graph struct {
	triples []Triple
}

// New returns an empty graph.
func New() *Graph { return &Graph{} }

// FromTriples builds a graph from an existing triple slice, deduplicating
// exact repeats.
func FromTriples(ts []Triple) *Graph {
	g := New()
	for _, t := range ts {
		g.Add(t)
	}
	return g
}

// Clone returns an independent copy whose mutations do not affect g. Stage A
// evaluates policies against the input graph but applies its delta only to
// a clone, so the caller's original graph is never observably modified.
func (g *Graph) Clone() *Graph {
	cp := make([]Triple, len(g.triples))
	copy(cp, g.triples)
	return &Graph{triples: cp}
}

// Has reports whether t is already present.
func (g *Graph) Has(t Triple) bool {
	for _, existing := range g.triples {
		if tripleEqual(existing, t) {
			return true
		}
	}
	return false
}

// Add inserts t if not already present. Returns true if the graph changed.
func (g *Graph) Add(t Triple) bool {
	if g.Has(t) {
		return false
	}
	g.triples = append(g.triples, t)
	return true
}

// RemoveExact removes t if present. Returns true if the graph changed.
func (g *Graph) RemoveExact(t Triple) bool {
	for i, existing := range g.triples {
		if tripleEqual(existing, t) {
			g.triples = append(g.triples[:i], g.triples[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll removes every triple with the given subject and predicate,
// regardless of object, returning the removed triples (Stage A's
// ReplaceAll mode).
func (g *Graph) RemoveAll(subject, predicate term.IRI) []Triple {
	var removed []Triple
	kept := g.triples[:0:0]
	for _, t := range g.triples {
		if t.Subject == subject && t.Predicate == predicate {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	g.triples = kept
	return removed
}

// Triples returns all triples in storage order. Callers that need a
// deterministic order must sort explicitly (package canon does this for
// serialization); iteration order here is insertion order only.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// ByPredicate returns every triple with the given predicate, in storage
// order.
func (g *Graph) ByPredicate(p term.IRI) []Triple {
	var out []Triple
	for _, t := range g.triples {
		if t.Predicate == p {
			out = append(out, t)
		}
	}
	return out
}

// ObjectsOf returns every object value for (subject, predicate), in storage
// order — used to enforce "exactly one value per singular predicate"
// by checking len == 1 at the call site.
func (g *Graph) ObjectsOf(subject, predicate term.IRI) []term.Object {
	var out []term.Object
	for _, t := range g.triples {
		if t.Subject == subject && t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// HasType reports whether (subject, rdf:type, class) is in the graph.
func (g *Graph) HasType(subject, class term.IRI) bool {
	for _, o := range g.ObjectsOf(subject, PredType) {
		if o.IsIRI && o.IRIVal == class {
			return true
		}
	}
	return false
}

// SubjectsOwnedBy returns every IRI n such that (n, ownedBy, composition) is
// in the graph — the single-hop ownership relation used by the scoped
// subgraph. Ownership is single-hop, never transitive.
func (g *Graph) SubjectsOwnedBy(composition term.IRI) []term.IRI {
	var out []term.IRI
	for _, t := range g.triples {
		if t.Predicate == PredOwnedBy && t.Object.IsIRI && t.Object.IRIVal == composition {
			out = append(out, t.Subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func tripleEqual(a, b Triple) bool {
	if a.Subject != b.Subject || a.Predicate != b.Predicate {
		return false
	}
	if a.Object.IsIRI != b.Object.IsIRI {
		return false
	}
	if a.Object.IsIRI {
		return a.Object.IRIVal == b.Object.IRIVal
	}
	al, bl := a.Object.LitVal, b.Object.LitVal
	return al.Lexical == bl.Lexical && al.Datatype == bl.Datatype && al.Language == bl.Language
}
