// Package canon implements canonical serialization and content hashing for
// graphs: NFC validation, blank-node rejection, lexicographic
// triple sort, N-Triples emission, and SHA-256 digesting. It is the single
// place the pipeline computes a hash — Stage C and the procedural
// conformance checks both call through here rather than each reimplementing
// the two-pass canonicalize-then-hash sequence.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/opalforge/adaptiveplan/internal/graph"
	"github.com/opalforge/adaptiveplan/internal/term"
)

// NotNFCError reports the first non-NFC-normalized string encountered.
type NotNFCError struct {
	Value string
}

func (e *NotNFCError) Error() string {
	return fmt.Sprintf("canon: term %q is not NFC-normalized", e.Value)
}

// BlankNodeError reports that a triple carries a blank-node placeholder.
type BlankNodeError struct {
	Triple graph.Triple
}

func (e *BlankNodeError) Error() string {
	return fmt.Sprintf("canon: blank node present in triple %+v", e.Triple)
}

// Validate checks every subject, predicate, object lexical/IRI, language
// tag, and datatype IRI in g for NFC normalization, and rejects any blank
// node placeholder. It is the fail-closed gate run before sorting and
// serialization.
func Validate(g *graph.Graph) error {
	for _, t := range g.Triples() {
		if t.IsBlank() {
			return &BlankNodeError{Triple: t}
		}
		if err := checkNFC(string(t.Subject)); err != nil {
			return err
		}
		if err := checkNFC(string(t.Predicate)); err != nil {
			return err
		}
		if t.Object.IsIRI {
			if err := checkNFC(string(t.Object.IRIVal)); err != nil {
				return err
			}
			continue
		}
		lit := t.Object.LitVal
		if err := checkNFC(lit.Lexical); err != nil {
			return err
		}
		if err := checkNFC(string(lit.Datatype)); err != nil {
			return err
		}
		if err := checkNFC(lit.Language); err != nil {
			return err
		}
	}
	return nil
}

func checkNFC(s string) error {
	if s == "" {
		return nil
	}
	if !norm.NFC.IsNormalString(s) {
		return &NotNFCError{Value: s}
	}
	return nil
}

// objectKey builds the object sort key: (0, iri, "", "",
// "") for IRIs, (1, lexical, datatype, language, "") for literals.
type objectKey struct {
	tag      int
	a, b, c  string
}

func keyOf(o term.Object) objectKey {
	if o.IsIRI {
		return objectKey{tag: 0, a: string(o.IRIVal)}
	}
	return objectKey{tag: 1, a: o.LitVal.Lexical, b: string(o.LitVal.Datatype), c: o.LitVal.Language}
}

func lessObjectKey(a, b objectKey) bool {
	if a.tag != b.tag {
		return a.tag < b.tag
	}
	if a.a != b.a {
		return a.a < b.a
	}
	if a.b != b.b {
		return a.b < b.b
	}
	return a.c < b.c
}

// SortTriples returns a copy of ts sorted by (str(subject), str(predicate),
// objectKey), a total order.
func SortTriples(ts []graph.Triple) []graph.Triple {
	out := make([]graph.Triple, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Predicate != b.Predicate {
			return a.Predicate < b.Predicate
		}
		return lessObjectKey(keyOf(a.Object), keyOf(b.Object))
	})
	return out
}

// NTriplesLine renders a single triple in N-Triples form, terminated by
// " .\n".
func NTriplesLine(t graph.Triple) string {
	var b strings.Builder
	b.WriteString(iriTerm(t.Subject))
	b.WriteByte(' ')
	b.WriteString(iriTerm(t.Predicate))
	b.WriteByte(' ')
	if t.Object.IsIRI {
		b.WriteString(iriTerm(t.Object.IRIVal))
	} else {
		b.WriteString(literalTerm(t.Object.LitVal))
	}
	b.WriteString(" .\n")
	return b.String()
}

func iriTerm(v term.IRI) string {
	return "<" + string(v) + ">"
}

func literalTerm(l term.Literal) string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeLexical(l.Lexical))
	b.WriteByte('"')
	switch {
	case l.Language != "":
		b.WriteByte('@')
		b.WriteString(l.Language)
	case l.Datatype != "":
		b.WriteString("^^")
		b.WriteString(iriTerm(l.Datatype))
	}
	return b.String()
}

func escapeLexical(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// Serialize validates, sorts, and emits g as canonical N-Triples bytes.
// Idempotent: reading the output back with graph.ParseTurtle and
// serializing the resulting graph again yields the same bytes.
func Serialize(g *graph.Graph) ([]byte, error) {
	if err := Validate(g); err != nil {
		return nil, err
	}
	sorted := SortTriples(g.Triples())
	var b strings.Builder
	for _, t := range sorted {
		b.WriteString(NTriplesLine(t))
	}
	return []byte(b.String()), nil
}

// Hash returns the lower-hex SHA-256 digest of canonical bytes.
func Hash(canonicalBytes []byte) string {
	sum := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience for hashing an arbitrary UTF-8 string payload
// (Stage C's parameter/payload/package/closure hashes, none of which are
// graph serializations).
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ScopedSubgraph returns the triples whose subject is composition or any
// IRI n such that (n, ownedBy, composition) holds — single-hop ownership
// only, never transitive.
func ScopedSubgraph(g *graph.Graph, composition term.IRI) *graph.Graph {
	owned := map[term.IRI]bool{composition: true}
	for _, n := range g.SubjectsOwnedBy(composition) {
		owned[n] = true
	}
	out := graph.New()
	for _, t := range g.Triples() {
		if owned[t.Subject] {
			out.Add(t)
		}
	}
	return out
}

// ScopedHash computes the SHA-256 over the canonical serialization of the
// scoped subgraph — the "scoped hash" procedural check.
func ScopedHash(g *graph.Graph, composition term.IRI) (string, error) {
	sub := ScopedSubgraph(g, composition)
	bytes, err := Serialize(sub)
	if err != nil {
		return "", err
	}
	return Hash(bytes), nil
}
