// Package codex implements the small XML-shaped concept-tree envelope
// format every pipeline artifact uses, plus its schema-driven structural
// validator. The tree shape itself (concept name, ordered
// traits, ordered children, optional text) is parsed with the standard
// library's encoding/xml token decoder. Everything built on top of the tree —
// schema definitions, structural validation, emission — keeps the
// config-free tree model separate from the schema-carrying Validator.
package codex

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Node is one element of a codex envelope: a concept name, its traits
// (attributes) in declaration order, its children in document order, and
// optional text content.
type Node struct {
	Concept string
	Traits  []Trait
	Children []*Node
	Text    string
}

// Trait is a single name/value attribute on a Node.
type Trait struct {
	Name  string
	Value string
}

// Get returns the value of the named trait and whether it was present.
func (n *Node) Get(name string) (string, bool) {
	for _, t := range n.Traits {
		if t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// MustGet returns the named trait's value or "" if absent.
func (n *Node) MustGet(name string) string {
	v, _ := n.Get(name)
	return v
}

// Set assigns a trait value, appending it if not already present.
func (n *Node) Set(name, value string) {
	for i := range n.Traits {
		if n.Traits[i].Name == name {
			n.Traits[i].Value = value
			return
		}
	}
	n.Traits = append(n.Traits, Trait{Name: name, Value: value})
}

// ChildrenOf returns every direct child with the given concept name, in
// document order.
func (n *Node) ChildrenOf(concept string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Concept == concept {
			out = append(out, c)
		}
	}
	return out
}

// SortedTraitNames returns the node's trait names sorted lexicographically —
// used wherever the compiler must emit "context entries in lexicographic
// trait-key order".
func (n *Node) SortedTraitNames() []string {
	names := make([]string, len(n.Traits))
	for i, t := range n.Traits {
		names[i] = t.Name
	}
	sort.Strings(names)
	return names
}

// Parse reads a codex envelope from r.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("codex: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (*Node, error) {
	n := &Node{Concept: start.Name.Local}
	for _, a := range start.Attr {
		n.Traits = append(n.Traits, Trait{Name: a.Name.Local, Value: a.Value})
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("codex: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			n.Text = strings.TrimSpace(text.String())
			return n, nil
		}
	}
}

// Emit writes n as a tab-indented codex envelope terminated by a single
// trailing newline.
func Emit(n *Node) []byte {
	var b strings.Builder
	writeNode(&b, n, 0)
	return []byte(strings.TrimRight(b.String(), "\n") + "\n")
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("\t", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(n.Concept)
	for _, t := range n.Traits {
		fmt.Fprintf(b, " %s=%q", t.Name, escapeAttr(t.Value))
	}
	if len(n.Children) == 0 && n.Text == "" {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">")
	if n.Text != "" && len(n.Children) == 0 {
		b.WriteString(escapeText(n.Text))
		b.WriteString("</")
		b.WriteString(n.Concept)
		b.WriteString(">\n")
		return
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		writeNode(b, c, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(n.Concept)
	b.WriteString(">\n")
}

// escapeAttr escapes markup characters plus literal whitespace: an XML
// parser normalizes raw newlines and tabs inside attribute values to
// spaces, which would corrupt N-Triples delta lines on reparse, so they
// are emitted as character references instead.
func escapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, "\r", "&#xD;")
	s = strings.ReplaceAll(s, "\n", "&#xA;")
	s = strings.ReplaceAll(s, "\t", "&#x9;")
	return s
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}
