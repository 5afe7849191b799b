package graph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/opalforge/adaptiveplan/internal/term"
)

// ParseTurtle reads a Turtle document and returns the triples it encodes.
// It supports the subset of Turtle this system's fixtures use: @prefix
// directives, absolute and prefixed-name IRIs, quoted string/decimal/
// integer/boolean literals with optional ^^datatype or @lang, and blank
// node labels (_:label) — surfaced as IRI-shaped placeholders carrying
// BlankPrefix so canonicalization can reject them. Collections
// ("(...)") and anonymous property-list nodes ("[...]") are not supported;
// no fixture in this pipeline's policy graphs needs them.
//
// Implemented as a single-pass tokenizer plus a recursive-descent parser.
func ParseTurtle(src string) ([]Triple, error) {
	toks, err := lexTurtle(src)
	if err != nil {
		return nil, err
	}
	p := &ttlParser{toks: toks, prefixes: map[string]string{}}
	return p.parseDocument()
}

// --- lexer -------------------------------------------------------------

type ttlTokKind int

const (
	tokIRI ttlTokKind = iota
	tokPName
	tokBlank
	tokString
	tokNumber
	tokBool
	tokDot
	tokSemi
	tokComma
	tokCaret
	tokAt
	tokPrefixKw
	tokA // rdf:type shorthand
	tokEOF
)

type ttlTok struct {
	kind ttlTokKind
	text string
}

func lexTurtle(src string) ([]ttlTok, error) {
	var toks []ttlTok
	r := []rune(src)
	i, n := 0, len(r)
	for i < n {
		c := r[i]
		switch {
		case c == '#':
			for i < n && r[i] != '\n' {
				i++
			}
		case unicode.IsSpace(c):
			i++
		case c == '.':
			toks = append(toks, ttlTok{tokDot, "."})
			i++
		case c == ';':
			toks = append(toks, ttlTok{tokSemi, ";"})
			i++
		case c == ',':
			toks = append(toks, ttlTok{tokComma, ","})
			i++
		case c == '^':
			if i+1 < n && r[i+1] == '^' {
				toks = append(toks, ttlTok{tokCaret, "^^"})
				i += 2
			} else {
				return nil, fmt.Errorf("graph: unexpected '^' in turtle input")
			}
		case c == '@':
			j := i + 1
			for j < n && (unicode.IsLetter(r[j]) || r[j] == '-') {
				j++
			}
			word := string(r[i+1 : j])
			if word == "prefix" || word == "base" {
				toks = append(toks, ttlTok{tokPrefixKw, word})
			} else {
				toks = append(toks, ttlTok{tokAt, word})
			}
			i = j
		case c == '<':
			j := i + 1
			for j < n && r[j] != '>' {
				j++
			}
			if j >= n {
				return nil, fmt.Errorf("graph: unterminated IRI literal")
			}
			toks = append(toks, ttlTok{tokIRI, string(r[i+1 : j])})
			i = j + 1
		case c == '"':
			lit, j, err := scanTurtleString(r, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, ttlTok{tokString, lit})
			i = j
		case c == '_' && i+1 < n && r[i+1] == ':':
			j := i + 2
			for j < n && isPNChar(r[j]) {
				j++
			}
			toks = append(toks, ttlTok{tokBlank, string(r[i+2 : j])})
			i = j
		case c == 'a' && (i+1 >= n || isBoundary(r[i+1])):
			toks = append(toks, ttlTok{tokA, "a"})
			i++
		case c == '-' || c == '+' || unicode.IsDigit(c):
			j := i + 1
			for j < n && (unicode.IsDigit(r[j]) || r[j] == '.') {
				j++
			}
			toks = append(toks, ttlTok{tokNumber, string(r[i:j])})
			i = j
		case unicode.IsLetter(c) || c == ':':
			j := i
			for j < n && isPNChar(r[j]) {
				j++
			}
			word := string(r[i:j])
			switch word {
			case "true", "false":
				toks = append(toks, ttlTok{tokBool, word})
			default:
				toks = append(toks, ttlTok{tokPName, word})
			}
			i = j
		default:
			return nil, fmt.Errorf("graph: unexpected character %q in turtle input", c)
		}
	}
	toks = append(toks, ttlTok{tokEOF, ""})
	return toks, nil
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == ';' || r == ','
}

func isPNChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' || r == '_' || r == '-' || r == '.'
}

func scanTurtleString(r []rune, start int) (string, int, error) {
	i := start + 1
	var b strings.Builder
	for i < len(r) {
		switch r[i] {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(r) {
				return "", 0, fmt.Errorf("graph: unterminated escape in string literal")
			}
			switch r[i+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteRune(r[i+1])
			}
			i += 2
		default:
			b.WriteRune(r[i])
			i++
		}
	}
	return "", 0, fmt.Errorf("graph: unterminated string literal")
}

// --- parser --------------------------------------------------------------

type ttlParser struct {
	toks     []ttlTok
	pos      int
	prefixes map[string]string
}

func (p *ttlParser) peek() ttlTok { return p.toks[p.pos] }

func (p *ttlParser) next() ttlTok {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *ttlParser) parseDocument() ([]Triple, error) {
	var out []Triple
	for p.peek().kind != tokEOF {
		if p.peek().kind == tokPrefixKw {
			if err := p.parsePrefixDirective(); err != nil {
				return nil, err
			}
			continue
		}
		triples, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		out = append(out, triples...)
	}
	return out, nil
}

func (p *ttlParser) parsePrefixDirective() error {
	kw := p.next() // "prefix" or "base"
	if kw.text == "base" {
		_ = p.next() // IRI
		if p.peek().kind == tokDot {
			p.next()
		}
		return nil
	}
	label := p.next()
	if label.kind != tokPName {
		return fmt.Errorf("graph: expected prefix label, got %q", label.text)
	}
	iriTok := p.next()
	if iriTok.kind != tokIRI {
		return fmt.Errorf("graph: expected prefix IRI, got %q", iriTok.text)
	}
	p.prefixes[strings.TrimSuffix(label.text, ":")] = iriTok.text
	if p.peek().kind == tokDot {
		p.next()
	}
	return nil
}

func (p *ttlParser) parseStatement() ([]Triple, error) {
	subject, err := p.parseIRITerm()
	if err != nil {
		return nil, err
	}
	var out []Triple
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			out = append(out, Triple{Subject: subject, Predicate: pred, Object: obj})
			if p.peek().kind == tokComma {
				p.next()
				continue
			}
			break
		}
		if p.peek().kind == tokSemi {
			p.next()
			continue
		}
		break
	}
	if p.peek().kind != tokDot {
		return nil, fmt.Errorf("graph: expected '.' to end statement, got %q", p.peek().text)
	}
	p.next()
	return out, nil
}

func (p *ttlParser) parsePredicate() (term.IRI, error) {
	if p.peek().kind == tokA {
		p.next()
		return PredType, nil
	}
	return p.parseIRITerm()
}

func (p *ttlParser) parseIRITerm() (term.IRI, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return term.IRI(t.text), nil
	case tokPName:
		return p.resolvePName(t.text)
	case tokBlank:
		return term.IRI(BlankPrefix + t.text), nil
	default:
		return "", fmt.Errorf("graph: expected IRI term, got %q", t.text)
	}
}

func (p *ttlParser) resolvePName(text string) (term.IRI, error) {
	i := strings.IndexByte(text, ':')
	if i < 0 {
		return "", fmt.Errorf("graph: invalid prefixed name %q", text)
	}
	prefix, local := text[:i], text[i+1:]
	base, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("graph: undeclared prefix %q", prefix)
	}
	return term.IRI(base + local), nil
}

func (p *ttlParser) parseObject() (term.Object, error) {
	t := p.peek()
	switch t.kind {
	case tokIRI, tokPName, tokBlank:
		iri, err := p.parseIRITerm()
		if err != nil {
			return term.Object{}, err
		}
		return term.ObjIRI(iri), nil
	case tokString:
		p.next()
		lit := term.Literal{Lexical: t.text}
		switch p.peek().kind {
		case tokCaret:
			p.next()
			dt, err := p.parseIRITerm()
			if err != nil {
				return term.Object{}, err
			}
			lit.Datatype = dt
		case tokAt:
			langTok := p.next()
			lit.Language = langTok.text
		}
		return term.ObjLiteral(lit), nil
	case tokNumber:
		p.next()
		dt := term.IRI("http://www.w3.org/2001/XMLSchema#integer")
		if strings.Contains(t.text, ".") {
			dt = term.IRI("http://www.w3.org/2001/XMLSchema#decimal")
		}
		return term.ObjLiteral(term.Literal{Lexical: t.text, Datatype: dt}), nil
	case tokBool:
		p.next()
		return term.ObjLiteral(term.Literal{Lexical: t.text, Datatype: term.IRI("http://www.w3.org/2001/XMLSchema#boolean")}), nil
	default:
		return term.Object{}, fmt.Errorf("graph: expected object term, got %q", t.text)
	}
}
