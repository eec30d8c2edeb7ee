// Package rdf is the statement sink the mapper writes into: terms, triples,
// graphs, datasets and their serializations.
package rdf

import (
	"fmt"
	"strings"
)

// TermKind identifies RDF term types
type TermKind uint8

const (
	TermIRI TermKind = iota
	TermBlankNode
	TermLiteral
)

// Term is a value that can appear in a statement
type Term interface {
	Kind() TermKind
	// String renders the term in N-Triples syntax
	String() string
}

// IRI is an RDF resource address
type IRI struct {
	Value string
}

func (i IRI) Kind() TermKind { return TermIRI }
func (i IRI) String() string { return "<" + escapeIRI(i.Value) + ">" }

// BlankNode is an anonymous resource
type BlankNode struct {
	ID string
}

func (b BlankNode) Kind() TermKind { return TermBlankNode }
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal is a lexical value with a datatype or language tag
type Literal struct {
	Lexical  string
	Datatype IRI
	Lang     string
}

func (l Literal) Kind() TermKind { return TermLiteral }

// String renders the literal. xsd:string is left implicit.
func (l Literal) String() string {
	quoted := `"` + escapeLiteral(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return quoted + "@" + l.Lang
	case l.Datatype.Value != "" && l.Datatype != XSDString:
		return quoted + "^^" + l.Datatype.String()
	}
	return quoted
}

// NewIRI creates an IRI term
func NewIRI(value string) IRI {
	return IRI{Value: value}
}

// NewLiteral creates a typed literal
func NewLiteral(lexical string, datatype IRI) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewString creates an xsd:string literal
func NewString(lexical string) Literal {
	return Literal{Lexical: lexical, Datatype: XSDString}
}

// Triple is a subject/predicate/object statement
type Triple struct {
	S Term
	P IRI
	O Term
}

// String renders the triple as one N-Triples line without the newline
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Quad is a triple placed in a graph. A nil G is the default graph.
type Quad struct {
	S Term
	P IRI
	O Term
	G Term
}

// ToQuad places t in graph g
func (t Triple) ToQuad(g Term) Quad {
	return Quad{S: t.S, P: t.P, O: t.O, G: g}
}

// ToTriple drops the graph
func (q Quad) ToTriple() Triple {
	return Triple{S: q.S, P: q.P, O: q.O}
}

// String renders the quad as one N-Quads line without the newline
func (q Quad) String() string {
	if q.G == nil {
		return q.ToTriple().String()
	}
	return q.S.String() + " " + q.P.String() + " " + q.O.String() + " " + q.G.String() + " ."
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// escapeIRI percent-encodes the characters IRIREF does not allow
func escapeIRI(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool { return r < 0x80 && notInIRI(byte(r)) }) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if notInIRI(c) {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func notInIRI(c byte) bool {
	return c <= 0x20 || c == 0x7F || strings.IndexByte(`<>"{}|^`+"`"+`\`, c) >= 0
}
