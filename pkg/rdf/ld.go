package rdf

import (
	"bufio"
	"fmt"
	"io"

	"github.com/piprate/json-gold/ld"
)

const defaultGraphName = "@default"

type namedTriples struct {
	name    string
	triples []Triple
}

// datasetGraphs lists the default graph followed by the named graphs in
// creation order
func datasetGraphs(d *Dataset) []namedTriples {
	graphs := []namedTriples{{defaultGraphName, d.Default().Triples()}}
	for _, name := range d.Names() {
		graphs = append(graphs, namedTriples{name, d.Graph(name).Triples()})
	}
	return graphs
}

// toLDDataset converts graphs into a json-gold dataset
func toLDDataset(graphs ...namedTriples) *ld.RDFDataset {
	ds := ld.NewRDFDataset()
	for _, g := range graphs {
		quads := ds.Graphs[g.name]
		for _, t := range g.triples {
			quads = append(quads, ld.NewQuad(toLDNode(t.S), toLDNode(t.P), toLDNode(t.O), g.name))
		}
		ds.Graphs[g.name] = quads
	}
	return ds
}

func toLDNode(t Term) ld.Node {
	switch v := t.(type) {
	case IRI:
		return ld.NewIRI(escapeIRI(v.Value))
	case BlankNode:
		return ld.NewBlankNode("_:" + v.ID)
	case Literal:
		if v.Lang != "" {
			return ld.NewLiteral(v.Lexical, ld.RDFLangString, v.Lang)
		}
		return ld.NewLiteral(v.Lexical, escapeIRI(v.Datatype.Value), "")
	}
	panic(fmt.Sprintf("rdf: unknown term %T", t))
}

// writeNQuads serializes each graph with json-gold's N-Quads serializer.
// Graphs are written one at a time so that their order is stable.
func writeNQuads(w io.Writer, graphs []namedTriples) error {
	bw := bufio.NewWriter(w)
	serializer := &ld.NQuadRDFSerializer{}
	for _, g := range graphs {
		if err := serializer.SerializeTo(bw, toLDDataset(g)); err != nil {
			return fmt.Errorf("failed to write N-Quads: %w", err)
		}
	}
	return bw.Flush()
}
