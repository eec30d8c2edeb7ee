package rdf

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// ErrUnsupportedFormat indicates an unknown serialization name
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// Format selects a serialization
type Format string

const (
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
	FormatTurtle   Format = "turtle"
	FormatTriG     Format = "trig"
	FormatJSONLD   Format = "jsonld"
)

// ParseFormat accepts format names and common file extensions
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	case "nquads", "n-quads", "nq":
		return FormatNQuads, nil
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "trig":
		return FormatTriG, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Encode writes the dataset in the given format. Formats without graph
// support (N-Triples, Turtle) merge every graph into one.
func Encode(w io.Writer, d *Dataset, f Format) error {
	switch f {
	case FormatNTriples:
		return writeNQuads(w, []namedTriples{{defaultGraphName, mergedTriples(d)}})
	case FormatNQuads:
		return writeNQuads(w, datasetGraphs(d))
	case FormatTurtle:
		return writeTurtle(w, mergedTriples(d), Prefixes())
	case FormatTriG:
		return writeTriG(w, d, Prefixes())
	case FormatJSONLD:
		return writeJSONLD(w, d, Prefixes())
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// EncodeGraph writes a single graph
func EncodeGraph(w io.Writer, g *Graph, f Format) error {
	d := NewDataset()
	d.Default().AddAll(g)
	return Encode(w, d, f)
}

func mergedTriples(d *Dataset) []Triple {
	merged := NewGraph()
	merged.AddAll(d.Default())
	for _, name := range d.Names() {
		merged.AddAll(d.Graph(name))
	}
	return merged.Triples()
}

func writePrefixes(bw *bufio.Writer, prefixes map[string]string) {
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", k, prefixes[k])
	}
	if len(keys) > 0 {
		bw.WriteString("\n")
	}
}

func writeTurtle(w io.Writer, triples []Triple, prefixes map[string]string) error {
	bw := bufio.NewWriter(w)
	writePrefixes(bw, prefixes)
	writeSubjectBlocks(bw, triples, prefixes, "")
	return bw.Flush()
}

func writeTriG(w io.Writer, d *Dataset, prefixes map[string]string) error {
	bw := bufio.NewWriter(w)
	writePrefixes(bw, prefixes)
	writeSubjectBlocks(bw, d.Default().Triples(), prefixes, "")
	for _, name := range d.Names() {
		fmt.Fprintf(bw, "%s {\n", renderTurtleTerm(NewIRI(name), prefixes))
		writeSubjectBlocks(bw, d.Graph(name).Triples(), prefixes, "    ")
		bw.WriteString("}\n\n")
	}
	return bw.Flush()
}

// writeSubjectBlocks groups triples by subject in first-seen order
func writeSubjectBlocks(bw *bufio.Writer, triples []Triple, prefixes map[string]string, indent string) {
	var subjects []Term
	bySubject := make(map[Term][]Triple)
	for _, t := range triples {
		if _, ok := bySubject[t.S]; !ok {
			subjects = append(subjects, t.S)
		}
		bySubject[t.S] = append(bySubject[t.S], t)
	}

	for _, s := range subjects {
		bw.WriteString(indent + renderTurtleTerm(s, prefixes))
		for i, t := range bySubject[s] {
			pred := renderTurtleTerm(t.P, prefixes)
			if t.P == RDFType {
				pred = "a"
			}
			if i == 0 {
				bw.WriteString(" " + pred + " " + renderTurtleTerm(t.O, prefixes))
				continue
			}
			bw.WriteString(" ;\n" + indent + "    " + pred + " " + renderTurtleTerm(t.O, prefixes))
		}
		bw.WriteString(" .\n\n")
	}
}

func renderTurtleTerm(t Term, prefixes map[string]string) string {
	switch v := t.(type) {
	case IRI:
		if name, ok := compactIRI(v.Value, prefixes); ok {
			return name
		}
	case Literal:
		if v.Lang == "" && v.Datatype.Value != "" && v.Datatype != XSDString {
			if name, ok := compactIRI(v.Datatype.Value, prefixes); ok {
				return `"` + escapeLiteral(v.Lexical) + `"^^` + name
			}
		}
	}
	return t.String()
}

// compactIRI shortens iri to prefix:local when local is a plain name
func compactIRI(iri string, prefixes map[string]string) (string, bool) {
	for prefix, ns := range prefixes {
		if !strings.HasPrefix(iri, ns) {
			continue
		}
		local := iri[len(ns):]
		if isPlainLocalName(local) {
			return prefix + ":" + local, true
		}
	}
	return "", false
}

func isPlainLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9') || r == '-':
			if i == 0 && r == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// writeJSONLD converts the dataset with json-gold and compacts it against
// the prefix mapping
func writeJSONLD(w io.Writer, d *Dataset, prefixes map[string]string) error {
	expanded, err := ld.NewJsonLdApi().FromRDF(toLDDataset(datasetGraphs(d)...), ld.NewJsonLdOptions(""))
	if err != nil {
		return fmt.Errorf("jsonld: failed to convert from RDF: %w", err)
	}

	context := make(map[string]interface{}, len(prefixes))
	for k, v := range prefixes {
		context[k] = v
	}
	compacted, err := ld.NewJsonLdProcessor().Compact(expanded, map[string]interface{}{"@context": context}, ld.NewJsonLdOptions(""))
	if err != nil {
		return fmt.Errorf("jsonld: failed to compact: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(compacted)
}
