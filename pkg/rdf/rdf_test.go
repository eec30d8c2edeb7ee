package rdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pointA     = NewIRI("http://example.org/TestData#PointA")
	pointAGeom = NewIRI("http://example.org/TestData#PointA-Geometry")
)

func sampleGraph() *Graph {
	g := NewGraph()
	g.Add(Triple{pointA, RDFType, GeoFeature})
	g.Add(Triple{pointA, NewIRI("http://example.org/TestData#id"), NewString("PointA")})
	g.Add(Triple{pointA, GeoHasGeometry, pointAGeom})
	g.Add(Triple{pointAGeom, RDFType, GeoGeometry})
	g.Add(Triple{pointAGeom, GeoAsGeoJSON, NewLiteral(`{"type":"Point","coordinates":[102.0,0.5]}`, GeoJSONLiteral)})
	return g
}

func TestTermString(t *testing.T) {
	testCases := []struct {
		name     string
		term     Term
		expected string
	}{
		{"iri", NewIRI("http://example.org/a"), "<http://example.org/a>"},
		{"iri with space", NewIRI("http://example.org/a b"), `<http://example.org/a%20b>`},
		{"iri with brackets", NewIRI("http://example.org/<a>|b"), `<http://example.org/%3Ca%3E%7Cb>`},
		{"iri non-ascii", NewIRI("http://example.org/café"), `<http://example.org/café>`},
		{"blank", BlankNode{ID: "b0"}, "_:b0"},
		{"string", NewString("value0"), `"value0"`},
		{"escaped", NewString("a \"quoted\"\nline\\"), `"a \"quoted\"\nline\\"`},
		{"typed", NewLiteral("1", XSDInteger), `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"lang", Literal{Lexical: "chat", Lang: "fr"}, `"chat"@fr`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.term.String())
		})
	}
}

func TestGraphDeduplicates(t *testing.T) {
	g := sampleGraph()
	assert.Equal(t, 5, g.Len())

	g.Add(Triple{pointA, RDFType, GeoFeature})
	assert.Equal(t, 5, g.Len())
	assert.True(t, g.Contains(Triple{pointA, RDFType, GeoFeature}))
	assert.False(t, g.Contains(Triple{pointA, RDFType, GeoGeometry}))

	// string literal differs from an integer literal with the same lexical form
	g.Add(Triple{pointA, NewIRI("http://example.org/n"), NewString("1")})
	g.Add(Triple{pointA, NewIRI("http://example.org/n"), NewLiteral("1", XSDInteger)})
	assert.Equal(t, 7, g.Len())
}

func TestGraphMatch(t *testing.T) {
	g := sampleGraph()

	assert.Len(t, g.Match(pointA, IRI{}, nil), 3)
	assert.Len(t, g.Match(nil, RDFType, nil), 2)
	assert.Equal(t, []Term{pointA}, g.Subjects(RDFType, GeoFeature))

	o, ok := g.Object(pointA, GeoHasGeometry)
	require.True(t, ok)
	assert.Equal(t, pointAGeom, o)

	_, ok = g.Object(pointAGeom, GeoHasGeometry)
	assert.False(t, ok)
}

func TestTriplesPreserveInsertionOrder(t *testing.T) {
	triples := sampleGraph().Triples()
	require.Len(t, triples, 5)
	assert.Equal(t, RDFType, triples[0].P)
	assert.Equal(t, GeoAsGeoJSON, triples[4].P)
}

func TestDataset(t *testing.T) {
	d := NewDataset()
	d.Merge("", sampleGraph())
	d.Merge("http://example.org/g1", sampleGraph())
	d.Graph("http://example.org/g0")

	assert.Equal(t, []string{"http://example.org/g1", "http://example.org/g0"}, d.Names())
	assert.Equal(t, 10, d.Len())

	quads := d.Quads()
	require.Len(t, quads, 10)
	assert.Nil(t, quads[0].G)
	assert.Equal(t, NewIRI("http://example.org/g1"), quads[5].G)
}

func TestParseFormat(t *testing.T) {
	testCases := map[string]Format{
		"nt":        FormatNTriples,
		"N-Triples": FormatNTriples,
		".nq":       FormatNQuads,
		"ttl":       FormatTurtle,
		"trig":      FormatTriG,
		"json-ld":   FormatJSONLD,
	}
	for name, expected := range testCases {
		f, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, f)
	}

	_, err := ParseFormat("rdfxml")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestEncodeNTriples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeGraph(&buf, sampleGraph(), FormatNTriples))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t,
		"<http://example.org/TestData#PointA> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.opengis.net/ont/geosparql#Feature> .",
		lines[0])
	assert.Equal(t,
		`<http://example.org/TestData#PointA-Geometry> <http://www.opengis.net/ont/geosparql#asGeoJSON> "{\"type\":\"Point\",\"coordinates\":[102.0,0.5]}"^^<http://www.opengis.net/ont/geosparql#geoJSONLiteral> .`,
		lines[4])
}

func TestEncodeNQuads(t *testing.T) {
	d := NewDataset()
	d.Merge("http://example.org/g1", sampleGraph())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d, FormatNQuads))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.True(t, strings.HasSuffix(line, "<http://example.org/g1> ."), line)
	}
}

func TestEncodeNQuadsKeepsGraphOrder(t *testing.T) {
	d := NewDataset()
	s := NewIRI("http://example.org/a b")
	d.Default().Add(Triple{s, RDFType, GeoFeature})
	d.Graph("http://example.org/g2").Add(Triple{s, NewIRI("http://example.org/label"), Literal{Lexical: "chat", Lang: "fr"}})
	d.Graph("http://example.org/g1").Add(Triple{s, NewIRI("http://example.org/n"), NewLiteral("1", XSDInteger)})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d, FormatNQuads))
	assert.Equal(t, strings.Join([]string{
		"<http://example.org/a%20b> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.opengis.net/ont/geosparql#Feature> .",
		`<http://example.org/a%20b> <http://example.org/label> "chat"@fr <http://example.org/g2> .`,
		`<http://example.org/a%20b> <http://example.org/n> "1"^^<http://www.w3.org/2001/XMLSchema#integer> <http://example.org/g1> .`,
	}, "\n")+"\n", buf.String())

	buf.Reset()
	require.NoError(t, Encode(&buf, d, FormatNTriples))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `<http://example.org/a%20b> <http://example.org/label> "chat"@fr .`, lines[1])
}

func TestEncodeTurtle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeGraph(&buf, sampleGraph(), FormatTurtle))
	out := buf.String()

	assert.Contains(t, out, "@prefix geo: <http://www.opengis.net/ont/geosparql#> .")
	assert.Contains(t, out, "<http://example.org/TestData#PointA> a geo:Feature ;")
	assert.Contains(t, out, "geo:hasGeometry <http://example.org/TestData#PointA-Geometry> .")
	assert.Contains(t, out, `^^geo:geoJSONLiteral .`)
}

func TestEncodeTriG(t *testing.T) {
	d := NewDataset()
	d.Merge("http://example.org/g1", sampleGraph())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d, FormatTriG))
	assert.Contains(t, buf.String(), "<http://example.org/g1> {\n")
}

func TestEncodeJSONLD(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeGraph(&buf, sampleGraph(), FormatJSONLD))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "@context")
	assert.Contains(t, buf.String(), "geo:Feature")
}

func TestEncodeUnsupported(t *testing.T) {
	err := Encode(&bytes.Buffer{}, NewDataset(), Format("rdfxml"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
