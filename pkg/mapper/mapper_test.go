package mapper

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/kass/geojson-rdf/pkg/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const baseURI = "http://example.org/TestData#"

func iri(local string) rdf.IRI {
	return rdf.NewIRI(baseURI + local)
}

func TestConvertPointFeature(t *testing.T) {
	doc := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"id": "PointA",
			"geometry": {"type": "Point", "coordinates": [102.0, 0.5]},
			"properties": {"prop0": "value0"}
		}]
	}`

	g, err := ConvertJSON(doc, baseURI)
	require.NoError(t, err)

	feature := iri("PointA")
	geom := iri("PointA-Geometry")
	lit := rdf.NewLiteral(`{"type":"Point","coordinates":[102.0,0.5]}`, rdf.GeoJSONLiteral)

	expected := []rdf.Triple{
		{S: feature, P: rdf.RDFType, O: rdf.GeoFeature},
		{S: feature, P: iri("id"), O: rdf.NewString("PointA")},
		{S: geom, P: rdf.RDFType, O: rdf.GeoGeometry},
		{S: feature, P: rdf.GeoHasGeometry, O: geom},
		{S: feature, P: rdf.GeoHasDefaultGeometry, O: geom},
		{S: geom, P: rdf.GeoAsGeoJSON, O: lit},
		{S: geom, P: rdf.GeoHasSerialization, O: lit},
		{S: feature, P: iri("prop0"), O: rdf.NewString("value0")},
	}
	assert.Equal(t, expected, g.Triples())
}

func TestConvertGeometryLiteralReadsBack(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"L","geometry":{"type":"LineString","coordinates":[[30, 10], [10, 30]],"srsURI":"` + geometry.OSGB36URI + `"}}
	]}`

	g, err := ConvertJSON(doc, baseURI)
	require.NoError(t, err)

	o, ok := g.Object(iri("L-Geometry"), rdf.GeoAsGeoJSON)
	require.True(t, ok)
	text := o.(rdf.Literal).Lexical

	lit, err := geojson.Read(text)
	require.NoError(t, err)
	assert.Equal(t, geometry.OSGB36URI, lit.SRS)
	assert.Equal(t, geometry.NewDimensionInfo(2, 2, 1), lit.Dimension)
}

func TestSynthesizedIDs(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","id":"Named","geometry":{"type":"Point","coordinates":[3,4]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[5,6]}},
		{"type":"Feature","id":7,"geometry":{"type":"Point","coordinates":[7,8]}},
		{"type":"Feature","id":2.50,"geometry":{"type":"Point","coordinates":[9,10]}}
	]}`

	var records []*FeatureRecord
	err := Walk(gjson.Parse(doc), baseURI, func(r *FeatureRecord) error {
		records = append(records, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 5)

	testCases := []struct {
		id  string
		uri string
	}{
		{"Feature0", baseURI + "Feature0"},
		{"Named", baseURI + "Named"},
		{"Feature1", baseURI + "Feature1"},
		{"7", baseURI + "7"},
		{"2.50", baseURI + "2.50"},
	}
	for i, tc := range testCases {
		assert.Equal(t, tc.id, records[i].ID)
		assert.Equal(t, tc.uri, records[i].URI)
		assert.Equal(t, tc.uri+GeometrySuffix, records[i].GeometryURI)
		assert.Equal(t, i, records[i].Index)
	}
}

func TestExplicitURIs(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{
		"type":"Feature",
		"id":"A",
		"uri":"http://other.org/features/A",
		"geometry":{"type":"Point","coordinates":[1,2],"uri":"http://other.org/geometries/A"}
	}]}`

	g, err := ConvertJSON(doc, baseURI)
	require.NoError(t, err)

	feature := rdf.NewIRI("http://other.org/features/A")
	geom := rdf.NewIRI("http://other.org/geometries/A")
	assert.True(t, g.Contains(rdf.Triple{S: feature, P: rdf.RDFType, O: rdf.GeoFeature}))
	assert.True(t, g.Contains(rdf.Triple{S: feature, P: rdf.GeoHasGeometry, O: geom}))
	assert.True(t, g.Contains(rdf.Triple{S: feature, P: iri("id"), O: rdf.NewString("A")}))
	// uri is also carried as a foreign member
	assert.True(t, g.Contains(rdf.Triple{S: feature, P: iri("uri"), O: rdf.NewString("http://other.org/features/A")}))
}

func TestPropertyTyping(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{
		"type":"Feature","id":"P",
		"geometry":{"type":"Point","coordinates":[1,2]},
		"properties":{"flag":true,"off":false,"count":42,"ratio":0.5,"big":1.5e10,"name":"x"},
		"title":"foreign"
	}]}`

	g, err := ConvertJSON(doc, baseURI)
	require.NoError(t, err)

	feature := iri("P")
	testCases := []struct {
		name     string
		expected rdf.Literal
	}{
		{"flag", rdf.NewLiteral("true", rdf.XSDBoolean)},
		{"off", rdf.NewLiteral("false", rdf.XSDBoolean)},
		{"count", rdf.NewLiteral("42", rdf.XSDInteger)},
		{"ratio", rdf.NewLiteral("0.5", rdf.XSDDecimal)},
		{"big", rdf.NewLiteral("1.5e10", rdf.XSDDouble)},
		{"name", rdf.NewString("x")},
		{"title", rdf.NewString("foreign")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o, ok := g.Object(feature, iri(tc.name))
			require.True(t, ok)
			assert.Equal(t, tc.expected, o)
		})
	}
}

func TestPropertiesKeepDocumentOrder(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{
		"type":"Feature","id":"P","zeta":"z",
		"geometry":{"type":"Point","coordinates":[1,2]},
		"properties":{"b":1,"a":2,"c":3}
	}]}`

	var rec *FeatureRecord
	require.NoError(t, Walk(gjson.Parse(doc), baseURI, func(r *FeatureRecord) error {
		rec = r
		return nil
	}))

	names := make([]string, 0, len(rec.Properties))
	for _, p := range rec.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	require.Len(t, rec.ForeignMembers, 1)
	assert.Equal(t, "zeta", rec.ForeignMembers[0].Name)
}

func TestNullPropertiesAreIgnored(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"P","geometry":{"type":"Point","coordinates":[1,2]},"properties":null}
	]}`
	g, err := ConvertJSON(doc, baseURI)
	require.NoError(t, err)
	assert.Equal(t, 7, g.Len())
}

func TestConvertErrors(t *testing.T) {
	testCases := []struct {
		name      string
		doc       string
		sentinel  error
		index     int
		featureID string
		property  string
	}{
		{
			name:     "not a collection",
			doc:      `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}`,
			sentinel: ErrNotFeatureCollection,
			index:    -1,
		},
		{
			name:     "features missing",
			doc:      `{"type":"FeatureCollection"}`,
			sentinel: ErrNotFeatureCollection,
			index:    -1,
		},
		{
			name:     "not a feature",
			doc:      `{"type":"FeatureCollection","features":[{"type":"NotAFeature"}]}`,
			sentinel: ErrNotFeature,
			index:    0,
		},
		{
			name:      "missing geometry",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"NoGeom"}]}`,
			sentinel:  ErrMissingGeometry,
			index:     0,
			featureID: "NoGeom",
		},
		{
			name:      "null geometry",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null}]}`,
			sentinel:  ErrMissingGeometry,
			index:     0,
			featureID: "Feature0",
		},
		{
			name:      "nested property",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"N","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"nested":{"a":1}}}]}`,
			sentinel:  ErrUnsupportedValue,
			index:     0,
			featureID: "N",
			property:  "nested",
		},
		{
			name:      "null property",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"N","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"gone":null}}]}`,
			sentinel:  ErrUnsupportedValue,
			index:     0,
			featureID: "N",
			property:  "gone",
		},
		{
			name:      "array foreign member",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"F","geometry":{"type":"Point","coordinates":[1,2]},"bbox":[1,2,1,2]}]}`,
			sentinel:  ErrUnsupportedValue,
			index:     0,
			featureID: "F",
			property:  "bbox",
		},
		{
			name:     "boolean id",
			doc:      `{"type":"FeatureCollection","features":[{"type":"Feature","id":true,"geometry":{"type":"Point","coordinates":[1,2]}}]}`,
			sentinel: ErrInvalidID,
			index:    0,
		},
		{
			name:      "properties not an object",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"P","geometry":{"type":"Point","coordinates":[1,2]},"properties":[1]}]}`,
			sentinel:  ErrInvalidProperties,
			index:     0,
			featureID: "P",
			property:  "properties",
		},
		{
			name:      "bad geometry",
			doc:       `{"type":"FeatureCollection","features":[{"type":"Feature","id":"G","geometry":{"type":"invalid","coordinates":[1,2]}}]}`,
			sentinel:  geojson.ErrUnsupportedType,
			index:     0,
			featureID: "G",
			property:  "geometry",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ConvertJSON(tc.doc, baseURI)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel), "unexpected error: %v", err)

			var de *DocumentError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.index, de.Index)
			assert.Equal(t, tc.featureID, de.FeatureID)
			assert.Equal(t, tc.property, de.Property)
		})
	}
}

func TestGeometryFormatErrorIsReachable(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"G","geometry":{"type":"Point"}}]}`
	_, err := ConvertJSON(doc, baseURI)
	require.Error(t, err)

	var fe *geojson.FormatError
	require.True(t, errors.As(err, &fe))
	assert.True(t, errors.Is(err, geojson.ErrMissingCoordinates))
	assert.Contains(t, err.Error(), "(G)")
}

func TestConvertRejectsNonFiniteGeometry(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","id":"Big","geometry":{"type":"Point","coordinates":[1e400,2]}}]}`
	g, err := ConvertJSON(doc, baseURI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, geojson.ErrNonFinite))

	var de *DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Big", de.FeatureID)
	assert.False(t, g.Contains(rdf.Triple{S: iri("Big-Geometry"), P: rdf.RDFType, O: rdf.GeoGeometry}))
}

func TestErrorExcerptKeepsRunesWhole(t *testing.T) {
	long := strings.Repeat("é", 40)
	out := excerpt(long)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.LessOrEqual(t, len(out), 63)

	doc := `{"type":"FeatureCollection","features":["` + long + `"]}`
	_, err := ConvertJSON(doc, baseURI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFeature))
	assert.True(t, utf8.ValidString(err.Error()))
}

func TestConvertLeavesPartialGraph(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"Good","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"NotAFeature"}
	]}`

	g, err := ConvertJSON(doc, baseURI)
	require.Error(t, err)

	var de *DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Index)

	assert.Equal(t, 7, g.Len())
	assert.True(t, g.Contains(rdf.Triple{S: iri("Good"), P: rdf.RDFType, O: rdf.GeoFeature}))
}

func TestConvertIntoSink(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]}}
	]}`

	var triples []rdf.Triple
	sink := rdf.SinkFunc(func(t rdf.Triple) { triples = append(triples, t) })
	require.NoError(t, ConvertInto(gjson.Parse(doc), baseURI, sink))
	assert.Len(t, triples, 14)
}

func TestFeatureRecordModel(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"M","geometry":{"type": "Point", "coordinates": [1, 2]}}
	]}`

	var rec *FeatureRecord
	require.NoError(t, Walk(gjson.Parse(doc), baseURI, func(r *FeatureRecord) error {
		rec = r
		return nil
	}))

	m := rec.Model()
	assert.Equal(t, "M", m.ID)
	assert.Equal(t, baseURI+"M", m.URI)
	assert.Equal(t, baseURI+"M-Geometry", m.GeometryURI)
	assert.Equal(t, `{"type":"Point","coordinates":[1,2]}`, m.GeoJSON)
	assert.Equal(t, geometry.CRS84URI, m.SRS)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]}}
	]}`
	stop := errors.New("stop")
	calls := 0
	err := Walk(gjson.Parse(doc), baseURI, func(*FeatureRecord) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func BenchmarkConvert(b *testing.B) {
	doc := gjson.Parse(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"A","geometry":{"type":"Polygon","coordinates":[[[30,10],[40,40],[20,40],[10,20],[30,10]]]},"properties":{"name":"a","n":1}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"ok":true}}
	]}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Convert(doc, baseURI)
	}
}
