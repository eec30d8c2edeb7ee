// Package mapper converts a GeoJSON FeatureCollection into GeoSPARQL statements.
//
// For every Feature the mapper emits the feature resource typed geo:Feature,
// its id under <base>id, a geometry resource typed geo:Geometry linked by
// geo:hasGeometry and geo:hasDefaultGeometry, the geometry literal under
// geo:asGeoJSON and geo:hasSerialization, and one statement per property or
// foreign member under <base><name>.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/kass/geojson-rdf/pkg/models"
	"github.com/kass/geojson-rdf/pkg/rdf"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const (
	TypeKey       = "type"
	IDKey         = "id"
	URIKey        = "uri"
	GeometryKey   = "geometry"
	PropertiesKey = "properties"
	FeaturesKey   = "features"

	FeatureType           = "Feature"
	FeatureCollectionType = "FeatureCollection"

	// GeometrySuffix is appended to the feature URI when the geometry has no uri
	GeometrySuffix = "-Geometry"
)

// Member is a named property value already typed as a literal
type Member struct {
	Name  string
	Value rdf.Literal
}

// FeatureRecord is one resolved Feature, built while walking the collection
type FeatureRecord struct {
	Index          int
	ID             string
	URI            string
	GeometryURI    string
	Geometry       *geometry.Literal
	Properties     []Member
	ForeignMembers []Member
}

// Emit writes the statements of r into sink
func (r *FeatureRecord) Emit(sink rdf.Sink, baseURI string) {
	feature := rdf.NewIRI(r.URI)
	geom := rdf.NewIRI(r.GeometryURI)

	sink.Add(rdf.Triple{S: feature, P: rdf.RDFType, O: rdf.GeoFeature})
	sink.Add(rdf.Triple{S: feature, P: rdf.NewIRI(baseURI + IDKey), O: rdf.NewString(r.ID)})

	sink.Add(rdf.Triple{S: geom, P: rdf.RDFType, O: rdf.GeoGeometry})
	sink.Add(rdf.Triple{S: feature, P: rdf.GeoHasGeometry, O: geom})
	sink.Add(rdf.Triple{S: feature, P: rdf.GeoHasDefaultGeometry, O: geom})

	lit := rdf.NewLiteral(r.Geometry.Lexical, rdf.GeoJSONLiteral)
	sink.Add(rdf.Triple{S: geom, P: rdf.GeoAsGeoJSON, O: lit})
	sink.Add(rdf.Triple{S: geom, P: rdf.GeoHasSerialization, O: lit})

	for _, m := range r.Properties {
		sink.Add(rdf.Triple{S: feature, P: rdf.NewIRI(baseURI + m.Name), O: m.Value})
	}
	for _, m := range r.ForeignMembers {
		sink.Add(rdf.Triple{S: feature, P: rdf.NewIRI(baseURI + m.Name), O: m.Value})
	}
}

// Model returns the index/persistence row of the feature
func (r *FeatureRecord) Model() *models.Feature {
	return &models.Feature{
		ID:          r.ID,
		URI:         r.URI,
		GeometryURI: r.GeometryURI,
		GeoJSON:     r.Geometry.Lexical,
		SRS:         r.Geometry.SRS,
	}
}

// Convert maps a FeatureCollection into a new graph. On error the graph
// holds the statements of every feature before the failing one.
func Convert(doc gjson.Result, baseURI string) (*rdf.Graph, error) {
	g := rdf.NewGraph()
	err := ConvertInto(doc, baseURI, g)
	return g, err
}

// ConvertJSON parses text and maps it
func ConvertJSON(text, baseURI string) (*rdf.Graph, error) {
	if !gjson.Valid(text) {
		return rdf.NewGraph(), &DocumentError{Index: -1, Err: ErrInvalidDocument}
	}
	return Convert(gjson.Parse(text), baseURI)
}

// ConvertInto maps a FeatureCollection into sink
func ConvertInto(doc gjson.Result, baseURI string, sink rdf.Sink) error {
	return Walk(doc, baseURI, func(r *FeatureRecord) error {
		r.Emit(sink, baseURI)
		return nil
	})
}

// Walk resolves each Feature in order and hands it to fn. The walk stops
// at the first invalid Feature or the first error returned by fn.
func Walk(doc gjson.Result, baseURI string, fn func(*FeatureRecord) error) error {
	features := doc.Get(FeaturesKey)
	if !doc.IsObject() || doc.Get(TypeKey).String() != FeatureCollectionType || !features.IsArray() {
		return &DocumentError{Index: -1, Err: ErrNotFeatureCollection}
	}

	counter := 0
	for i, f := range features.Array() {
		rec, next, err := readFeature(i, f, baseURI, counter)
		if err != nil {
			return err
		}
		counter = next
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func readFeature(index int, f gjson.Result, baseURI string, counter int) (*FeatureRecord, int, error) {
	if !f.IsObject() || f.Get(TypeKey).String() != FeatureType {
		return nil, counter, &DocumentError{
			Index: index,
			Err:   fmt.Errorf("%w: %s", ErrNotFeature, typeOf(f)),
		}
	}

	id, uri, counter, err := resolveID(f, baseURI, counter)
	if err != nil {
		return nil, counter, &DocumentError{Index: index, Err: err}
	}
	rec := &FeatureRecord{Index: index, ID: id, URI: uri}
	docErr := func(property string, err error) error {
		return &DocumentError{Index: index, FeatureID: id, Property: property, Err: err}
	}

	geom := f.Get(GeometryKey)
	if !geom.IsObject() {
		return nil, counter, docErr("", ErrMissingGeometry)
	}
	lit, err := geojson.ReadValue(geom)
	if err != nil {
		return nil, counter, docErr(GeometryKey, err)
	}
	lit.Lexical = string(pretty.Ugly([]byte(geom.Raw)))
	rec.Geometry = lit

	rec.GeometryURI = uri + GeometrySuffix
	if gu := geom.Get(URIKey); gu.Exists() {
		if gu.Type != gjson.String {
			return nil, counter, docErr(GeometryKey+"."+URIKey, ErrInvalidURI)
		}
		rec.GeometryURI = gu.Str
	}

	if props := f.Get(PropertiesKey); props.Exists() && props.Type != gjson.Null {
		if !props.IsObject() {
			return nil, counter, docErr(PropertiesKey, ErrInvalidProperties)
		}
		var propErr error
		props.ForEach(func(key, value gjson.Result) bool {
			lit, err := Literal(value)
			if err != nil {
				propErr = docErr(key.String(), err)
				return false
			}
			rec.Properties = append(rec.Properties, Member{Name: key.String(), Value: lit})
			return true
		})
		if propErr != nil {
			return nil, counter, propErr
		}
	}

	var foreignErr error
	f.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch name {
		case IDKey, TypeKey, PropertiesKey, GeometryKey:
			return true
		}
		lit, err := Literal(value)
		if err != nil {
			foreignErr = docErr(name, err)
			return false
		}
		rec.ForeignMembers = append(rec.ForeignMembers, Member{Name: name, Value: lit})
		return true
	})
	if foreignErr != nil {
		return nil, counter, foreignErr
	}

	return rec, counter, nil
}

// resolveID returns the feature id and URI together with the updated
// counter. Only synthesized ids advance the counter.
func resolveID(f gjson.Result, baseURI string, counter int) (string, string, int, error) {
	var id string
	switch v := f.Get(IDKey); {
	case !v.Exists():
		id = FeatureType + strconv.Itoa(counter)
		counter++
	case v.Type == gjson.String:
		id = v.Str
	case v.Type == gjson.Number:
		id = v.Raw
	default:
		return "", "", counter, fmt.Errorf("%w: %s", ErrInvalidID, v.Raw)
	}

	uri := baseURI + id
	if u := f.Get(URIKey); u.Exists() {
		if u.Type != gjson.String {
			return "", "", counter, fmt.Errorf("%w: %s", ErrInvalidURI, u.Raw)
		}
		uri = u.Str
	}
	return id, uri, counter, nil
}

// Literal types a JSON value: booleans as xsd:boolean, numbers as
// xsd:integer, xsd:decimal or xsd:double depending on their lexical form
// and strings as xsd:string. Other kinds are rejected.
func Literal(v gjson.Result) (rdf.Literal, error) {
	switch v.Type {
	case gjson.True, gjson.False:
		return rdf.NewLiteral(strconv.FormatBool(v.Bool()), rdf.XSDBoolean), nil
	case gjson.Number:
		return rdf.NewLiteral(v.Raw, numberType(v.Raw)), nil
	case gjson.String:
		return rdf.NewString(v.Str), nil
	}
	return rdf.Literal{}, fmt.Errorf("%w: %s", ErrUnsupportedValue, excerpt(v.Raw))
}

func numberType(raw string) rdf.IRI {
	switch {
	case strings.ContainsAny(raw, "eE"):
		return rdf.XSDDouble
	case strings.Contains(raw, "."):
		return rdf.XSDDecimal
	}
	return rdf.XSDInteger
}

func typeOf(f gjson.Result) string {
	if !f.IsObject() {
		return excerpt(f.Raw)
	}
	if t := f.Get(TypeKey); t.Exists() {
		return "type " + t.Raw
	}
	return "no type"
}

func excerpt(s string) string {
	if len(s) <= 60 {
		return s
	}
	cut := 60
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
