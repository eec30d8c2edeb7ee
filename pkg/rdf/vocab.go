package rdf

const (
	GeoNS = "http://www.opengis.net/ont/geosparql#"
	RDFNS = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNS = "http://www.w3.org/2001/XMLSchema#"
)

// GeoSPARQL vocabulary
var (
	GeoFeature            = IRI{GeoNS + "Feature"}
	GeoGeometry           = IRI{GeoNS + "Geometry"}
	GeoHasGeometry        = IRI{GeoNS + "hasGeometry"}
	GeoHasDefaultGeometry = IRI{GeoNS + "hasDefaultGeometry"}
	GeoAsGeoJSON          = IRI{GeoNS + "asGeoJSON"}
	GeoHasSerialization   = IRI{GeoNS + "hasSerialization"}
	GeoJSONLiteral        = IRI{GeoNS + "geoJSONLiteral"}
)

var RDFType = IRI{RDFNS + "type"}

// XML Schema datatypes
var (
	XSDString  = IRI{XSDNS + "string"}
	XSDBoolean = IRI{XSDNS + "boolean"}
	XSDInteger = IRI{XSDNS + "integer"}
	XSDDecimal = IRI{XSDNS + "decimal"}
	XSDDouble  = IRI{XSDNS + "double"}
)

// Prefixes returns the default prefix mapping used by the Turtle and
// JSON-LD encoders
func Prefixes() map[string]string {
	return map[string]string{
		"geo": GeoNS,
		"rdf": RDFNS,
		"xsd": XSDNS,
	}
}
