// Package geojson reads and writes GeoJSON geometry literals.
//
// A literal is a single geometry object:
//
//	{"type": "Point", "coordinates": [1, 2], "srsURI": "..."}
//
// srsURI is optional and defaults to CRS84.
package geojson

import (
	"fmt"
	"math"

	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/tidwall/gjson"
)

const (
	TypeKey        = "type"
	CoordinatesKey = "coordinates"
	GeometriesKey  = "geometries"
	SRSURIKey      = "srsURI"
)

// Read parses literal text into a geometry literal
func Read(text string) (*geometry.Literal, error) {
	if !gjson.Valid(text) {
		return nil, newFormatError("", text, ErrInvalidJSON)
	}
	lit, err := ReadValue(gjson.Parse(text))
	if err != nil {
		return nil, err
	}
	lit.Lexical = text
	return lit, nil
}

// ReadValue reads an already parsed geometry object. The literal's lexical
// form is the raw JSON of v.
func ReadValue(v gjson.Result) (*geometry.Literal, error) {
	if !v.IsObject() {
		return nil, newFormatError("", v.Raw, ErrInvalidJSON)
	}
	typ := v.Get(TypeKey)
	if !typ.Exists() {
		return nil, newFormatError("", v.Raw, ErrMissingType)
	}
	if !v.Get(CoordinatesKey).Exists() && !v.Get(GeometriesKey).Exists() {
		return nil, newFormatError(typ.String(), v.Raw, ErrMissingCoordinates)
	}

	g, err := buildObject(v)
	if err != nil {
		return nil, err
	}

	srs := geometry.CRS84URI
	if s := v.Get(SRSURIKey); s.Exists() {
		if s.Type != gjson.String {
			return nil, newFormatError(typ.String(), s.Raw, ErrInvalidSRS)
		}
		srs = s.Str
	}

	return &geometry.Literal{
		Geometry:  g,
		Dimension: Dimensions(g),
		SRS:       srs,
		Lexical:   v.Raw,
	}, nil
}

// buildObject dispatches a geometry object on its type. GeometryCollection
// reads "geometries", every other kind reads "coordinates".
func buildObject(v gjson.Result) (geometry.Geometry, error) {
	typ := v.Get(TypeKey)
	if !typ.Exists() {
		return nil, newFormatError("", v.Raw, ErrMissingType)
	}
	if typ.Type != gjson.String {
		return nil, newFormatError(typ.Raw, v.Raw, ErrUnsupportedType)
	}
	kind, ok := geometry.ParseKind(typ.Str)
	if !ok {
		return nil, newFormatError(typ.Str, v.Raw, fmt.Errorf("%w: %q", ErrUnsupportedType, typ.Str))
	}

	key := CoordinatesKey
	if kind == geometry.KindGeometryCollection {
		key = GeometriesKey
	}
	coords := v.Get(key)
	if !coords.Exists() {
		return nil, newFormatError(typ.Str, v.Raw, fmt.Errorf("%w %q", ErrMissingKey, key))
	}
	return Build(kind, coords)
}

// Build constructs a geometry of the given kind from its coordinate array
// (or member array for a GeometryCollection).
func Build(kind geometry.Kind, coords gjson.Result) (geometry.Geometry, error) {
	var (
		g   geometry.Geometry
		err error
	)
	switch kind {
	case geometry.KindPoint:
		g, err = buildPoint(coords)
	case geometry.KindLineString:
		g, err = buildLineString(coords)
	case geometry.KindPolygon:
		g, err = buildPolygon(coords)
	case geometry.KindMultiPoint:
		g, err = buildMultiPoint(coords)
	case geometry.KindMultiLineString:
		g, err = buildMultiLineString(coords)
	case geometry.KindMultiPolygon:
		g, err = buildMultiPolygon(coords)
	case geometry.KindGeometryCollection:
		g, err = buildCollection(coords)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedType, kind)
	}
	if err != nil {
		return nil, wrap(string(kind), coords.Raw, err)
	}
	return g, nil
}

// elements returns the members of a JSON array in order
func elements(v gjson.Result) ([]gjson.Result, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%w, got %s", ErrNotArray, describe(v))
	}
	return v.Array(), nil
}

// extractCoordinate reads a position of two or three numbers. An empty array
// yields nil, the absent coordinate.
func extractCoordinate(v gjson.Result) (*geometry.Coordinate, error) {
	ords, err := elements(v)
	if err != nil {
		return nil, err
	}
	switch len(ords) {
	case 0:
		return nil, nil
	case 1:
		return nil, fmt.Errorf("%w: got 1, want 2 or 3", ErrTooFewOrdinates)
	case 2, 3:
	default:
		return nil, fmt.Errorf("%w: got %d, want 2 or 3", ErrTooManyOrdinates, len(ords))
	}

	vals := make([]float64, len(ords))
	for i, o := range ords {
		if o.Type != gjson.Number {
			return nil, fmt.Errorf("%w: %s", ErrNotNumber, o.Raw)
		}
		if math.IsInf(o.Num, 0) || math.IsNaN(o.Num) {
			return nil, fmt.Errorf("%w: %s", ErrNonFinite, o.Raw)
		}
		vals[i] = o.Num
	}

	c := geometry.XY(vals[0], vals[1])
	if len(vals) == 3 {
		c = geometry.XYZ(vals[0], vals[1], vals[2])
	}
	return &c, nil
}

// extractCoordinates reads a list of required positions
func extractCoordinates(v gjson.Result) ([]geometry.Coordinate, error) {
	positions, err := elements(v)
	if err != nil {
		return nil, err
	}
	coords := make([]geometry.Coordinate, 0, len(positions))
	for _, p := range positions {
		c, err := extractCoordinate(p)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: empty position", ErrTooFewOrdinates)
		}
		coords = append(coords, *c)
	}
	return coords, nil
}

func buildPoint(v gjson.Result) (geometry.Point, error) {
	c, err := extractCoordinate(v)
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{Coord: c}, nil
}

func buildLineString(v gjson.Result) (geometry.LineString, error) {
	coords, err := extractCoordinates(v)
	if err != nil {
		return geometry.LineString{}, err
	}
	return geometry.LineString{Coords: coords}, nil
}

func buildPolygon(v gjson.Result) (geometry.Polygon, error) {
	rings, err := elements(v)
	if err != nil {
		return geometry.Polygon{}, err
	}
	if len(rings) == 0 {
		return geometry.Polygon{}, nil
	}

	shell, err := extractCoordinates(rings[0])
	if err != nil {
		return geometry.Polygon{}, err
	}
	var holes [][]geometry.Coordinate
	for _, r := range rings[1:] {
		hole, err := extractCoordinates(r)
		if err != nil {
			return geometry.Polygon{}, err
		}
		holes = append(holes, hole)
	}
	return geometry.NewPolygon(shell, holes...), nil
}

func buildMultiPoint(v gjson.Result) (geometry.MultiPoint, error) {
	items, err := elements(v)
	if err != nil {
		return geometry.MultiPoint{}, err
	}
	points := make([]geometry.Point, 0, len(items))
	for _, item := range items {
		p, err := buildPoint(item)
		if err != nil {
			return geometry.MultiPoint{}, err
		}
		points = append(points, p)
	}
	return geometry.MultiPoint{Points: points}, nil
}

func buildMultiLineString(v gjson.Result) (geometry.MultiLineString, error) {
	items, err := elements(v)
	if err != nil {
		return geometry.MultiLineString{}, err
	}
	lines := make([]geometry.LineString, 0, len(items))
	for _, item := range items {
		l, err := buildLineString(item)
		if err != nil {
			return geometry.MultiLineString{}, err
		}
		lines = append(lines, l)
	}
	return geometry.MultiLineString{Lines: lines}, nil
}

func buildMultiPolygon(v gjson.Result) (geometry.MultiPolygon, error) {
	items, err := elements(v)
	if err != nil {
		return geometry.MultiPolygon{}, err
	}
	polys := make([]geometry.Polygon, 0, len(items))
	for _, item := range items {
		p, err := buildPolygon(item)
		if err != nil {
			return geometry.MultiPolygon{}, err
		}
		polys = append(polys, p)
	}
	return geometry.MultiPolygon{Polygons: polys}, nil
}

func buildCollection(v gjson.Result) (geometry.GeometryCollection, error) {
	items, err := elements(v)
	if err != nil {
		return geometry.GeometryCollection{}, err
	}
	members := make([]geometry.Geometry, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			return geometry.GeometryCollection{}, fmt.Errorf("%w, got %s", ErrNotObject, describe(item))
		}
		g, err := buildObject(item)
		if err != nil {
			return geometry.GeometryCollection{}, err
		}
		members = append(members, g)
	}
	return geometry.GeometryCollection{Geometries: members}, nil
}

func describe(v gjson.Result) string {
	switch {
	case !v.Exists():
		return "nothing"
	case v.IsArray():
		return "array"
	case v.IsObject():
		return "object"
	}
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.False, gjson.True:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	return v.Type.String()
}
