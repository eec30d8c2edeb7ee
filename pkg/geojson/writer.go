package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/tidwall/pretty"
)

// Write serializes a literal as compact GeoJSON. srsURI is only written
// when it differs from CRS84.
func Write(lit *geometry.Literal) (string, error) {
	b, err := appendLiteral(nil, lit.Geometry, lit.SRS)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteGeometry serializes g with the given SRS URI
func WriteGeometry(g geometry.Geometry, srs string) (string, error) {
	b, err := appendLiteral(nil, g, srs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteIndent is Write with indentation
func WriteIndent(lit *geometry.Literal) (string, error) {
	b, err := appendLiteral(nil, lit.Geometry, lit.SRS)
	if err != nil {
		return "", err
	}
	return string(pretty.PrettyOptions(b, &pretty.Options{Width: 80, Indent: "  "})), nil
}

func appendLiteral(dst []byte, g geometry.Geometry, srs string) ([]byte, error) {
	if g == nil {
		return nil, newFormatError("", "", fmt.Errorf("%w: nil geometry", ErrUnsupportedType))
	}
	dst = append(dst, '{')
	dst, err := appendBody(dst, g)
	if err != nil {
		return nil, err
	}
	if srs != "" && srs != geometry.CRS84URI {
		dst = append(dst, `,"`+SRSURIKey+`":`...)
		dst = appendString(dst, srs)
	}
	return append(dst, '}'), nil
}

// appendBody writes the type member and the coordinates or geometries member
func appendBody(dst []byte, g geometry.Geometry) ([]byte, error) {
	kind := g.Kind()
	dst = append(dst, `"`+TypeKey+`":`...)
	dst = appendString(dst, string(kind))

	if c, ok := g.(geometry.GeometryCollection); ok {
		dst = append(dst, `,"`+GeometriesKey+`":[`...)
		for i, m := range c.Geometries {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, '{')
			var err error
			if dst, err = appendBody(dst, m); err != nil {
				return nil, err
			}
			dst = append(dst, '}')
		}
		return append(dst, ']'), nil
	}

	dst = append(dst, `,"`+CoordinatesKey+`":`...)
	dst, err := appendCoordinates(dst, g)
	if err != nil {
		return nil, newFormatError(string(kind), "", err)
	}
	return dst, nil
}

func appendCoordinates(dst []byte, g geometry.Geometry) ([]byte, error) {
	switch v := g.(type) {
	case geometry.Point:
		if v.Coord == nil {
			return append(dst, '[', ']'), nil
		}
		return appendPosition(dst, *v.Coord)
	case geometry.LineString:
		return appendPositions(dst, v.Coords)
	case geometry.Polygon:
		return appendRings(dst, v.Rings())
	case geometry.MultiPoint:
		dst = append(dst, '[')
		n := 0
		for _, p := range v.Points {
			if p.Coord == nil {
				continue
			}
			if n > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendPosition(dst, *p.Coord); err != nil {
				return nil, err
			}
			n++
		}
		return append(dst, ']'), nil
	case geometry.MultiLineString:
		dst = append(dst, '[')
		for i, l := range v.Lines {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendPositions(dst, l.Coords); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case geometry.MultiPolygon:
		dst = append(dst, '[')
		for i, p := range v.Polygons {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendRings(dst, p.Rings()); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, g.Kind())
}

func appendRings(dst []byte, rings [][]geometry.Coordinate) ([]byte, error) {
	dst = append(dst, '[')
	for i, r := range rings {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendPositions(dst, r); err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}

func appendPositions(dst []byte, coords []geometry.Coordinate) ([]byte, error) {
	dst = append(dst, '[')
	for i, c := range coords {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = appendPosition(dst, c); err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}

func appendPosition(dst []byte, c geometry.Coordinate) ([]byte, error) {
	var err error
	dst = append(dst, '[')
	if dst, err = appendNumber(dst, c.X); err != nil {
		return nil, err
	}
	dst = append(dst, ',')
	if dst, err = appendNumber(dst, c.Y); err != nil {
		return nil, err
	}
	if c.HasZ {
		dst = append(dst, ',')
		if dst, err = appendNumber(dst, c.Z); err != nil {
			return nil, err
		}
	}
	return append(dst, ']'), nil
}

// appendNumber writes the shortest decimal that parses back to v, keeping
// a fractional part on integral values (11 is written as 11.0).
func appendNumber(dst []byte, v float64) ([]byte, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	for _, ch := range dst[start:] {
		if ch == '.' {
			return dst, nil
		}
	}
	return append(dst, '.', '0'), nil
}

func appendString(dst []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(dst, b...)
}
