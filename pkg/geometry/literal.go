package geometry

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

const (
	// CRS84URI is the default spatial reference system (WGS84 lon/lat)
	CRS84URI = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
	// OSGB36URI is the British National Grid
	OSGB36URI = "http://www.opengis.net/def/crs/EPSG/0/27700"
	// EPSGPrefix is the namespace of EPSG coordinate reference systems
	EPSGPrefix = "http://www.opengis.net/def/crs/EPSG/0/"
)

// DimensionInfo classifies a geometry. It is computed once when the geometry
// is read and compared by value afterwards.
type DimensionInfo struct {
	Coordinate  int `json:"coordinate"`
	Spatial     int `json:"spatial"`
	Topological int `json:"topological"`
}

// NewDimensionInfo creates a dimension classification
func NewDimensionInfo(coordinate, spatial, topological int) DimensionInfo {
	return DimensionInfo{Coordinate: coordinate, Spatial: spatial, Topological: topological}
}

// Literal is a geometry together with its dimension info, SRS URI and the
// text it was read from.
type Literal struct {
	Geometry  Geometry
	Dimension DimensionInfo
	SRS       string
	Lexical   string
}

// IsDefaultSRS reports whether the literal uses CRS84
func (l *Literal) IsDefaultSRS() bool {
	return l.SRS == "" || l.SRS == CRS84URI
}

// Equal compares all four fields structurally
func (l *Literal) Equal(o *Literal) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.Dimension == o.Dimension &&
		l.SRS == o.SRS &&
		l.Lexical == o.Lexical &&
		Equal(l.Geometry, o.Geometry)
}

// Hash returns a 64-bit hash consistent with Equal
func (l *Literal) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeInt(l.Dimension.Coordinate)
	writeInt(l.Dimension.Spatial)
	writeInt(l.Dimension.Topological)
	h.Write([]byte(l.SRS))
	h.Write([]byte{0})
	h.Write([]byte(l.Lexical))
	h.Write([]byte{0})
	hashGeometry(h, l.Geometry, writeInt, buf[:])
	return h.Sum64()
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func hashGeometry(h byteWriter, g Geometry, writeInt func(int), buf []byte) {
	if g == nil {
		h.Write([]byte{0})
		return
	}
	h.Write([]byte(g.Kind()))
	writeFloat := func(v float64) {
		if v == 0 {
			v = 0 // fold -0 into +0
		}
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	writeCoords := func(coords []Coordinate) {
		writeInt(len(coords))
		for _, c := range coords {
			writeFloat(c.X)
			writeFloat(c.Y)
			if c.HasZ {
				h.Write([]byte{1})
				writeFloat(c.Z)
			} else {
				h.Write([]byte{0})
			}
		}
	}
	switch v := g.(type) {
	case Point:
		if v.Coord == nil {
			writeCoords(nil)
		} else {
			writeCoords([]Coordinate{*v.Coord})
		}
	case LineString:
		writeCoords(v.Coords)
	case Polygon:
		rings := v.Rings()
		writeInt(len(rings))
		for _, r := range rings {
			writeCoords(r)
		}
	case MultiPoint:
		writeInt(len(v.Points))
		for _, p := range v.Points {
			hashGeometry(h, p, writeInt, buf)
		}
	case MultiLineString:
		writeInt(len(v.Lines))
		for _, l := range v.Lines {
			writeCoords(l.Coords)
		}
	case MultiPolygon:
		writeInt(len(v.Polygons))
		for _, p := range v.Polygons {
			hashGeometry(h, p, writeInt, buf)
		}
	case GeometryCollection:
		writeInt(len(v.Geometries))
		for _, m := range v.Geometries {
			hashGeometry(h, m, writeInt, buf)
		}
	}
}

// Equal reports whether a and b have the same kind and the same coordinates
// in the same structure. Nil and empty slices compare equal.
func Equal(a, b Geometry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Point:
		y := b.(Point)
		if x.Coord == nil || y.Coord == nil {
			return x.Coord == nil && y.Coord == nil
		}
		return x.Coord.Equal(*y.Coord)
	case LineString:
		return coordsEqual(x.Coords, b.(LineString).Coords)
	case Polygon:
		xr, yr := x.Rings(), b.(Polygon).Rings()
		if len(xr) != len(yr) {
			return false
		}
		for i := range xr {
			if !coordsEqual(xr[i], yr[i]) {
				return false
			}
		}
		return true
	case MultiPoint:
		y := b.(MultiPoint)
		if len(x.Points) != len(y.Points) {
			return false
		}
		for i := range x.Points {
			if !Equal(x.Points[i], y.Points[i]) {
				return false
			}
		}
		return true
	case MultiLineString:
		y := b.(MultiLineString)
		if len(x.Lines) != len(y.Lines) {
			return false
		}
		for i := range x.Lines {
			if !coordsEqual(x.Lines[i].Coords, y.Lines[i].Coords) {
				return false
			}
		}
		return true
	case MultiPolygon:
		y := b.(MultiPolygon)
		if len(x.Polygons) != len(y.Polygons) {
			return false
		}
		for i := range x.Polygons {
			if !Equal(x.Polygons[i], y.Polygons[i]) {
				return false
			}
		}
		return true
	case GeometryCollection:
		y := b.(GeometryCollection)
		if len(x.Geometries) != len(y.Geometries) {
			return false
		}
		for i := range x.Geometries {
			if !Equal(x.Geometries[i], y.Geometries[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func coordsEqual(a, b []Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
