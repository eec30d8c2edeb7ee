// Package geometry holds the in-memory geometry model shared by the GeoJSON
// codec, the feature index and the PostGIS store.
//
// Values are immutable once built and safe to share between goroutines.
package geometry

// Kind names one of the seven GeoJSON geometry shapes
type Kind string

const (
	KindPoint              Kind = "Point"
	KindLineString         Kind = "LineString"
	KindPolygon            Kind = "Polygon"
	KindMultiPoint         Kind = "MultiPoint"
	KindMultiLineString    Kind = "MultiLineString"
	KindMultiPolygon       Kind = "MultiPolygon"
	KindGeometryCollection Kind = "GeometryCollection"
)

// Kinds lists every supported kind in GeoJSON order
var Kinds = []Kind{
	KindPoint,
	KindLineString,
	KindPolygon,
	KindMultiPoint,
	KindMultiLineString,
	KindMultiPolygon,
	KindGeometryCollection,
}

// ParseKind matches name case-sensitively against the supported kinds
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Coordinate is a 2D or 3D position. Z is only meaningful when HasZ is set.
type Coordinate struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z,omitempty"`
	HasZ bool    `json:"has_z,omitempty"`
}

// XY creates a 2D coordinate
func XY(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

// XYZ creates a 3D coordinate
func XYZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z, HasZ: true}
}

// Dimension returns 3 when the coordinate carries a z ordinate, else 2
func (c Coordinate) Dimension() int {
	if c.HasZ {
		return 3
	}
	return 2
}

// Equal compares ordinates; z is ignored unless both sides carry one
func (c Coordinate) Equal(o Coordinate) bool {
	if c.HasZ != o.HasZ {
		return false
	}
	if c.X != o.X || c.Y != o.Y {
		return false
	}
	return !c.HasZ || c.Z == o.Z
}

// Geometry is implemented by the seven value types of this package only.
type Geometry interface {
	Kind() Kind
	IsEmpty() bool
	sealed()
}

// Point is a single position. A nil Coord is the empty point.
type Point struct {
	Coord *Coordinate
}

// LineString is an ordered sequence of positions
type LineString struct {
	Coords []Coordinate
}

// Polygon is one shell ring plus zero or more hole rings. Ring closure is not checked.
type Polygon struct {
	Shell []Coordinate
	Holes [][]Coordinate
}

// MultiPoint may contain empty points
type MultiPoint struct {
	Points []Point
}

type MultiLineString struct {
	Lines []LineString
}

type MultiPolygon struct {
	Polygons []Polygon
}

// GeometryCollection holds heterogeneous members, nested to any depth
type GeometryCollection struct {
	Geometries []Geometry
}

func (Point) Kind() Kind              { return KindPoint }
func (LineString) Kind() Kind         { return KindLineString }
func (Polygon) Kind() Kind            { return KindPolygon }
func (MultiPoint) Kind() Kind         { return KindMultiPoint }
func (MultiLineString) Kind() Kind    { return KindMultiLineString }
func (MultiPolygon) Kind() Kind       { return KindMultiPolygon }
func (GeometryCollection) Kind() Kind { return KindGeometryCollection }

func (p Point) IsEmpty() bool      { return p.Coord == nil }
func (l LineString) IsEmpty() bool { return len(l.Coords) == 0 }
func (p Polygon) IsEmpty() bool    { return len(p.Shell) == 0 }

func (m MultiPoint) IsEmpty() bool {
	for _, p := range m.Points {
		if !p.IsEmpty() {
			return false
		}
	}
	return true
}

func (m MultiLineString) IsEmpty() bool {
	for _, l := range m.Lines {
		if !l.IsEmpty() {
			return false
		}
	}
	return true
}

func (m MultiPolygon) IsEmpty() bool {
	for _, p := range m.Polygons {
		if !p.IsEmpty() {
			return false
		}
	}
	return true
}

func (c GeometryCollection) IsEmpty() bool {
	for _, g := range c.Geometries {
		if !g.IsEmpty() {
			return false
		}
	}
	return true
}

func (Point) sealed()              {}
func (LineString) sealed()         {}
func (Polygon) sealed()            {}
func (MultiPoint) sealed()         {}
func (MultiLineString) sealed()    {}
func (MultiPolygon) sealed()       {}
func (GeometryCollection) sealed() {}

// NewPoint creates a non-empty point
func NewPoint(c Coordinate) Point {
	return Point{Coord: &c}
}

// NewPolygon creates a polygon from a shell and optional holes. A polygon
// without holes keeps a nil hole list.
func NewPolygon(shell []Coordinate, holes ...[]Coordinate) Polygon {
	if len(holes) == 0 {
		return Polygon{Shell: shell}
	}
	return Polygon{Shell: shell, Holes: holes}
}

// Rings returns the shell followed by the holes, or nil for an empty polygon
func (p Polygon) Rings() [][]Coordinate {
	if p.IsEmpty() {
		return nil
	}
	rings := make([][]Coordinate, 0, 1+len(p.Holes))
	rings = append(rings, p.Shell)
	return append(rings, p.Holes...)
}

// Walk visits every coordinate of g depth-first until fn returns false.
// Empty parts are skipped.
func Walk(g Geometry, fn func(Coordinate) bool) bool {
	switch v := g.(type) {
	case Point:
		if v.Coord != nil {
			return fn(*v.Coord)
		}
	case LineString:
		return walkCoords(v.Coords, fn)
	case Polygon:
		for _, ring := range v.Rings() {
			if !walkCoords(ring, fn) {
				return false
			}
		}
	case MultiPoint:
		for _, p := range v.Points {
			if !Walk(p, fn) {
				return false
			}
		}
	case MultiLineString:
		for _, l := range v.Lines {
			if !walkCoords(l.Coords, fn) {
				return false
			}
		}
	case MultiPolygon:
		for _, p := range v.Polygons {
			if !Walk(p, fn) {
				return false
			}
		}
	case GeometryCollection:
		for _, m := range v.Geometries {
			if !Walk(m, fn) {
				return false
			}
		}
	}
	return true
}

func walkCoords(coords []Coordinate, fn func(Coordinate) bool) bool {
	for _, c := range coords {
		if !fn(c) {
			return false
		}
	}
	return true
}

// FirstCoordinate returns the first coordinate in depth-first order
func FirstCoordinate(g Geometry) (Coordinate, bool) {
	var first Coordinate
	found := false
	Walk(g, func(c Coordinate) bool {
		first = c
		found = true
		return false
	})
	return first, found
}

// Coordinates flattens g into a single slice
func Coordinates(g Geometry) []Coordinate {
	var out []Coordinate
	Walk(g, func(c Coordinate) bool {
		out = append(out, c)
		return true
	})
	return out
}
