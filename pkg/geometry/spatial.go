package geometry

import (
	"fmt"

	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

const earthRadius = 6371.0 // km

// Envelope is an axis-aligned bounding rectangle in coordinate space
type Envelope struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Intersects reports whether two envelopes share at least one point
func (e Envelope) Intersects(o Envelope) bool {
	return e.MinX <= o.MaxX && e.MaxX >= o.MinX &&
		e.MinY <= o.MaxY && e.MaxY >= o.MinY
}

// ContainsXY reports whether x/y lies inside or on the envelope
func (e Envelope) ContainsXY(x, y float64) bool {
	return x >= e.MinX && x <= e.MaxX && y >= e.MinY && y <= e.MaxY
}

// Clamp returns the point of the envelope closest to x/y in coordinate space
func (e Envelope) Clamp(x, y float64) (float64, float64) {
	return min(max(x, e.MinX), e.MaxX), min(max(y, e.MinY), e.MaxY)
}

// Layout picks the go-geom layout from the first coordinate of g
func Layout(g Geometry) geom.Layout {
	if c, ok := FirstCoordinate(g); ok && c.HasZ {
		return geom.XYZ
	}
	return geom.XY
}

// ToGeom converts g into a go-geom value. Every coordinate is projected onto
// the layout chosen by Layout. Empty points inside a MultiPoint are dropped.
func ToGeom(g Geometry) (geom.T, error) {
	return toGeom(g, Layout(g))
}

func toGeom(g Geometry, layout geom.Layout) (geom.T, error) {
	switch v := g.(type) {
	case Point:
		if v.Coord == nil {
			return geom.NewPointEmpty(layout), nil
		}
		return geom.NewPoint(layout).SetCoords(toCoord(*v.Coord, layout))
	case LineString:
		return geom.NewLineString(layout).SetCoords(toCoords(v.Coords, layout))
	case Polygon:
		return geom.NewPolygon(layout).SetCoords(toRings(v.Rings(), layout))
	case MultiPoint:
		coords := make([]geom.Coord, 0, len(v.Points))
		for _, p := range v.Points {
			if p.Coord != nil {
				coords = append(coords, toCoord(*p.Coord, layout))
			}
		}
		return geom.NewMultiPoint(layout).SetCoords(coords)
	case MultiLineString:
		lines := make([][]geom.Coord, 0, len(v.Lines))
		for _, l := range v.Lines {
			lines = append(lines, toCoords(l.Coords, layout))
		}
		return geom.NewMultiLineString(layout).SetCoords(lines)
	case MultiPolygon:
		polys := make([][][]geom.Coord, 0, len(v.Polygons))
		for _, p := range v.Polygons {
			polys = append(polys, toRings(p.Rings(), layout))
		}
		return geom.NewMultiPolygon(layout).SetCoords(polys)
	case GeometryCollection:
		gc := geom.NewGeometryCollection()
		for _, m := range v.Geometries {
			t, err := toGeom(m, layout)
			if err != nil {
				return nil, err
			}
			if err := gc.Push(t); err != nil {
				return nil, fmt.Errorf("failed to add %s to collection: %w", m.Kind(), err)
			}
		}
		return gc, nil
	}
	return nil, fmt.Errorf("unsupported geometry %T", g)
}

func toCoord(c Coordinate, layout geom.Layout) geom.Coord {
	if layout == geom.XYZ {
		return geom.Coord{c.X, c.Y, c.Z}
	}
	return geom.Coord{c.X, c.Y}
}

func toCoords(coords []Coordinate, layout geom.Layout) []geom.Coord {
	out := make([]geom.Coord, len(coords))
	for i, c := range coords {
		out[i] = toCoord(c, layout)
	}
	return out
}

func toRings(rings [][]Coordinate, layout geom.Layout) [][]geom.Coord {
	out := make([][]geom.Coord, len(rings))
	for i, r := range rings {
		out[i] = toCoords(r, layout)
	}
	return out
}

// EnvelopeOf returns the bounding rectangle of g, false when g has no coordinates
func EnvelopeOf(g Geometry) (Envelope, bool) {
	if g == nil || g.IsEmpty() {
		return Envelope{}, false
	}
	t, err := ToGeom(g)
	if err != nil {
		return Envelope{}, false
	}
	b := t.Bounds()
	if b.IsEmpty() {
		return Envelope{}, false
	}
	return Envelope{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)}, true
}

// WKT renders g as Well-Known Text
func WKT(g Geometry) (string, error) {
	t, err := ToGeom(g)
	if err != nil {
		return "", fmt.Errorf("failed to convert geometry: %w", err)
	}
	s, err := wkt.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal WKT: %w", err)
	}
	return s, nil
}

// Distance returns the great-circle distance in km between two lon/lat positions
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadius
}

// Contains reports whether the lon/lat position lies inside g. Areal members
// are tested on the sphere; points and lines only match exact vertices.
func Contains(g Geometry, lon, lat float64) bool {
	switch v := g.(type) {
	case Polygon:
		poly := toS2Polygon(v)
		if poly == nil {
			return false
		}
		return poly.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
	case MultiPolygon:
		for _, p := range v.Polygons {
			if Contains(p, lon, lat) {
				return true
			}
		}
		return false
	case GeometryCollection:
		for _, m := range v.Geometries {
			if Contains(m, lon, lat) {
				return true
			}
		}
		return false
	}
	found := false
	Walk(g, func(c Coordinate) bool {
		found = c.X == lon && c.Y == lat
		return !found
	})
	return found
}

func toS2Polygon(p Polygon) *s2.Polygon {
	var loops []*s2.Loop
	for _, ring := range p.Rings() {
		if len(ring) > 1 && ring[0].Equal(ring[len(ring)-1]) {
			ring = ring[:len(ring)-1]
		}
		if len(ring) < 3 {
			continue
		}
		pts := make([]s2.Point, 0, len(ring))
		for _, c := range ring {
			pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(c.Y, c.X)))
		}
		loop := s2.LoopFromPoints(pts)
		loop.Normalize()
		loops = append(loops, loop)
	}
	if len(loops) == 0 {
		return nil
	}
	return s2.PolygonFromLoops(loops)
}
