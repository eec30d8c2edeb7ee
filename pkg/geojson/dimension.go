package geojson

import "github.com/kass/geojson-rdf/pkg/geometry"

// Dimensions classifies a built geometry. Coordinate and spatial dimension
// come from the first coordinate found depth-first (2 when there is none);
// mixed 2D/3D input is not detected.
func Dimensions(g geometry.Geometry) geometry.DimensionInfo {
	dim := 2
	if c, ok := geometry.FirstCoordinate(g); ok {
		dim = c.Dimension()
	}
	return geometry.NewDimensionInfo(dim, dim, TopologicalDimension(g))
}

// TopologicalDimension is 0 for point-like, 1 for curve-like and 2 for
// area-like kinds. A collection takes the maximum of its members.
func TopologicalDimension(g geometry.Geometry) int {
	switch v := g.(type) {
	case geometry.Point, geometry.MultiPoint:
		return 0
	case geometry.LineString, geometry.MultiLineString:
		return 1
	case geometry.Polygon, geometry.MultiPolygon:
		return 2
	case geometry.GeometryCollection:
		top := 0
		for _, m := range v.Geometries {
			top = max(top, TopologicalDimension(m))
		}
		return top
	}
	return 0
}
