package models

// Location represents a geographic position in CRS84 order
type Location struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Location `json:"bottom_left"`
	TopRight   Location `json:"top_right"`
}

// Contains reports whether loc lies inside or on the box
func (b BoundingBox) Contains(loc Location) bool {
	return loc.Lat >= b.BottomLeft.Lat && loc.Lat <= b.TopRight.Lat &&
		loc.Lon >= b.BottomLeft.Lon && loc.Lon <= b.TopRight.Lon
}

// Feature is the indexed and persisted form of a mapped GeoJSON feature
type Feature struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	GeometryURI string `json:"geometry_uri"`
	GeoJSON     string `json:"geojson"`
	SRS         string `json:"srs,omitempty"`
	Graph       string `json:"graph,omitempty"`
}
