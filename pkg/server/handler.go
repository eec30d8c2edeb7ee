// Package server exposes the geometry codec, the mapper and the feature
// index over HTTP
package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/kass/geojson-rdf/pkg/mapper"
	"github.com/kass/geojson-rdf/pkg/models"
	"github.com/kass/geojson-rdf/pkg/rdf"
	"github.com/kass/geojson-rdf/pkg/rtree"
	"github.com/tidwall/gjson"
)

// maxBodySize bounds request documents
const maxBodySize = 32 << 20

var contentTypes = map[rdf.Format]string{
	rdf.FormatNTriples: "application/n-triples",
	rdf.FormatNQuads:   "application/n-quads",
	rdf.FormatTurtle:   "text/turtle",
	rdf.FormatTriG:     "application/trig",
	rdf.FormatJSONLD:   "application/ld+json",
}

// Handler serves the API over one feature index
type Handler struct {
	index *rtree.FeatureIndex
}

// NewHandler creates a handler, index may be empty but not nil
func NewHandler(index *rtree.FeatureIndex) *Handler {
	return &Handler{index: index}
}

// LiteralResponse describes a parsed geometry literal
type LiteralResponse struct {
	Kind      geometry.Kind          `json:"kind"`
	Dimension geometry.DimensionInfo `json:"dimension"`
	SRS       string                 `json:"srs"`
	GeoJSON   string                 `json:"geojson"`
	WKT       string                 `json:"wkt"`
	Envelope  *geometry.Envelope     `json:"envelope,omitempty"`
}

// FeaturesResponse lists index query results
type FeaturesResponse struct {
	Count    int               `json:"count"`
	Features []*models.Feature `json:"features"`
}

// ReadLiteral parses a geometry literal and reports its classification
// POST /api/v1/literal
func (h *Handler) ReadLiteral(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	lit, err := geojson.Read(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid geometry literal",
			"details": err.Error(),
		})
		return
	}

	text, err := geojson.Write(lit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid geometry literal",
			"details": err.Error(),
		})
		return
	}
	wkt, err := geometry.WKT(lit.Geometry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to render WKT",
			"details": err.Error(),
		})
		return
	}

	resp := LiteralResponse{
		Kind:      lit.Geometry.Kind(),
		Dimension: lit.Dimension,
		SRS:       lit.SRS,
		GeoJSON:   text,
		WKT:       wkt,
	}
	if env, ok := geometry.EnvelopeOf(lit.Geometry); ok {
		resp.Envelope = &env
	}
	c.JSON(http.StatusOK, resp)
}

type convertQuery struct {
	Base   string `form:"base"`
	Format string `form:"format"`
	Graph  string `form:"graph"`
	Index  bool   `form:"index"`
}

// Convert maps a FeatureCollection to RDF in the requested format. With
// index=true the converted features are also added to the feature index.
// POST /api/v1/convert
func (h *Handler) Convert(c *gin.Context) {
	var q convertQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}
	if q.Base == "" {
		q.Base = loader.DefaultBaseURI
	}
	if q.Format == "" {
		q.Format = string(rdf.FormatNTriples)
	}
	format, err := rdf.ParseFormat(q.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid format",
			"details": err.Error(),
		})
		return
	}

	body, ok := readBody(c)
	if !ok {
		return
	}

	if !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid feature collection",
			"details": (&mapper.DocumentError{Index: -1, Err: mapper.ErrInvalidDocument}).Error(),
		})
		return
	}

	d := rdf.NewDataset()
	var features []*models.Feature
	g := d.Graph(q.Graph)
	err = mapper.Walk(gjson.ParseBytes(body), q.Base, func(r *mapper.FeatureRecord) error {
		r.Emit(g, q.Base)
		m := r.Model()
		m.Graph = q.Graph
		features = append(features, m)
		return nil
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid feature collection",
			"details": err.Error(),
		})
		return
	}

	if q.Index {
		if err := h.index.IndexFeatures(features); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to index features",
				"details": err.Error(),
			})
			return
		}
	}

	var buf bytes.Buffer
	if err := rdf.Encode(&buf, d, format); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to encode RDF",
			"details": err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

type boxQuery struct {
	MinLon *float64 `form:"min_lon" binding:"required"`
	MinLat *float64 `form:"min_lat" binding:"required"`
	MaxLon *float64 `form:"max_lon" binding:"required"`
	MaxLat *float64 `form:"max_lat" binding:"required"`
}

// QueryBox returns the features intersecting a bounding box
// GET /api/v1/features/box
func (h *Handler) QueryBox(c *gin.Context) {
	var q boxQuery
	if !bindQuery(c, &q) {
		return
	}

	features, err := h.index.QueryBox(models.BoundingBox{
		BottomLeft: models.Location{Lon: *q.MinLon, Lat: *q.MinLat},
		TopRight:   models.Location{Lon: *q.MaxLon, Lat: *q.MaxLat},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query failed",
			"details": err.Error(),
		})
		return
	}
	respondFeatures(c, features)
}

type radiusQuery struct {
	Lon *float64 `form:"lon" binding:"required"`
	Lat *float64 `form:"lat" binding:"required"`
	Km  float64  `form:"km" binding:"required,gt=0"`
}

// QueryRadius returns the features within a distance of a point
// GET /api/v1/features/radius
func (h *Handler) QueryRadius(c *gin.Context) {
	var q radiusQuery
	if !bindQuery(c, &q) {
		return
	}

	features, err := h.index.QueryRadius(models.Location{Lon: *q.Lon, Lat: *q.Lat}, q.Km)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query failed",
			"details": err.Error(),
		})
		return
	}
	respondFeatures(c, features)
}

type nearestQuery struct {
	Lon *float64 `form:"lon" binding:"required"`
	Lat *float64 `form:"lat" binding:"required"`
	N   int      `form:"n,default=10" binding:"gt=0,lte=1000"`
}

// Nearest returns the n features closest to a point
// GET /api/v1/features/nearest
func (h *Handler) Nearest(c *gin.Context) {
	var q nearestQuery
	if !bindQuery(c, &q) {
		return
	}
	respondFeatures(c, h.index.NearestNeighbors(models.Location{Lon: *q.Lon, Lat: *q.Lat}, q.N))
}

type pointQuery struct {
	Lon *float64 `form:"lon" binding:"required"`
	Lat *float64 `form:"lat" binding:"required"`
}

// Contains returns the features whose geometry contains a point
// GET /api/v1/features/contains
func (h *Handler) Contains(c *gin.Context) {
	var q pointQuery
	if !bindQuery(c, &q) {
		return
	}
	respondFeatures(c, h.index.Contains(models.Location{Lon: *q.Lon, Lat: *q.Lat}))
}

// Stats reports the size of the feature index
// GET /api/v1/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"features": h.index.Count(),
	})
}

func bindQuery(c *gin.Context, q interface{}) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func respondFeatures(c *gin.Context, features []*models.Feature) {
	if features == nil {
		features = []*models.Feature{}
	}
	c.JSON(http.StatusOK, FeaturesResponse{Count: len(features), Features: features})
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{
			"error":   "failed to read body",
			"details": err.Error(),
		})
		return nil, false
	}
	return body, true
}
