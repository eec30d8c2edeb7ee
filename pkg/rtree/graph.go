package rtree

import (
	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/mapper"
	"github.com/kass/geojson-rdf/pkg/models"
	"github.com/kass/geojson-rdf/pkg/rdf"
)

// FeaturesFromGraph derives index rows from a converted graph: every
// geo:Feature with a default geometry carrying a GeoJSON literal. The id is
// read from <baseURI>id and falls back to the feature URI. Features whose
// literal cannot be read are left out.
func FeaturesFromGraph(g *rdf.Graph, baseURI string) []*models.Feature {
	idPredicate := rdf.NewIRI(baseURI + mapper.IDKey)

	var out []*models.Feature
	for _, s := range g.Subjects(rdf.RDFType, rdf.GeoFeature) {
		feature, ok := s.(rdf.IRI)
		if !ok {
			continue
		}
		geomTerm, ok := g.Object(feature, rdf.GeoHasDefaultGeometry)
		if !ok {
			if geomTerm, ok = g.Object(feature, rdf.GeoHasGeometry); !ok {
				continue
			}
		}
		geom, ok := geomTerm.(rdf.IRI)
		if !ok {
			continue
		}
		litTerm, ok := g.Object(geom, rdf.GeoAsGeoJSON)
		if !ok {
			continue
		}
		lit, ok := litTerm.(rdf.Literal)
		if !ok || lit.Datatype != rdf.GeoJSONLiteral {
			continue
		}
		parsed, err := geojson.Read(lit.Lexical)
		if err != nil {
			continue
		}

		id := feature.Value
		if t, ok := g.Object(feature, idPredicate); ok {
			if l, ok := t.(rdf.Literal); ok {
				id = l.Lexical
			}
		}

		out = append(out, &models.Feature{
			ID:          id,
			URI:         feature.Value,
			GeometryURI: geom.Value,
			GeoJSON:     lit.Lexical,
			SRS:         parsed.SRS,
		})
	}
	return out
}
