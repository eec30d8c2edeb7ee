// Package postgis stores mapped features in a PostGIS table so that the
// converted data can be queried next to the RDF output
package postgis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/kass/geojson-rdf/pkg/models"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultSRID is the SRID of CRS84 data
	DefaultSRID = 4326

	batchSize = 10000
	tableName = "geo_features"
)

// ErrUnknownSRS is returned for SRS URIs that have no EPSG code
var ErrUnknownSRS = errors.New("unknown SRS URI")

// SRIDFromURI maps an SRS URI to a PostGIS SRID. CRS84 (or no URI) is 4326,
// EPSG URIs carry their code.
func SRIDFromURI(uri string) (int, error) {
	if uri == "" || uri == geometry.CRS84URI {
		return DefaultSRID, nil
	}
	code, ok := strings.CutPrefix(uri, geometry.EPSGPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSRS, uri)
	}
	srid, err := strconv.Atoi(code)
	if err != nil || srid <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSRS, uri)
	}
	return srid, nil
}

// FeatureStore keeps feature rows with a PostGIS geometry column
type FeatureStore struct {
	db *sql.DB
}

// NewFeatureStore opens a PostGIS connection for the given DSN
func NewFeatureStore(ctx context.Context, dsn string) (*FeatureStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &FeatureStore{db: db}, nil
}

// InitSchema creates the feature table. An existing table is dropped when
// reset is set.
func (s *FeatureStore) InitSchema(ctx context.Context, reset bool) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
	}
	if reset {
		queries = append(queries, `DROP TABLE IF EXISTS `+tableName+`;`)
	}
	queries = append(queries, `CREATE TABLE IF NOT EXISTS `+tableName+` (
			uri TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			geometry_uri TEXT NOT NULL,
			graph TEXT NOT NULL DEFAULT '',
			srs TEXT NOT NULL,
			geojson TEXT NOT NULL,
			geom GEOMETRY
		);`)

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column
func (s *FeatureStore) CreateSpatialIndex(ctx context.Context) error {
	query := `CREATE INDEX IF NOT EXISTS idx_geo_features_geom ON ` + tableName + ` USING GIST(geom);`

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	// Analyze table for better query planning
	if _, err := s.db.ExecContext(ctx, "ANALYZE "+tableName+";"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("created spatial index")
	return nil
}

// BulkInsertFeatures inserts or replaces features in batched transactions.
// The geometry column is built by PostGIS from the canonical GeoJSON of each
// feature with the SRID of its SRS URI.
func (s *FeatureStore) BulkInsertFeatures(ctx context.Context, features []*models.Feature) error {
	// Prepare statement
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO `+tableName+` (uri, id, geometry_uri, graph, srs, geojson, geom)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_GeomFromGeoJSON($7), $8))
		ON CONFLICT (uri) DO UPDATE SET
			id = EXCLUDED.id,
			geometry_uri = EXCLUDED.geometry_uri,
			graph = EXCLUDED.graph,
			srs = EXCLUDED.srs,
			geojson = EXCLUDED.geojson,
			geom = EXCLUDED.geom
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Begin transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.StmtContext(ctx, stmt)

	start := time.Now()
	for i, f := range features {
		body, srid, err := postgisGeometry(f)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to prepare feature %s: %w", f.URI, err)
		}
		srs := f.SRS
		if srs == "" {
			srs = geometry.CRS84URI
		}

		if _, err := txStmt.ExecContext(ctx, f.URI, f.ID, f.GeometryURI, f.Graph, srs, f.GeoJSON, body, srid); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert feature %s: %w", f.URI, err)
		}

		// Commit batch
		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			log.Debug().Int("inserted", i+1).Msg("committed batch")

			// Start new transaction
			tx, err = s.db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.StmtContext(ctx, stmt)
		}
	}

	// Commit final batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	log.Info().
		Int("features", len(features)).
		Dur("elapsed", time.Since(start)).
		Msg("inserted features")
	return nil
}

// postgisGeometry re-serializes the feature geometry without srsURI, the
// SRS travels as the SRID instead
func postgisGeometry(f *models.Feature) (string, int, error) {
	lit, err := geojson.Read(f.GeoJSON)
	if err != nil {
		return "", 0, err
	}
	srid, err := SRIDFromURI(lit.SRS)
	if err != nil {
		return "", 0, err
	}
	body, err := geojson.WriteGeometry(lit.Geometry, "")
	if err != nil {
		return "", 0, err
	}
	return body, srid, nil
}

// QueryBox returns the features with the given SRID whose geometry
// intersects the envelope
func (s *FeatureStore) QueryBox(ctx context.Context, box models.BoundingBox, srid int) ([]*models.Feature, error) {
	query := `
		SELECT uri, id, geometry_uri, graph, srs, geojson
		FROM ` + tableName + `
		WHERE ST_SRID(geom) = $5 AND geom && ST_MakeEnvelope($1, $2, $3, $4, $5)
		ORDER BY uri
	`

	rows, err := s.db.QueryContext(ctx, query,
		box.BottomLeft.Lon, box.BottomLeft.Lat,
		box.TopRight.Lon, box.TopRight.Lat,
		srid)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []*models.Feature
	for rows.Next() {
		f := &models.Feature{}
		if err := rows.Scan(&f.URI, &f.ID, &f.GeometryURI, &f.Graph, &f.SRS, &f.GeoJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// Count returns the number of features in the database
func (s *FeatureStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+tableName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count features: %w", err)
	}
	return count, nil
}

// GetDatabaseStats returns database size and table statistics
func (s *FeatureStore) GetDatabaseStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	stats["row_count"] = count

	var dbSize string
	err = s.db.QueryRowContext(ctx, `
		SELECT pg_size_pretty(pg_database_size(current_database()))
	`).Scan(&dbSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get database size: %w", err)
	}
	stats["database_size"] = dbSize

	var tableSize, indexSize string
	err = s.db.QueryRowContext(ctx, `
		SELECT
			pg_size_pretty(pg_total_relation_size('`+tableName+`')) as total_size,
			pg_size_pretty(pg_indexes_size('`+tableName+`')) as index_size
	`).Scan(&tableSize, &indexSize)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get table size")
		stats["table_size"] = "0 bytes"
		stats["index_size"] = "0 bytes"
	} else {
		stats["table_size"] = tableSize
		stats["index_size"] = indexSize
	}

	return stats, nil
}

// Close closes the database connection
func (s *FeatureStore) Close() error {
	return s.db.Close()
}
