package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/kass/geojson-rdf/pkg/models"
	"github.com/kass/geojson-rdf/pkg/rtree"
	"github.com/spf13/cobra"
)

var (
	indexFile     string
	numPartitions int
	queryType     string
	bboxParam     string
	centerLon     float64
	centerLat     float64
	searchRadius  float64
	numNeighbors  int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and query the spatial feature index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Convert GeoJSON files and save their features as an R-Tree index",
	RunE:  runIndexBuild,
}

var indexQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a box, radius, nearest or contains query against a saved index",
	Example: `  geojson-rdf index query --type box --bbox -125,32,-114,42
  geojson-rdf index query --type radius --lon -122.42 --lat 37.77 --radius 50
  geojson-rdf index query --type nearest --lon -122.42 --lat 37.77 -n 5
  geojson-rdf index query --type contains --lon 100.5 --lat 0.5`,
	RunE: runIndexQuery,
}

func init() {
	indexCmd.PersistentFlags().StringVarP(&indexFile, "file", "f", "", "Index file path")

	indexBuildCmd.Flags().StringVarP(&geojsonFiles, "geojson-file", "g", "", "GeoJSON files as file|baseURI>graph, comma separated")
	indexBuildCmd.Flags().IntVarP(&numPartitions, "partitions", "p", 0, "Number of longitude partitions, NumCPU when zero")
	indexBuildCmd.Flags().IntVarP(&numWorkers, "workers", "w", 0, "Number of files converted in parallel")
	indexBuildCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Report invalid files instead of failing")

	addQueryFlags(indexQueryCmd)
	indexQueryCmd.Flags().StringVarP(&queryType, "type", "t", "box", "Query type (box, radius, nearest, contains)")
	indexQueryCmd.Flags().Float64VarP(&searchRadius, "radius", "r", 50.0, "Search radius in km")
	indexQueryCmd.Flags().IntVarP(&numNeighbors, "neighbors", "n", 10, "Number of nearest neighbors to find")

	indexCmd.AddCommand(indexBuildCmd, indexQueryCmd)
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bboxParam, "bbox", "", "Bounding box as minLon,minLat,maxLon,maxLat")
	cmd.Flags().Float64Var(&centerLon, "lon", 0, "Longitude of the query point")
	cmd.Flags().Float64Var(&centerLat, "lat", 0, "Latitude of the query point")
}

func resolveIndexFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("file") {
		cfg.Index.Path = indexFile
	}
	if cmd.Flags().Changed("partitions") {
		cfg.Index.Partitions = numPartitions
	}
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	resolveIndexFlags(cmd)
	sources, err := sourcesFrom(geojsonFiles)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = numWorkers
	}
	if cmd.Flags().Changed("skip-invalid") {
		cfg.SkipInvalid = skipInvalid
	}

	features, report, err := loader.LoadFeatures(cmd.Context(), sources, loader.Options{
		Workers:     cfg.Workers,
		SkipInvalid: cfg.SkipInvalid,
	})
	if err != nil {
		return err
	}

	index := rtree.NewFeatureIndexWithPartitions(cfg.Index.Partitions)
	start := time.Now()
	if err := index.IndexFeatures(features); err != nil {
		return err
	}
	indexTime := time.Since(start)

	if err := index.SaveToFile(cfg.Index.Path); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	printSummary("Feature index", []stat{
		{"Files", len(report.Files)},
		{"Failed", report.Failed},
		{"Features", len(features)},
		{"Indexed", index.Count()},
		{"Conversion time", report.Elapsed.Round(time.Millisecond)},
		{"Index time", indexTime.Round(time.Millisecond)},
	})
	printSuccess(fmt.Sprintf("Index saved to %s", cfg.Index.Path))
	return nil
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	resolveIndexFlags(cmd)

	index := rtree.NewFeatureIndex()
	printInfo(fmt.Sprintf("Loading index from %s...", cfg.Index.Path))
	if err := index.LoadFromFile(cfg.Index.Path); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	center := models.Location{Lon: centerLon, Lat: centerLat}
	start := time.Now()

	var (
		results []*models.Feature
		err     error
	)
	switch queryType {
	case "box":
		box, perr := parseBBox(bboxParam)
		if perr != nil {
			return perr
		}
		results, err = index.QueryBox(box)
	case "radius":
		results, err = index.QueryRadius(center, searchRadius)
	case "nearest":
		results = index.NearestNeighbors(center, numNeighbors)
	case "contains":
		results = index.Contains(center)
	default:
		return fmt.Errorf("unknown query type %q", queryType)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := printFeatures(cmd, results); err != nil {
		return err
	}
	printSummary("Query", []stat{
		{"Type", queryType},
		{"Indexed features", index.Count()},
		{"Results", len(results)},
		{"Query time", elapsed},
	})
	return nil
}

func printFeatures(cmd *cobra.Command, features []*models.Feature) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, f := range features {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("failed to write feature: %w", err)
		}
	}
	return nil
}

// parseBBox parses minLon,minLat,maxLon,maxLat
func parseBBox(value string) (models.BoundingBox, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return models.BoundingBox{}, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat, got %q", value)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.BoundingBox{}, fmt.Errorf("failed to parse bbox: %w", err)
		}
		v[i] = f
	}
	return models.BoundingBox{
		BottomLeft: models.Location{Lon: v[0], Lat: v[1]},
		TopRight:   models.Location{Lon: v[2], Lat: v[3]},
	}, nil
}
