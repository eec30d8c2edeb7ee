package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/kass/geojson-rdf/pkg/postgis"
	"github.com/spf13/cobra"
)

var (
	dsnParam   string
	resetTable bool
	querySRID  int
)

var postgisCmd = &cobra.Command{
	Use:   "postgis",
	Short: "Store converted features in PostGIS and query them",
}

var postgisLoadCmd = &cobra.Command{
	Use:     "load",
	Short:   "Convert GeoJSON files and bulk insert their features into PostGIS",
	Example: `  geojson-rdf postgis load --geojson-file uk.json --dsn "host=localhost user=postgres dbname=geodb sslmode=disable"`,
	RunE:    runPostgisLoad,
}

var postgisQueryCmd = &cobra.Command{
	Use:     "query",
	Short:   "Find stored features whose geometry intersects a bounding box",
	Example: `  geojson-rdf postgis query --bbox -125,32,-114,42 --srid 4326`,
	RunE:    runPostgisQuery,
}

func init() {
	postgisCmd.PersistentFlags().StringVar(&dsnParam, "dsn", "", "PostgreSQL connection string, built from the config when empty")

	postgisLoadCmd.Flags().StringVarP(&geojsonFiles, "geojson-file", "g", "", "GeoJSON files as file|baseURI>graph, comma separated")
	postgisLoadCmd.Flags().BoolVar(&resetTable, "reset", false, "Drop and recreate the feature table")
	postgisLoadCmd.Flags().IntVarP(&numWorkers, "workers", "w", 0, "Number of files converted in parallel")
	postgisLoadCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Report invalid files instead of failing")

	postgisQueryCmd.Flags().StringVar(&bboxParam, "bbox", "", "Bounding box as minLon,minLat,maxLon,maxLat")
	postgisQueryCmd.Flags().IntVar(&querySRID, "srid", postgis.DefaultSRID, "SRID of the bounding box and of the features searched")

	postgisCmd.AddCommand(postgisLoadCmd, postgisQueryCmd)
}

func openStore(cmd *cobra.Command) (*postgis.FeatureStore, error) {
	dsn := cfg.PostGIS.DSN()
	if cmd.Flags().Changed("dsn") {
		dsn = dsnParam
	}
	printInfo(fmt.Sprintf("Connecting to PostGIS at %s:%d/%s...", cfg.PostGIS.Host, cfg.PostGIS.Port, cfg.PostGIS.DBName))
	return postgis.NewFeatureStore(cmd.Context(), dsn)
}

func runPostgisLoad(cmd *cobra.Command, args []string) error {
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

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.InitSchema(ctx, resetTable); err != nil {
		return err
	}

	start := time.Now()
	if err := store.BulkInsertFeatures(ctx, features); err != nil {
		return err
	}
	insertTime := time.Since(start)

	start = time.Now()
	if err := store.CreateSpatialIndex(ctx); err != nil {
		return err
	}
	indexTime := time.Since(start)

	stats := []stat{
		{"Files", len(report.Files)},
		{"Failed", report.Failed},
		{"Features", len(features)},
		{"Insert time", insertTime.Round(time.Millisecond)},
		{"Index time", indexTime.Round(time.Millisecond)},
	}
	dbStats, err := store.GetDatabaseStats(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(dbStats))
	for k := range dbStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stats = append(stats, stat{k, dbStats[k]})
	}
	printSummary("PostGIS load", stats)
	printSuccess("Features stored")
	return nil
}

func runPostgisQuery(cmd *cobra.Command, args []string) error {
	box, err := parseBBox(bboxParam)
	if err != nil {
		return err
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	results, err := store.QueryBox(cmd.Context(), box, querySRID)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := printFeatures(cmd, results); err != nil {
		return err
	}
	printSummary("PostGIS query", []stat{
		{"SRID", querySRID},
		{"Results", len(results)},
		{"Query time", elapsed},
	})
	return nil
}
