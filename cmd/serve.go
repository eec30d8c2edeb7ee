package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/kass/geojson-rdf/pkg/rtree"
	"github.com/kass/geojson-rdf/pkg/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveIndex string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the literal, conversion and feature query HTTP API",
	Long: `Serve the HTTP API. The feature index starts from a saved index file, from
GeoJSON files converted at startup, or empty. Features converted through
POST /api/v1/convert?index=true are added while the server runs.`,
	Example: `  geojson-rdf serve --addr :8080 --index features.gob`,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address")
	serveCmd.Flags().StringVar(&serveIndex, "index", "", "Saved index file to serve")
	serveCmd.Flags().StringVarP(&geojsonFiles, "geojson-file", "g", "", "GeoJSON files to convert and index at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	index := rtree.NewFeatureIndexWithPartitions(cfg.Index.Partitions)
	switch {
	case serveIndex != "":
		printInfo(fmt.Sprintf("Loading index from %s...", serveIndex))
		if err := index.LoadFromFile(serveIndex); err != nil {
			return fmt.Errorf("failed to load index: %w", err)
		}
	case geojsonFiles != "" || len(cfg.Sources) > 0:
		sources, err := sourcesFrom(geojsonFiles)
		if err != nil {
			return err
		}
		features, _, err := loader.LoadFeatures(cmd.Context(), sources, loader.Options{
			Workers:     cfg.Workers,
			SkipInvalid: cfg.SkipInvalid,
		})
		if err != nil {
			return err
		}
		if err := index.IndexFeatures(features); err != nil {
			return err
		}
	}

	printSummary("Server", []stat{
		{"Address", cfg.Server.Addr},
		{"Indexed features", index.Count()},
	})
	router := server.NewRouter(server.NewHandler(index))
	return server.Run(cmd.Context(), cfg.Server.Addr, router)
}
