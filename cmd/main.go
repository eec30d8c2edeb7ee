package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kass/geojson-rdf/pkg/config"
	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "geojson-rdf",
	Short: "GeoJSON to GeoSPARQL RDF converter",
	Long: `Convert GeoJSON FeatureCollections into GeoSPARQL RDF, inspect geometry
literals, and index or store the converted features for spatial queries.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (auto, console, json)")

	rootCmd.AddCommand(convertCmd, literalCmd, indexCmd, postgisCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, render(errorStyle, "✗ "+err.Error()))
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger. Flags win over
// configuration values.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	return cfg.Log.Setup()
}

// sourcesFrom parses the --geojson-file parameter, falling back to the
// configured sources
func sourcesFrom(param string) ([]loader.Source, error) {
	if param != "" {
		return loader.ParseSources(param)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no GeoJSON sources: use --geojson-file or the sources section of the config")
	}
	return cfg.Sources, nil
}
