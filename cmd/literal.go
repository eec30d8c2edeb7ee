package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kass/geojson-rdf/pkg/geojson"
	"github.com/kass/geojson-rdf/pkg/geometry"
	"github.com/spf13/cobra"
)

var prettyOutput bool

var literalCmd = &cobra.Command{
	Use:   "literal [text]",
	Short: "Read a GeoJSON geometry literal and print its canonical form",
	Long: `Read a GeoJSON geometry literal, report its type, dimensions and SRS, and
print the canonical GeoJSON. The literal is read from stdin when no argument is given.`,
	Example: `  geojson-rdf literal '{"type":"Point","coordinates":[102,0.5]}'`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runLiteral,
}

func init() {
	literalCmd.Flags().BoolVarP(&prettyOutput, "pretty", "p", false, "Indent the canonical GeoJSON")
}

func runLiteral(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}

	lit, err := geojson.Read(text)
	if err != nil {
		return err
	}

	write := geojson.Write
	if prettyOutput {
		write = geojson.WriteIndent
	}
	canonical, err := write(lit)
	if err != nil {
		return err
	}

	stats := []stat{
		{"Type", lit.Geometry.Kind()},
		{"Coordinate dimension", lit.Dimension.Coordinate},
		{"Spatial dimension", lit.Dimension.Spatial},
		{"Topological dimension", lit.Dimension.Topological},
		{"SRS", lit.SRS},
	}
	if env, ok := geometry.EnvelopeOf(lit.Geometry); ok {
		stats = append(stats, stat{"Envelope", fmt.Sprintf("%g %g, %g %g", env.MinX, env.MinY, env.MaxX, env.MaxY)})
	}
	if wkt, err := geometry.WKT(lit.Geometry); err == nil {
		stats = append(stats, stat{"WKT", wkt})
	}
	printSummary("Geometry literal", stats)

	fmt.Fprintln(os.Stderr, render(subtitleStyle, "Canonical GeoJSON"))
	fmt.Fprintln(cmd.OutOrStdout(), canonical)
	return nil
}
