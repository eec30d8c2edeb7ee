// Package loader converts GeoJSON FeatureCollection files into an RDF
// dataset, one target graph per file
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kass/geojson-rdf/pkg/mapper"
	"github.com/kass/geojson-rdf/pkg/models"
	"github.com/kass/geojson-rdf/pkg/rdf"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURI is used for sources that do not name a base URI
	DefaultBaseURI = "http://example.org/undefined_base_geoJson#"

	sourceSep  = ","
	graphSep   = ">"
	baseURISep = "|"
)

var (
	ErrEmptySource     = errors.New("empty source")
	ErrGraphBeforeBase = errors.New("graph name must follow the base URI")
)

// Source is one GeoJSON file together with the base URI its features are
// minted under and the graph they are loaded into. An empty Graph is the
// default graph.
type Source struct {
	File    string `yaml:"file"`
	BaseURI string `yaml:"base_uri,omitempty"`
	Graph   string `yaml:"graph,omitempty"`
}

// ParseSources parses a comma separated list of file|baseURI>graph entries
func ParseSources(value string) ([]Source, error) {
	var sources []Source
	for _, entry := range strings.Split(value, sourceSep) {
		src, err := ParseSource(entry)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// ParseSource parses a single file|baseURI>graph entry. Both parts are
// optional but the graph name must come last.
func ParseSource(value string) (Source, error) {
	value = strings.TrimSpace(value)
	graphIdx := strings.Index(value, graphSep)
	baseIdx := strings.Index(value, baseURISep)
	if graphIdx > -1 && baseIdx > -1 && graphIdx < baseIdx {
		return Source{}, fmt.Errorf("%w: %q", ErrGraphBeforeBase, value)
	}

	src := Source{BaseURI: DefaultBaseURI}
	target := value
	if before, after, ok := strings.Cut(target, graphSep); ok {
		target, src.Graph = before, after
	}
	if before, after, ok := strings.Cut(target, baseURISep); ok {
		target = before
		if after != "" {
			src.BaseURI = after
		}
	}
	src.File = target
	if src.File == "" {
		return Source{}, fmt.Errorf("%w: %q", ErrEmptySource, value)
	}
	return src, nil
}

func (s Source) String() string {
	var b strings.Builder
	b.WriteString(s.File)
	b.WriteString(baseURISep)
	b.WriteString(s.BaseURI)
	if s.Graph != "" {
		b.WriteString(graphSep)
		b.WriteString(s.Graph)
	}
	return b.String()
}

// Options tunes a load
type Options struct {
	// Workers bounds the number of files converted at once, NumCPU when zero
	Workers int
	// SkipInvalid logs and reports failing files instead of aborting
	SkipInvalid bool
}

// FileReport describes the outcome of one source
type FileReport struct {
	Source   Source
	Features int
	Triples  int
	Elapsed  time.Duration
	Err      error
}

// Report summarizes a load
type Report struct {
	Files    []FileReport
	Features int
	Triples  int
	Failed   int
	Elapsed  time.Duration
}

// Load converts every source and merges the graphs into a dataset in source
// order
func Load(ctx context.Context, sources []Source, opts Options) (*rdf.Dataset, *Report, error) {
	results, report, err := run(ctx, sources, opts)
	if err != nil {
		return nil, report, err
	}

	d := rdf.NewDataset()
	for i, res := range results {
		if res.graph == nil {
			continue
		}
		d.Merge(sources[i].Graph, res.graph)
	}
	return d, report, nil
}

// LoadFeatures converts every source and returns the feature rows in source
// order, each tagged with the graph of its source
func LoadFeatures(ctx context.Context, sources []Source, opts Options) ([]*models.Feature, *Report, error) {
	results, report, err := run(ctx, sources, opts)
	if err != nil {
		return nil, report, err
	}

	var features []*models.Feature
	for _, res := range results {
		features = append(features, res.features...)
	}
	return features, report, nil
}

type fileResult struct {
	graph    *rdf.Graph
	features []*models.Feature
}

func run(ctx context.Context, sources []Source, opts Options) ([]fileResult, *Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	results := make([]fileResult, len(sources))
	files := make([]FileReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			fileStart := time.Now()
			res, err := convertFile(src)
			files[i] = FileReport{Source: src, Elapsed: time.Since(fileStart), Err: err}
			if err != nil {
				if opts.SkipInvalid {
					log.Warn().Err(err).Str("file", src.File).Msg("skipping invalid file")
					return nil
				}
				return fmt.Errorf("failed to convert %s: %w", src.File, err)
			}

			results[i] = res
			files[i].Features = len(res.features)
			files[i].Triples = res.graph.Len()
			log.Info().
				Str("file", src.File).
				Str("graph", src.Graph).
				Int("features", files[i].Features).
				Int("triples", files[i].Triples).
				Dur("elapsed", files[i].Elapsed).
				Msg("converted file")
			return nil
		})
	}
	err := g.Wait()

	report := &Report{Files: files, Elapsed: time.Since(start)}
	for _, f := range files {
		report.Features += f.Features
		report.Triples += f.Triples
		if f.Err != nil {
			report.Failed++
		}
	}
	if err != nil {
		return nil, report, err
	}
	return results, report, nil
}

func convertFile(src Source) (fileResult, error) {
	data, err := os.ReadFile(src.File)
	if err != nil {
		return fileResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return fileResult{}, &mapper.DocumentError{Index: -1, Err: mapper.ErrInvalidDocument}
	}

	res := fileResult{graph: rdf.NewGraph()}
	err = mapper.Walk(gjson.ParseBytes(data), src.BaseURI, func(r *mapper.FeatureRecord) error {
		r.Emit(res.graph, src.BaseURI)
		m := r.Model()
		m.Graph = src.Graph
		res.features = append(res.features, m)
		return nil
	})
	if err != nil {
		return fileResult{}, err
	}
	return res, nil
}
