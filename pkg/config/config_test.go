package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
sources:
  - file: test.json
    base_uri: http://example.org/geoJsonTest#
    graph: test
  - file: other.json
output:
  format: ttl
  path: out.ttl
workers: 8
skip_invalid: true
index:
  path: idx.gob
  partitions: 16
postgis:
  host: db
  password: secret
server:
  addr: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []loader.Source{
		{File: "test.json", BaseURI: "http://example.org/geoJsonTest#", Graph: "test"},
		{File: "other.json", BaseURI: loader.DefaultBaseURI},
	}, cfg.Sources)
	assert.Equal(t, Output{Format: "ttl", Path: "out.ttl"}, cfg.Output)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.SkipInvalid)
	assert.Equal(t, Index{Path: "idx.gob", Partitions: 16}, cfg.Index)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "host=db port=5432 user=postgres password=secret dbname=geodb sslmode=disable", cfg.PostGIS.DSN())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, "nt", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Sources)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		path    func(t *testing.T) string
		message string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") },
			message: "failed to read config",
		},
		{
			name:    "bad yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "workers: [1") },
			message: "failed to parse config",
		},
		{
			name:    "source without file",
			path:    func(t *testing.T) string { return writeConfig(t, "sources:\n  - graph: g\n") },
			message: "source 0: file is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
