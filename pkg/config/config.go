// Package config handles configuration loading for the commands
package config

import (
	"fmt"
	"os"

	"github.com/kass/geojson-rdf/pkg/loader"
	"github.com/kass/geojson-rdf/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure
type Config struct {
	Log         logger.Logger   `yaml:"log"`
	Sources     []loader.Source `yaml:"sources"`
	Output      Output          `yaml:"output"`
	Index       Index           `yaml:"index"`
	PostGIS     PostGIS         `yaml:"postgis"`
	Server      Server          `yaml:"server"`
	Workers     int             `yaml:"workers,omitempty"`
	SkipInvalid bool            `yaml:"skip_invalid,omitempty"`
}

// Output selects the RDF serialization and its destination, stdout when Path is empty
type Output struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path,omitempty"`
}

// Index configures the on-disk feature index
type Index struct {
	Path       string `yaml:"path,omitempty"`
	Partitions int    `yaml:"partitions,omitempty"`
}

// PostGIS holds the connection settings of the feature store
type PostGIS struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders the lib/pq connection string
func (p PostGIS) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Server configures the HTTP listener
type Server struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	for i, s := range cfg.Sources {
		if s.File == "" {
			return nil, fmt.Errorf("source %d: file is required", i)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Format == "" {
		c.Log.Format = logger.FormatAuto
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Sources {
		if c.Sources[i].BaseURI == "" {
			c.Sources[i].BaseURI = loader.DefaultBaseURI
		}
	}
	if c.Output.Format == "" {
		c.Output.Format = "nt"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Index.Path == "" {
		c.Index.Path = "features.gob"
	}
	if c.PostGIS.Host == "" {
		c.PostGIS.Host = "localhost"
	}
	if c.PostGIS.Port == 0 {
		c.PostGIS.Port = 5432
	}
	if c.PostGIS.User == "" {
		c.PostGIS.User = "postgres"
	}
	if c.PostGIS.DBName == "" {
		c.PostGIS.DBName = "geodb"
	}
	if c.PostGIS.SSLMode == "" {
		c.PostGIS.SSLMode = "disable"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}
