// Package config loads climaql settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/climaql/internal/predicate"
)

// Collections names the ArangoDB collections queries run against.
type Collections struct {
	Properties string `yaml:"properties"`
	Map        string `yaml:"map"`
}

// Log configures the process logger.
type Log struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Config is the climaql configuration file.
type Config struct {
	Collections Collections `yaml:"collections"`

	// Registry is a path to a .cue or .yaml variable catalog. Empty means the
	// embedded default catalog.
	Registry string `yaml:"registry"`

	// Journal is the SQLite compilation journal. Empty disables journaling.
	Journal string `yaml:"journal"`

	Log    Log              `yaml:"log"`
	Layout predicate.Layout `yaml:"layout"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Collections: Collections{
			Properties: "properties",
			Map:        "map",
		},
		Log:    Log{Level: "info"},
		Layout: predicate.DefaultLayout(),
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current
// value; unknown keys are an error.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from CLIMAQL_* variables.
func (c *Config) ApplyEnv() {
	c.Collections.Properties = getenv("CLIMAQL_PROPERTIES_COLLECTION", c.Collections.Properties)
	c.Collections.Map = getenv("CLIMAQL_MAP_COLLECTION", c.Collections.Map)
	c.Registry = getenv("CLIMAQL_REGISTRY", c.Registry)
	c.Journal = getenv("CLIMAQL_JOURNAL", c.Journal)
	c.Log.Level = getenv("CLIMAQL_LOG_LEVEL", c.Log.Level)
	c.Log.Console = getbool("CLIMAQL_LOG_CONSOLE", c.Log.Console)
}

// Validate checks the fields every command depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Collections.Properties) == "" {
		return errors.New("config: collections.properties is empty")
	}
	if strings.TrimSpace(c.Collections.Map) == "" {
		return errors.New("config: collections.map is empty")
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
