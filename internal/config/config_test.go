package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/climaql/internal/predicate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "climaql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, predicate.DefaultLayout(), cfg.Layout)
	assert.Empty(t, cfg.Registry)
	assert.Empty(t, cfg.Journal)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
collections:
  properties: era5_properties
registry: catalogs/era5.cue
journal: /var/lib/climaql/journal.db
log:
  level: debug
  console: true
layout:
  data_field: climate
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "era5_properties", cfg.Collections.Properties)
	assert.Equal(t, "map", cfg.Collections.Map, "unset keys keep defaults")
	assert.Equal(t, "catalogs/era5.cue", cfg.Registry)
	assert.Equal(t, "/var/lib/climaql/journal.db", cfg.Journal)
	assert.Equal(t, Log{Level: "debug", Console: true}, cfg.Log)
	assert.Equal(t, "climate", cfg.Layout.DataField)
	assert.Equal(t, "_key", cfg.Layout.KeyField)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
collections:
  properties: from_file
log:
  level: debug
`)
	t.Setenv("CLIMAQL_PROPERTIES_COLLECTION", "from_env")
	t.Setenv("CLIMAQL_MAP_COLLECTION", "grid")
	t.Setenv("CLIMAQL_REGISTRY", "env.yaml")
	t.Setenv("CLIMAQL_JOURNAL", "env.db")
	t.Setenv("CLIMAQL_LOG_LEVEL", "warn")
	t.Setenv("CLIMAQL_LOG_CONSOLE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Collections.Properties)
	assert.Equal(t, "grid", cfg.Collections.Map)
	assert.Equal(t, "env.yaml", cfg.Registry)
	assert.Equal(t, "env.db", cfg.Journal)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
}

func TestLoadIgnoresEmptyAndMalformedEnv(t *testing.T) {
	t.Setenv("CLIMAQL_PROPERTIES_COLLECTION", "")
	t.Setenv("CLIMAQL_LOG_CONSOLE", "sometimes")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "properties", cfg.Collections.Properties)
	assert.False(t, cfg.Log.Console)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown key", "colections:\n  map: m\n", "field colections not found"},
		{"bad yaml", "log: [\n", "parse config"},
		{"empty properties", "collections:\n  properties: \"\"\n", "collections.properties is empty"},
		{"empty map", "collections:\n  map: \" \"\n", "collections.map is empty"},
		{"bad layout", "layout:\n  key_field: \"a b\"\n", "not a plain attribute name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
