package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/climaql/internal/geometry"
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
	"github.com/roach88/climaql/internal/query"
	"github.com/roach88/climaql/internal/registry"
)

// createTestStore opens a journal in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const testCatalog = `
variables:
  elevation: {kind: elevation}
  "1981-2010":
    bio01: {kind: numeric}
`

// compileTestQuery compiles a contains query over a small catalog.
func compileTestQuery(t *testing.T, mode projection.Mode, pageStart int) *query.CompiledQuery {
	t.Helper()
	reg, err := registry.LoadYAML([]byte(testCatalog))
	if err != nil {
		t.Fatalf("LoadYAML() failed: %v", err)
	}
	c, err := query.NewCompiler(reg, predicate.DefaultLayout())
	if err != nil {
		t.Fatalf("NewCompiler() failed: %v", err)
	}
	g, err := geometry.Parse([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	q, err := c.CompileContainsQuery("chelsa", "chelsa_map", g, mode, pageStart, 10)
	if err != nil {
		t.Fatalf("CompileContainsQuery() failed: %v", err)
	}
	return q
}
