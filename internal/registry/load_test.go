package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCUE_Valid(t *testing.T) {
	src := `
#Numeric: {kind: "numeric", aggregable: true}
_names: ["bio01", "bio02"]

variables: {
	elevation: {kind: "elevation"}
	"1981-2010": {
		for n in _names {
			"\(n)": #Numeric
		}
	}
}
`
	r, err := LoadCUE([]byte(src), "test.cue")
	require.NoError(t, err)

	var keys []string
	for key := range r.Walk() {
		keys = append(keys, key)
	}
	assert.Equal(t, []string{"1981-2010/bio01", "1981-2010/bio02", "elevation"}, keys)
}

func TestLoadCUE_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{
			name:    "missing variables",
			src:     `other: {}`,
			message: "no \"variables\" field",
		},
		{
			name:    "empty group",
			src:     `variables: {"1981-2010": {}}`,
			message: "group has no children",
		},
		{
			name:    "empty catalog",
			src:     `variables: {}`,
			message: "group has no children",
		},
		{
			name:    "unknown kind",
			src:     `variables: {bio01: {kind: "temperature"}}`,
			message: "unknown variable kind",
		},
		{
			name:    "leaf with children",
			src:     `variables: {bio01: {kind: "numeric", jan: {kind: "numeric"}}}`,
			message: "leaf cannot have children",
		},
		{
			name:    "aggregable identifier",
			src:     `variables: {cell_id: {kind: "identifier", aggregable: true}}`,
			message: "identifier variables cannot be aggregable",
		},
		{
			name: "duplicate flat key",
			src: `variables: {
	"a/b": {kind: "numeric"}
	a: {b: {kind: "numeric"}}
}`,
			message: "duplicate flat key \"a/b\"",
		},
		{
			name:    "variable labelled kind",
			src:     `variables: {"1981-2010": {kind: {kind: "numeric"}}}`,
			message: "\"kind\" is reserved",
		},
		{
			name:    "non struct node",
			src:     `variables: {bio01: 3}`,
			message: "expected a struct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			assert.True(t, IsSchemaError(err), "want SchemaError, got %T: %v", err, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadCUE_SyntaxErrorHasPosition(t *testing.T) {
	_, err := LoadCUE([]byte("variables: {\n  bio01: {kind: \n"), "broken.cue")
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadYAML_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"missing variables", "foo: 1\n", "no \"variables\" field"},
		{"variables not mapping", "variables: [1, 2]\n", "must be a mapping"},
		{"kind not string", "variables:\n  bio01: {kind: 4}\n", "kind must be a string"},
		{"aggregable not bool", "variables:\n  bio01: {kind: numeric, aggregable: yes-please}\n", "aggregable must be a bool"},
		{"scalar child", "variables:\n  period: 4\n", "expected a mapping"},
		{"variable labelled kind", "variables:\n  period:\n    kind: {kind: numeric}\n", "\"kind\" is reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML([]byte(tt.src))
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadYAML_NumericLabels(t *testing.T) {
	r, err := LoadYAML([]byte(`
variables:
  "1981-2010":
    01:
      pr: {kind: numeric, aggregable: true}
    12:
      pr: {kind: numeric, aggregable: true}
`))
	require.NoError(t, err)

	var keys []string
	for key := range r.Walk() {
		keys = append(keys, key)
	}
	assert.Equal(t, []string{"1981-2010/01/pr", "1981-2010/12/pr"}, keys)
}

func TestLoadYAML_DuplicateLabel(t *testing.T) {
	_, err := LoadYAML([]byte("variables:\n  01: {kind: numeric}\n  \"01\": {kind: numeric}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate label \"01\"")
}

func TestBuild_NonStringLabels(t *testing.T) {
	_, err := Build(map[string]any{
		"1981-2010": map[any]any{1: map[string]any{"kind": "numeric"}},
	})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "quote numeric labels")
}

func TestLoadYAML_AggregableOverride(t *testing.T) {
	r, err := LoadYAML([]byte("variables:\n  elevation: {kind: elevation, aggregable: false}\n"))
	require.NoError(t, err)

	v, ok := r.Lookup("elevation")
	require.True(t, ok)
	assert.False(t, v.Aggregable)
	assert.Equal(t, 0, r.AggregableLen())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "vars.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(smallCatalogYAML), 0o644))
	r, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Len())

	cuePath := filepath.Join(dir, "vars.cue")
	require.NoError(t, os.WriteFile(cuePath, defaultCatalog, 0o644))
	r, err = LoadFile(cuePath)
	require.NoError(t, err)
	assert.Equal(t, MustDefault().Len(), r.Len())

	txtPath := filepath.Join(dir, "vars.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unsupported registry format")

	_, err = LoadFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestLint_SeparatorInSegment(t *testing.T) {
	r, err := LoadYAML([]byte("variables:\n  \"a/b\": {kind: numeric}\n"))
	require.NoError(t, err)

	warnings := r.Lint()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "key separator")
}
