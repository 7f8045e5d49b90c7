package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesRegistry(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "intersects_average.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "registry", "catalog.yaml"), s.Registry)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "intersects", s.Steps[0].Request.Predicate)
	require.NotNil(t, s.Steps[0].Expect)
	require.NotNil(t, s.Steps[0].Expect.Aggregates)
	assert.Equal(t, 4, *s.Steps[0].Expect.Aggregates)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing name", "description: d\nsteps: [{request: {}}]\n", "name is required"},
		{"missing description", "name: n\nsteps: [{request: {}}]\n", "description is required"},
		{"no steps", "name: n\ndescription: d\n", "steps list is required"},
		{"unknown field", "name: n\ndescription: d\nstep: []\n", "failed to parse YAML"},
		{"unknown assertion", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{type: trace_count}]\n", `unknown assertion type "trace_count"`},
		{"assertion without type", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{count: 1}]\n", "type is required"},
		{"fingerprint needs two steps", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{type: same_fingerprint, steps: [0]}]\n", "at least two steps"},
		{"step out of range", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{type: journal_hits, step: 3, count: 1}]\n", "step 3 out of range"},
		{"hits must be positive", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{type: journal_hits, step: 0}]\n", "count must be positive"},
		{"negative entries", "name: n\ndescription: d\nsteps: [{request: {}}]\nassertions: [{type: journal_entries, count: -1}]\n", "count must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "s.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingRegistryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	body := "name: n\ndescription: d\nregistry: nowhere.cue\nsteps: [{request: {}}]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "registry not found")
}

func TestLoadScenarios_Sorted(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"contains_key_page",
		"distance_data_sorted",
		"intersects_average",
		"rejected_requests",
	}, names)
}
