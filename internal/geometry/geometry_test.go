package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AllKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{"point", `{"type":"Point","coordinates":[8.54,47.37]}`, Point},
		{"point with altitude", `{"type":"Point","coordinates":[8.54,47.37,410]}`, Point},
		{"multipoint", `{"type":"MultiPoint","coordinates":[[8.5,47.3],[9.1,46.2]]}`, MultiPoint},
		{"linestring", `{"type":"LineString","coordinates":[[8.5,47.3],[9.1,46.2]]}`, LineString},
		{"multilinestring", `{"type":"MultiLineString","coordinates":[[[8.5,47.3],[9.1,46.2]]]}`, MultiLineString},
		{"polygon", `{"type":"Polygon","coordinates":[[[8,47],[9,47],[9,48],[8,48],[8,47]]]}`, Polygon},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[8,47],[9,47],[9,48],[8,48],[8,47]]]]}`, MultiPolygon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, g.Kind())
			assert.False(t, g.IsEmpty())
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"not json", `{`, "parse geometry"},
		{"unsupported type", `{"type":"GeometryCollection","geometries":[]}`, "unsupported geometry type"},
		{"missing coordinates", `{"type":"Point"}`, "missing coordinates"},
		{"empty point", `{"type":"Point","coordinates":[]}`, "empty position"},
		{"point arity", `{"type":"Point","coordinates":[1]}`, "2 or 3 numbers"},
		{"longitude range", `{"type":"Point","coordinates":[181,0]}`, "longitude"},
		{"latitude range", `{"type":"Point","coordinates":[0,-91]}`, "latitude"},
		{"string coordinate", `{"type":"Point","coordinates":["8",47]}`, "not a finite number"},
		{"wrong depth", `{"type":"Polygon","coordinates":[[8,47],[9,47]]}`, "position must be an array"},
		{"short line", `{"type":"LineString","coordinates":[[8,47]]}`, "at least 2 positions"},
		{"short ring", `{"type":"Polygon","coordinates":[[[8,47],[9,47],[8,47]]]}`, "at least 4 positions"},
		{"open ring", `{"type":"Polygon","coordinates":[[[8,47],[9,47],[9,48],[8,48]]]}`, "not closed"},
		{"member polygon without rings", `{"type":"MultiPolygon","coordinates":[[]]}`, "[0]: polygon needs at least 1 ring"},
		{"empty ring", `{"type":"Polygon","coordinates":[[]]}`, "at least 4 positions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_EmptyMultiGeometry(t *testing.T) {
	g, err := Parse([]byte(`{"type":"MultiPolygon","coordinates":[]}`))
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, MultiPolygon, g.Kind())
}

func TestZeroValueIsEmpty(t *testing.T) {
	var g Geometry
	assert.True(t, g.IsEmpty())
}

func TestNewPoint_BindValue(t *testing.T) {
	g, err := NewPoint(8.54, 47.37)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"type":        "Point",
		"coordinates": []any{8.54, 47.37},
	}, g.BindValue())
}

func TestNew_Polygon(t *testing.T) {
	g, err := New(Polygon, [][][]float64{{{8, 47}, {9, 47}, {9, 48}, {8, 47}}})
	require.NoError(t, err)
	assert.Equal(t, Polygon, g.Kind())

	_, err = New(Polygon, [][][]float64{{{8, 47}, {9, 47}, {9, 48}, {8, 48}}})
	assert.ErrorContains(t, err, "not closed")
}

func TestJSONRoundTrip(t *testing.T) {
	src := `{"coordinates":[[8.5,47.3],[9.1,46.2]],"type":"LineString"}`

	var g Geometry
	require.NoError(t, json.Unmarshal([]byte(src), &g))
	assert.Equal(t, LineString, g.Kind())

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))

	var bad Geometry
	assert.Error(t, json.Unmarshal([]byte(`{"type":"Circle","coordinates":[0,0]}`), &bad))
}
