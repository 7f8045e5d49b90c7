package aql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_DistanceKeyQuery(t *testing.T) {
	q := Query{}
	q.Append(
		Let{Var: "reference", Expr: Bind("reference")},
		For{Var: "row", Collection: "map"},
		Let{Var: "distance", Expr: Call{Func: "GEO_DISTANCE", Args: []Expr{
			Ident("reference"),
			Attr{Base: Ident("row"), Dotted: []string{"geometry"}},
		}}},
		Filter{Cond: And{Terms: []Expr{
			Binary{Op: ">=", Left: Ident("distance"), Right: Bind("minDistance")},
			Binary{Op: "<=", Left: Ident("distance"), Right: Bind("maxDistance")},
		}}},
		Sort{Keys: []SortKey{
			{Expr: Ident("distance"), Dir: Asc},
			{Expr: Attr{Base: Ident("row"), Dotted: []string{"_key"}}, Dir: Asc},
		}},
		Limit{Offset: Bind("offset"), Count: Bind("count")},
		Return{Expr: Attr{Base: Ident("row"), Dotted: []string{"_key"}}},
	)

	text, err := Render(q)
	require.NoError(t, err)

	want := `LET reference = @reference
FOR row IN @@map
  LET distance = GEO_DISTANCE(reference, row.geometry)
  FILTER distance >= @minDistance AND distance <= @maxDistance
  SORT distance ASC, row._key ASC
  LIMIT @offset, @count
  RETURN row._key`
	assert.Equal(t, want, text)
}

func TestRender_CollectAndObject(t *testing.T) {
	q := Query{Statements: []Statement{
		For{Var: "item", Collection: "properties"},
		CollectAggregate{Aggregates: []Assign{
			{Var: "aggCount", Expr: Call{Func: "COUNT", Args: []Expr{Literal("1")}}},
			{Var: "agg0", Expr: Call{Func: "AVG", Args: []Expr{
				Attr{Base: Ident("item"), Dotted: []string{"properties"}, Keys: []string{"1981-2010", "bio01"}},
			}}},
		}},
		Return{Expr: Object{Fields: []Field{
			{Key: "count", Value: Ident("aggCount")},
			{Key: "values", Value: Object{Fields: []Field{
				{Key: "1981-2010/bio01", Value: Ident("agg0")},
			}}},
		}}},
	}}

	text, err := Render(q)
	require.NoError(t, err)

	want := `FOR item IN @@properties
  COLLECT AGGREGATE
    aggCount = COUNT(1),
    agg0 = AVG(item.properties["1981-2010"]["bio01"])
  RETURN {"count": aggCount, "values": {"1981-2010/bio01": agg0}}`
	assert.Equal(t, want, text)
}

func TestRender_NestedForIndents(t *testing.T) {
	q := Query{Statements: []Statement{
		For{Var: "row", Collection: "map"},
		For{Var: "item", Collection: "properties"},
		Filter{Cond: Binary{Op: "==",
			Left:  Attr{Base: Ident("item"), Dotted: []string{"_key"}},
			Right: Attr{Base: Ident("row"), Dotted: []string{"_key"}},
		}},
		Return{Expr: Ident("item")},
	}}

	text, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t, "FOR row IN @@map\n  FOR item IN @@properties\n    FILTER item._key == row._key\n    RETURN item", text)
}

func TestRender_Deterministic(t *testing.T) {
	q := Query{Statements: []Statement{
		For{Var: "row", Collection: "map"},
		Return{Expr: Object{Fields: []Field{
			{Key: "b", Value: Ident("row")},
			{Key: "a", Value: Ident("row")},
		}}},
	}}

	first, err := Render(q)
	require.NoError(t, err)
	second, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, `{"b": row, "a": row}`)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		msg  string
	}{
		{"empty query", Query{}, "empty query"},
		{"bad variable", Query{Statements: []Statement{Let{Var: "1x", Expr: Literal("1")}}}, "invalid identifier"},
		{"bad collection", Query{Statements: []Statement{For{Var: "row", Collection: "my-coll"}}}, "collection parameter"},
		{"nil expression", Query{Statements: []Statement{Return{}}}, "nil expression"},
		{"nil statement", Query{Statements: []Statement{nil}}, "nil statement"},
		{"bad operator", Query{Statements: []Statement{Filter{Cond: Binary{Op: "LIKE", Left: Literal("1"), Right: Literal("1")}}}}, "unsupported operator"},
		{"bad function", Query{Statements: []Statement{Return{Expr: Call{Func: "drop"}}}}, "invalid function name"},
		{"empty sort", Query{Statements: []Statement{Sort{}}}, "at least one key"},
		{"bad direction", Query{Statements: []Statement{Sort{Keys: []SortKey{{Expr: Literal("1"), Dir: "UP"}}}}}, "invalid sort direction"},
		{"empty collect", Query{Statements: []Statement{CollectAggregate{}}}, "at least one assignment"},
		{"bad dotted attribute", Query{Statements: []Statement{Return{Expr: Attr{Base: Ident("row"), Dotted: []string{"a-b"}}}}}, "attribute"},
		{"empty literal", Query{Statements: []Statement{Return{Expr: Literal("")}}}, "empty literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.q)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRender_EmptyAndIsTrue(t *testing.T) {
	text, err := Render(Query{Statements: []Statement{Filter{Cond: And{}}}})
	require.NoError(t, err)
	assert.Equal(t, "FILTER true", text)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"1981-2010"`, Quote("1981-2010"))
	assert.Equal(t, `"a\"b"`, Quote(`a"b`))
	assert.Equal(t, `"<tag>&"`, Quote("<tag>&"))
}

func TestParams(t *testing.T) {
	p := Params{}
	require.NoError(t, p.Set("offset", 0))
	require.NoError(t, p.SetCollection("map", "chelsa_map"))

	assert.Equal(t, 0, p["offset"])
	assert.Equal(t, "chelsa_map", p["@map"])
	assert.Equal(t, []string{"@map", "offset"}, p.Names())

	assert.ErrorContains(t, p.Set("offset", 1), "already set")
	assert.ErrorContains(t, p.SetCollection("map", "other"), "already set")
	assert.ErrorContains(t, p.SetCollection("props", ""), "empty collection name")
	assert.Error(t, p.Set("bad-name", 1))

	clone := p.Clone()
	clone["extra"] = true
	_, ok := p["extra"]
	assert.False(t, ok)
}
