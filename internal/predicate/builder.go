package predicate

import (
	"fmt"
	"regexp"

	"github.com/roach88/climaql/internal/aql"
	"github.com/roach88/climaql/internal/projection"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// builder accumulates the statements and bind parameters of one fragment.
type builder struct {
	in     Input
	kind   Kind
	source Source
	params aql.Params
	stmts  []aql.Statement

	row           string
	data          string
	geometryField string
	distance      bool
	joined        bool
}

func newBuilder(kind Kind, source Source, in Input) (*builder, error) {
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("unknown result mode %q", in.Mode)
	}
	if in.Geometry.Kind() == "" {
		return nil, fmt.Errorf("%s predicate needs a reference geometry", kind)
	}
	if in.Geometry.IsEmpty() {
		return nil, fmt.Errorf("%s predicate: reference geometry is empty", kind)
	}
	if err := in.Layout.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		in:     in,
		kind:   kind,
		source: source,
		params: aql.Params{},
	}
	if err := b.params.Set(paramReference, in.Geometry.BindValue()); err != nil {
		return nil, err
	}
	b.add(aql.Let{Var: varReference, Expr: aql.Bind(paramReference)})
	return b, nil
}

// newMapBuilder starts a fragment that iterates the map layer.
func newMapBuilder(kind Kind, in Input) (*builder, error) {
	b, err := newBuilder(kind, SourceMap, in)
	if err != nil {
		return nil, err
	}
	if err := b.params.SetCollection(collMap, in.MapCollection); err != nil {
		return nil, err
	}
	b.row = varRow
	b.geometryField = in.Layout.PointField
	b.add(aql.For{Var: varRow, Collection: collMap})
	return b, nil
}

func (b *builder) add(stmts ...aql.Statement) {
	b.stmts = append(b.stmts, stmts...)
}

func (b *builder) rowAttr(field string) aql.Attr {
	return aql.Attr{Base: aql.Ident(b.row), Dotted: []string{field}}
}

// join pairs each map-layer row with its properties record when the mode
// reads climate data.
func (b *builder) join() error {
	if !b.in.Mode.NeedsClimateData() {
		return nil
	}
	if err := b.params.SetCollection(collProperties, b.in.Collection); err != nil {
		return err
	}
	key := b.in.Layout.KeyField
	b.add(
		aql.For{Var: varItem, Collection: collProperties},
		aql.Filter{Cond: aql.Binary{
			Op:    "==",
			Left:  aql.Attr{Base: aql.Ident(varItem), Dotted: []string{key}},
			Right: b.rowAttr(key),
		}},
	)
	b.data = varItem
	b.joined = true
	return nil
}

// sort orders paginated results. Every order ends on the document key so
// pages never overlap. Aggregate modes are not sorted.
func (b *builder) sort(order SortOrder) {
	if !b.in.Mode.Paginated() {
		return
	}
	var keys []aql.SortKey
	if b.distance {
		switch order {
		case SortAsc:
			keys = append(keys, aql.SortKey{Expr: aql.Ident(varDistance), Dir: aql.Asc})
		case SortDesc:
			keys = append(keys, aql.SortKey{Expr: aql.Ident(varDistance), Dir: aql.Desc})
		}
	}
	keys = append(keys, aql.SortKey{Expr: b.rowAttr(b.in.Layout.KeyField), Dir: aql.Asc})
	b.add(aql.Sort{Keys: keys})
}

func (b *builder) fragment() Fragment {
	proj := projection.Input{
		Row:           b.row,
		Data:          b.data,
		KeyField:      b.in.Layout.KeyField,
		GeometryField: b.geometryField,
		DataField:     b.in.Layout.DataField,
	}
	if b.distance {
		proj.Distance = varDistance
	}
	return Fragment{
		Kind:         b.kind,
		Source:       b.source,
		RequiresJoin: b.joined,
		Statements:   b.stmts,
		Params:       b.params,
		Projection:   proj,
	}
}

// Validate checks that every field is set and usable as a plain attribute
// name.
func (l Layout) Validate() error {
	fields := []struct{ name, value string }{
		{"key_field", l.KeyField},
		{"point_field", l.PointField},
		{"bounds_field", l.BoundsField},
		{"data_field", l.DataField},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("layout: %s is empty", f.name)
		}
		if !fieldPattern.MatchString(f.value) {
			return fmt.Errorf("layout: %s %q is not a plain attribute name", f.name, f.value)
		}
	}
	return nil
}
