package projection

import (
	"fmt"
	"iter"

	"github.com/roach88/climaql/internal/aql"
	"github.com/roach88/climaql/internal/registry"
)

// Shape describes what executing a compiled query yields.
type Shape string

const (
	// ShapeKeys is a list of document keys.
	ShapeKeys Shape = "keys"

	// ShapeRecords is a list of objects (shape or data mode).
	ShapeRecords Shape = "records"

	// ShapeAggregate is exactly one aggregate record.
	ShapeAggregate Shape = "aggregate"
)

// Result record field names.
const (
	FieldKey        = "_key"
	FieldDistance   = "distance"
	FieldGeometry   = "geometry"
	FieldProperties = "properties"
	FieldCount      = "count"
	FieldValues     = "values"
)

// Variable names introduced by aggregate projections.
const (
	countVar    = "aggCount"
	distanceVar = "aggDistance"
	aggPrefix   = "agg"
)

// Input tells the compiler which variables and document fields the
// predicate side has put in scope.
type Input struct {
	// Row is the variable bound to the matched row (map layer or properties).
	Row string

	// Data is the variable bound to the properties document. It equals Row
	// when the predicate reads the properties collection directly. It is
	// unused for key and shape modes.
	Data string

	// KeyField is the document key attribute, e.g. "_key".
	KeyField string

	// GeometryField is the attribute on Row returned as geometry.
	GeometryField string

	// DataField is the attribute on Data holding the climate record.
	DataField string

	// Distance is the variable holding the computed distance, or "" when the
	// predicate computes none.
	Distance string
}

func (in Input) validate(mode Mode) error {
	if in.Row == "" || in.KeyField == "" || in.GeometryField == "" {
		return fmt.Errorf("projection input needs row, key field and geometry field")
	}
	if mode.NeedsClimateData() && (in.Data == "" || in.DataField == "") {
		return fmt.Errorf("%s mode needs the properties document in scope", mode)
	}
	return nil
}

// Aggregate maps one generated aggregate variable to its flat variable key.
type Aggregate struct {
	Var string
	Key string
}

// Fragment is the selection part of a query: an optional COLLECT and the
// final RETURN.
type Fragment struct {
	Mode       Mode
	Shape      Shape
	Statements []aql.Statement

	// Aggregates lists one entry per emitted leaf aggregate, in walk order.
	// Empty for non-aggregate modes.
	Aggregates []Aggregate

	// Distance reports whether a distance value is part of the result.
	Distance bool
}

// Compile builds the projection fragment for mode.
//
// For aggregate modes walk is consumed once and one aggregate expression is
// emitted per aggregable variable it yields, so the projection follows the
// variable catalog without any per-variable code. walk is ignored for the
// other modes and may be nil.
func Compile(mode Mode, walk iter.Seq2[string, registry.ClimateVariable], in Input) (Fragment, error) {
	if !mode.Valid() {
		return Fragment{}, fmt.Errorf("unknown result mode %q", mode)
	}
	if err := in.validate(mode); err != nil {
		return Fragment{}, err
	}

	switch mode {
	case ModeKey:
		return Fragment{
			Mode:  mode,
			Shape: ShapeKeys,
			Statements: []aql.Statement{
				aql.Return{Expr: in.attr(in.Row, in.KeyField)},
			},
		}, nil

	case ModeShape, ModeData:
		return Fragment{
			Mode:       mode,
			Shape:      ShapeRecords,
			Statements: []aql.Statement{aql.Return{Expr: in.record(mode)}},
			Distance:   in.Distance != "",
		}, nil

	default:
		return compileAggregate(mode, walk, in)
	}
}

// record builds the object returned per row in shape and data modes.
func (in Input) record(mode Mode) aql.Object {
	obj := aql.Object{Fields: []aql.Field{
		{Key: FieldKey, Value: in.attr(in.Row, in.KeyField)},
	}}
	if in.Distance != "" {
		obj.Fields = append(obj.Fields, aql.Field{Key: FieldDistance, Value: aql.Ident(in.Distance)})
	}
	obj.Fields = append(obj.Fields, aql.Field{Key: FieldGeometry, Value: in.attr(in.Row, in.GeometryField)})
	if mode == ModeData {
		obj.Fields = append(obj.Fields, aql.Field{Key: FieldProperties, Value: in.attr(in.Data, in.DataField)})
	}
	return obj
}

func (in Input) attr(base, field string) aql.Attr {
	return aql.Attr{Base: aql.Ident(base), Dotted: []string{field}}
}

func compileAggregate(mode Mode, walk iter.Seq2[string, registry.ClimateVariable], in Input) (Fragment, error) {
	fn, _ := mode.AggregateFunc()
	if walk == nil {
		return Fragment{}, fmt.Errorf("%s mode needs a variable walk", mode)
	}

	frag := Fragment{
		Mode:     mode,
		Shape:    ShapeAggregate,
		Distance: in.Distance != "",
	}

	assigns := []aql.Assign{
		{Var: countVar, Expr: aql.Call{Func: "COUNT", Args: []aql.Expr{aql.Literal("1")}}},
	}
	if frag.Distance {
		assigns = append(assigns, aql.Assign{
			Var:  distanceVar,
			Expr: aql.Call{Func: fn, Args: []aql.Expr{aql.Ident(in.Distance)}},
		})
	}

	var values []aql.Field
	for key, v := range walk {
		if !v.Aggregable {
			continue
		}
		name := fmt.Sprintf("%s%d", aggPrefix, len(frag.Aggregates))
		assigns = append(assigns, aql.Assign{
			Var: name,
			Expr: aql.Call{Func: fn, Args: []aql.Expr{aql.Attr{
				Base:   aql.Ident(in.Data),
				Dotted: []string{in.DataField},
				Keys:   v.Path,
			}}},
		})
		values = append(values, aql.Field{Key: key, Value: aql.Ident(name)})
		frag.Aggregates = append(frag.Aggregates, Aggregate{Var: name, Key: key})
	}
	if len(frag.Aggregates) == 0 {
		return Fragment{}, fmt.Errorf("%s mode: the variable catalog has no aggregable variables", mode)
	}

	result := aql.Object{Fields: []aql.Field{
		{Key: FieldCount, Value: aql.Ident(countVar)},
	}}
	if frag.Distance {
		result.Fields = append(result.Fields, aql.Field{Key: FieldDistance, Value: aql.Ident(distanceVar)})
	}
	result.Fields = append(result.Fields, aql.Field{Key: FieldValues, Value: aql.Object{Fields: values}})

	frag.Statements = []aql.Statement{
		aql.CollectAggregate{Aggregates: assigns},
		aql.Return{Expr: result},
	}
	return frag, nil
}
