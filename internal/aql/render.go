package aql

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const indentUnit = "  "

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	funcPattern  = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// binaryOps lists the operators the renderer accepts.
var binaryOps = map[string]bool{
	"==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

// Render converts a Query to AQL text.
//
// Rendering is deterministic: the same Query always yields byte-identical
// text. Invalid identifiers, unknown operators and nil nodes are reported as
// errors rather than rendered.
func Render(q Query) (string, error) {
	if len(q.Statements) == 0 {
		return "", fmt.Errorf("cannot render empty query")
	}

	var b strings.Builder
	depth := 0
	for i, stmt := range q.Statements {
		if i > 0 {
			b.WriteByte('\n')
		}
		if err := renderStatement(&b, stmt, depth); err != nil {
			return "", fmt.Errorf("statement %d: %w", i, err)
		}
		if _, ok := stmt.(For); ok {
			depth++
		}
	}
	return b.String(), nil
}

func renderStatement(b *strings.Builder, stmt Statement, depth int) error {
	indent := strings.Repeat(indentUnit, depth)
	b.WriteString(indent)

	switch s := stmt.(type) {
	case Let:
		if err := checkIdent(s.Var); err != nil {
			return err
		}
		b.WriteString("LET " + s.Var + " = ")
		return renderExpr(b, s.Expr)

	case For:
		if err := checkIdent(s.Var); err != nil {
			return err
		}
		if err := checkIdent(s.Collection); err != nil {
			return fmt.Errorf("collection parameter: %w", err)
		}
		b.WriteString("FOR " + s.Var + " IN @@" + s.Collection)
		return nil

	case Filter:
		b.WriteString("FILTER ")
		return renderExpr(b, s.Cond)

	case Sort:
		if len(s.Keys) == 0 {
			return fmt.Errorf("SORT needs at least one key")
		}
		b.WriteString("SORT ")
		for i, key := range s.Keys {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := renderExpr(b, key.Expr); err != nil {
				return err
			}
			switch key.Dir {
			case Asc, Desc:
				b.WriteString(" " + string(key.Dir))
			default:
				return fmt.Errorf("invalid sort direction %q", key.Dir)
			}
		}
		return nil

	case Limit:
		b.WriteString("LIMIT ")
		if err := renderExpr(b, s.Offset); err != nil {
			return err
		}
		b.WriteString(", ")
		return renderExpr(b, s.Count)

	case CollectAggregate:
		if len(s.Aggregates) == 0 {
			return fmt.Errorf("COLLECT AGGREGATE needs at least one assignment")
		}
		b.WriteString("COLLECT AGGREGATE")
		inner := indent + indentUnit
		for i, a := range s.Aggregates {
			if err := checkIdent(a.Var); err != nil {
				return err
			}
			b.WriteString("\n" + inner + a.Var + " = ")
			if err := renderExpr(b, a.Expr); err != nil {
				return err
			}
			if i < len(s.Aggregates)-1 {
				b.WriteByte(',')
			}
		}
		return nil

	case Return:
		b.WriteString("RETURN ")
		return renderExpr(b, s.Expr)

	case nil:
		return fmt.Errorf("nil statement")

	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

func renderExpr(b *strings.Builder, e Expr) error {
	switch x := e.(type) {
	case Ident:
		if err := checkIdent(string(x)); err != nil {
			return err
		}
		b.WriteString(string(x))

	case Attr:
		if err := renderExpr(b, x.Base); err != nil {
			return err
		}
		for _, name := range x.Dotted {
			if err := checkIdent(name); err != nil {
				return fmt.Errorf("attribute: %w", err)
			}
			b.WriteString("." + name)
		}
		for _, key := range x.Keys {
			b.WriteByte('[')
			b.WriteString(Quote(key))
			b.WriteByte(']')
		}

	case Bind:
		if err := checkIdent(string(x)); err != nil {
			return fmt.Errorf("bind parameter: %w", err)
		}
		b.WriteString("@" + string(x))

	case Literal:
		if x == "" {
			return fmt.Errorf("empty literal")
		}
		b.WriteString(string(x))

	case Call:
		if !funcPattern.MatchString(x.Func) {
			return fmt.Errorf("invalid function name %q", x.Func)
		}
		b.WriteString(x.Func + "(")
		for i, arg := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := renderExpr(b, arg); err != nil {
				return err
			}
		}
		b.WriteByte(')')

	case Binary:
		if !binaryOps[x.Op] {
			return fmt.Errorf("unsupported operator %q", x.Op)
		}
		if err := renderExpr(b, x.Left); err != nil {
			return err
		}
		b.WriteString(" " + x.Op + " ")
		return renderExpr(b, x.Right)

	case And:
		if len(x.Terms) == 0 {
			b.WriteString("true")
			return nil
		}
		for i, term := range x.Terms {
			if i > 0 {
				b.WriteString(" AND ")
			}
			if err := renderExpr(b, term); err != nil {
				return err
			}
		}

	case Object:
		b.WriteByte('{')
		for i, f := range x.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Quote(f.Key))
			b.WriteString(": ")
			if err := renderExpr(b, f.Value); err != nil {
				return err
			}
		}
		b.WriteByte('}')

	case nil:
		return fmt.Errorf("nil expression")

	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// Quote renders s as an AQL string literal.
func Quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
