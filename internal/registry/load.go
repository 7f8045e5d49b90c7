package registry

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed climate.cue
var defaultCatalog []byte

const (
	fieldVariables  = "variables"
	fieldKind       = "kind"
	fieldAggregable = "aggregable"
)

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return LoadCUE(defaultCatalog, "climate.cue")
})

// Default returns the registry built from the embedded climate catalog.
// The catalog is compiled once per process.
func Default() (*Registry, error) {
	return loadDefault()
}

// MustDefault is like Default but panics on error.
// Use only in tests or at process startup.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile loads a catalog from a .cue, .yaml or .yml file.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(src, path)
	case ".yaml", ".yml":
		return LoadYAML(src)
	default:
		return nil, fmt.Errorf("unsupported registry format %q (want .cue, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadCUE compiles a CUE catalog and builds the registry from its
// "variables" field. The filename is used for error positions only.
func LoadCUE(src []byte, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	vars := v.LookupPath(cue.MakePath(cue.Str(fieldVariables)))
	if !vars.Exists() {
		return nil, schemaErr(nil, v.Pos(), "catalog has no %q field", fieldVariables)
	}
	if err := vars.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	root, err := nodeFromCUE(vars, nil)
	if err != nil {
		return nil, err
	}
	return build(root)
}

// LoadYAML builds the registry from a YAML document with a top-level
// "variables" mapping.
// Labels keep their source text, so an unquoted month label such as 01
// stays "01".
func LoadYAML(src []byte) (*Registry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("parse registry yaml: %w", err)
	}
	decoded, err := decodeYAML(&root)
	if err != nil {
		return nil, fmt.Errorf("parse registry yaml: %w", err)
	}
	doc, _ := decoded.(map[string]any)

	raw, ok := doc[fieldVariables]
	if !ok {
		return nil, schemaErr(nil, token.NoPos, "catalog has no %q field", fieldVariables)
	}
	tree, ok := raw.(map[string]any)
	if !ok {
		return nil, schemaErr(nil, token.NoPos, "%q must be a mapping, got %T", fieldVariables, raw)
	}
	return Build(tree)
}

// decodeYAML decodes n the way yaml.Unmarshal decodes into an any, except
// that mapping keys are always their literal scalar text.
func decodeYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeYAML(n.Content[0])
	case yaml.AliasNode:
		return decodeYAML(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", key.Line)
			}
			if _, dup := m[key.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q", key.Line, key.Value)
			}
			v, err := decodeYAML(value)
			if err != nil {
				return nil, err
			}
			m[key.Value] = v
		}
		return m, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

// Build builds a registry from an already decoded variables tree, i.e. the
// value of the "variables" field.
func Build(tree map[string]any) (*Registry, error) {
	root, err := nodeFromMap(tree, nil)
	if err != nil {
		return nil, err
	}
	return build(root)
}

// node is the format-neutral catalog tree shared by the CUE and YAML loaders.
type node struct {
	label      string
	pos        token.Pos
	leaf       bool
	kind       string
	aggregable *bool
	extra      []string // leaf fields other than kind/aggregable
	children   []*node
}

func nodeFromCUE(v cue.Value, path []string) (*node, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, schemaErr(path, v.Pos(), "expected a struct, got %s", v.IncompleteKind())
	}

	n := &node{pos: v.Pos()}
	if len(path) > 0 {
		n.label = path[len(path)-1]
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	kindVal := v.LookupPath(cue.MakePath(cue.Str(fieldKind)))
	if kindVal.Exists() && kindVal.IncompleteKind() == cue.StructKind {
		return nil, reservedKindErr(path, kindVal.Pos())
	}
	if kindVal.Exists() {
		n.leaf = true
		kind, err := kindVal.String()
		if err != nil {
			return nil, schemaErr(path, kindVal.Pos(), "kind must be a string")
		}
		n.kind = kind

		aggVal := v.LookupPath(cue.MakePath(cue.Str(fieldAggregable)))
		if aggVal.Exists() {
			b, err := aggVal.Bool()
			if err != nil {
				return nil, schemaErr(path, aggVal.Pos(), "aggregable must be a bool")
			}
			n.aggregable = &b
		}

		for iter.Next() {
			label := iter.Selector().Unquoted()
			if label != fieldKind && label != fieldAggregable {
				n.extra = append(n.extra, label)
			}
		}
		return n, nil
	}

	for iter.Next() {
		label := iter.Selector().Unquoted()
		child, err := nodeFromCUE(iter.Value(), appendPath(path, label))
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func nodeFromMap(m map[string]any, path []string) (*node, error) {
	n := &node{}
	if len(path) > 0 {
		n.label = path[len(path)-1]
	}

	if rawKind, ok := m[fieldKind]; ok {
		if isMapping(rawKind) {
			return nil, reservedKindErr(path, token.NoPos)
		}
		n.leaf = true
		kind, ok := rawKind.(string)
		if !ok {
			return nil, schemaErr(path, token.NoPos, "kind must be a string, got %T", rawKind)
		}
		n.kind = kind

		if rawAgg, ok := m[fieldAggregable]; ok {
			b, ok := rawAgg.(bool)
			if !ok {
				return nil, schemaErr(path, token.NoPos, "aggregable must be a bool, got %T", rawAgg)
			}
			n.aggregable = &b
		}

		for label := range m {
			if label != fieldKind && label != fieldAggregable {
				n.extra = append(n.extra, label)
			}
		}
		sort.Strings(n.extra)
		return n, nil
	}

	for label, raw := range m {
		childPath := appendPath(path, label)
		sub, ok := raw.(map[string]any)
		if _, numeric := raw.(map[any]any); numeric {
			return nil, schemaErr(childPath, token.NoPos, "labels must be strings; quote numeric labels such as \"01\"")
		}
		if !ok {
			return nil, schemaErr(childPath, token.NoPos, "expected a mapping, got %T", raw)
		}
		child, err := nodeFromMap(sub, childPath)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

func isMapping(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	}
	return false
}

// reservedKindErr reports a group child labelled "kind", which would be read
// as the leaf marker.
func reservedKindErr(path []string, pos token.Pos) *SchemaError {
	return schemaErr(appendPath(path, fieldKind), pos,
		"%q is reserved for a leaf's kind and cannot label a variable or group", fieldKind)
}

func appendPath(path []string, label string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, label)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}

	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		se.Pos = positions[0]
	}
	return se
}
