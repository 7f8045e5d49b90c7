package registry

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"
)

// Registry is the read-only catalog of climate variables.
type Registry struct {
	root       *VariableGroup
	leaves     []ClimateVariable
	index      map[string]int
	aggregable int
}

// build validates the catalog tree and freezes it into a Registry.
func build(root *node) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}

	g, err := r.buildGroup(root, nil)
	if err != nil {
		return nil, err
	}
	r.root = g
	return r, nil
}

func (r *Registry) buildGroup(n *node, path []string) (*VariableGroup, error) {
	if n.leaf {
		return nil, schemaErr(path, n.pos, "expected a group, found a leaf")
	}
	if len(n.children) == 0 {
		return nil, schemaErr(path, n.pos, "group has no children")
	}

	g := &VariableGroup{
		Label:  n.label,
		Path:   slices.Clone(path),
		vars:   make(map[string]int),
		groups: make(map[string]*VariableGroup),
	}

	// Children are visited in label order so walks never depend on the
	// iteration order of the source format.
	children := slices.Clone(n.children)
	sort.Slice(children, func(i, j int) bool { return children[i].label < children[j].label })

	for _, child := range children {
		childPath := appendPath(path, child.label)
		if child.label == "" {
			return nil, schemaErr(childPath, child.pos, "empty path segment")
		}

		if !child.leaf {
			sub, err := r.buildGroup(child, childPath)
			if err != nil {
				return nil, err
			}
			g.groups[child.label] = sub
			g.Groups = append(g.Groups, sub)
			continue
		}

		v, err := leafFromNode(child, childPath)
		if err != nil {
			return nil, err
		}
		key := v.Key()
		if _, dup := r.index[key]; dup {
			return nil, schemaErr(childPath, child.pos, "duplicate flat key %q", key)
		}
		r.index[key] = len(r.leaves)
		r.leaves = append(r.leaves, v)
		if v.Aggregable {
			r.aggregable++
		}

		g.vars[child.label] = len(g.Variables)
		g.Variables = append(g.Variables, v)
	}

	return g, nil
}

func leafFromNode(n *node, path []string) (ClimateVariable, error) {
	if len(n.extra) > 0 {
		return ClimateVariable{}, schemaErr(path, n.pos,
			"leaf cannot have children (found %s)", strings.Join(n.extra, ", "))
	}
	kind, err := ParseKind(n.kind)
	if err != nil {
		return ClimateVariable{}, schemaErr(path, n.pos, "%v", err)
	}

	aggregable := kind.defaultAggregable()
	if n.aggregable != nil {
		aggregable = *n.aggregable
	}
	if aggregable && kind == KindIdentifier {
		return ClimateVariable{}, schemaErr(path, n.pos, "identifier variables cannot be aggregable")
	}

	return ClimateVariable{Path: slices.Clone(path), Kind: kind, Aggregable: aggregable}, nil
}

// Root returns the root group of the catalog.
func (r *Registry) Root() *VariableGroup {
	return r.root
}

// Len returns the number of leaf variables.
func (r *Registry) Len() int {
	return len(r.leaves)
}

// AggregableLen returns the number of aggregable leaf variables.
func (r *Registry) AggregableLen() int {
	return r.aggregable
}

// Leaves returns every leaf variable in walk order.
func (r *Registry) Leaves() []ClimateVariable {
	out := make([]ClimateVariable, len(r.leaves))
	for i, v := range r.leaves {
		out[i] = v.clone()
	}
	return out
}

// Lookup returns the variable with the given flat key.
func (r *Registry) Lookup(key string) (ClimateVariable, bool) {
	i, ok := r.index[key]
	if !ok {
		return ClimateVariable{}, false
	}
	return r.leaves[i].clone(), true
}

// Walk yields (flat key, variable) for every leaf in a fixed depth-first
// order. The sequence is lazy and can be ranged over any number of times.
func (r *Registry) Walk() iter.Seq2[string, ClimateVariable] {
	return func(yield func(string, ClimateVariable) bool) {
		for _, v := range r.leaves {
			if !yield(v.Key(), v.clone()) {
				return
			}
		}
	}
}

// Aggregable is Walk restricted to aggregable variables.
func (r *Registry) Aggregable() iter.Seq2[string, ClimateVariable] {
	return func(yield func(string, ClimateVariable) bool) {
		for key, v := range r.Walk() {
			if v.Aggregable && !yield(key, v) {
				return
			}
		}
	}
}

// Flatten converts a nested record into a map keyed by flat variable key.
// Every key of the record must be a group or variable of the catalog; values
// of leaves are copied unchanged, nil included.
func (r *Registry) Flatten(nested map[string]any) (map[string]any, error) {
	flat := make(map[string]any, len(nested))
	if err := flattenGroup(r.root, nested, flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenGroup(g *VariableGroup, nested map[string]any, flat map[string]any) error {
	for _, label := range slices.Sorted(maps.Keys(nested)) {
		value := nested[label]

		if v, ok := g.Variable(label); ok {
			flat[v.Key()] = value
			continue
		}

		sub, ok := g.Group(label)
		if !ok {
			return fmt.Errorf("flatten: unknown field %q", strings.Join(appendPath(g.Path, label), KeySeparator))
		}
		child, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("flatten: field %q must be an object, got %T",
				strings.Join(sub.Path, KeySeparator), value)
		}
		if err := flattenGroup(sub, child, flat); err != nil {
			return err
		}
	}
	return nil
}

// Rebuild reassembles a flat map into the nested record shape.
//
// Keys absent from flat are omitted, and a group is omitted when none of its
// leaves is present. nil values are kept as nil: the backing engine's
// no-data value passes through unchanged. Unknown keys are an error.
func (r *Registry) Rebuild(flat map[string]any) (map[string]any, error) {
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		if _, ok := r.index[key]; !ok {
			return nil, fmt.Errorf("rebuild: unknown variable key %q", key)
		}
	}
	return rebuildGroup(r.root, flat), nil
}

func rebuildGroup(g *VariableGroup, flat map[string]any) map[string]any {
	out := make(map[string]any)
	for _, v := range g.Variables {
		if value, ok := flat[v.Key()]; ok {
			out[v.Label()] = value
		}
	}
	for _, sub := range g.Groups {
		if child := rebuildGroup(sub, flat); len(child) > 0 {
			out[sub.Label] = child
		}
	}
	return out
}

// Lint returns non-fatal catalog warnings. A segment containing the key
// separator loads as long as no two flat keys collide, but it makes flat keys
// ambiguous to read.
func (r *Registry) Lint() []string {
	var out []string
	for _, v := range r.leaves {
		for _, seg := range v.Path {
			if strings.Contains(seg, KeySeparator) {
				out = append(out, schemaErr(v.Path, token.NoPos,
					"segment %q contains the key separator %q", seg, KeySeparator).Error())
				break
			}
		}
	}
	return out
}
