package registry

import (
	"fmt"
	"slices"
	"strings"
)

// KeySeparator joins path segments into a flat key.
const KeySeparator = "/"

// Kind is the scalar type of a climate variable.
type Kind string

const (
	// KindNumeric is a measured or modelled climate quantity.
	KindNumeric Kind = "numeric"

	// KindElevation is the terrain height of the grid cell.
	KindElevation Kind = "elevation"

	// KindIdentifier is a non-numeric label carried on the record.
	KindIdentifier Kind = "identifier"
)

// ParseKind converts a declarative kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNumeric, KindElevation, KindIdentifier:
		return k, nil
	default:
		return "", fmt.Errorf("unknown variable kind %q", s)
	}
}

// defaultAggregable is the aggregable flag used when the catalog omits it.
func (k Kind) defaultAggregable() bool {
	return k != KindIdentifier
}

// ClimateVariable is a leaf scalar field of the properties record.
//
// Values are immutable. Path is never shared with the registry, so callers
// may keep or modify the slices they receive.
type ClimateVariable struct {
	// Path holds the nesting keys from the record root to the field, e.g.
	// ["2041-2070", "gfdl-esm4", "ssp126", "bio01"].
	Path []string

	// Kind is the scalar type.
	Kind Kind

	// Aggregable reports whether min/average/max/stddev/variance apply.
	Aggregable bool
}

// Key returns the flat key of the variable.
func (v ClimateVariable) Key() string {
	return strings.Join(v.Path, KeySeparator)
}

// Label returns the last path segment (the variable name).
func (v ClimateVariable) Label() string {
	if len(v.Path) == 0 {
		return ""
	}
	return v.Path[len(v.Path)-1]
}

func (v ClimateVariable) clone() ClimateVariable {
	v.Path = slices.Clone(v.Path)
	return v
}

// VariableGroup is an internal node of the catalog.
//
// Variables and Groups are each sorted by label. A group always has at least
// one child.
type VariableGroup struct {
	Label     string
	Path      []string
	Variables []ClimateVariable
	Groups    []*VariableGroup

	// child lookup by label, built once at load time
	vars   map[string]int
	groups map[string]*VariableGroup
}

// Group returns the direct child group with the given label.
func (g *VariableGroup) Group(label string) (*VariableGroup, bool) {
	sub, ok := g.groups[label]
	return sub, ok
}

// Variable returns the direct child variable with the given label.
func (g *VariableGroup) Variable(label string) (ClimateVariable, bool) {
	i, ok := g.vars[label]
	if !ok {
		return ClimateVariable{}, false
	}
	return g.Variables[i].clone(), true
}

// LeafCount returns the number of leaves below g.
func (g *VariableGroup) LeafCount() int {
	n := len(g.Variables)
	for _, sub := range g.Groups {
		n += sub.LeafCount()
	}
	return n
}
