package aql

import (
	"fmt"
	"maps"
	"slices"
)

// Params is the bind parameter set sent alongside a query.
//
// Value parameters are stored under their bare name; collection parameters
// under "@" + name, matching the ArangoDB cursor API's bindVars object.
type Params map[string]any

// Set binds a value parameter referenced as @name.
func (p Params) Set(name string, value any) error {
	if err := checkIdent(name); err != nil {
		return fmt.Errorf("bind parameter: %w", err)
	}
	if _, exists := p[name]; exists {
		return fmt.Errorf("bind parameter %q already set", name)
	}
	p[name] = value
	return nil
}

// SetCollection binds a collection parameter referenced as @@name.
func (p Params) SetCollection(name, collection string) error {
	if err := checkIdent(name); err != nil {
		return fmt.Errorf("collection parameter: %w", err)
	}
	if collection == "" {
		return fmt.Errorf("collection parameter %q: empty collection name", name)
	}
	key := "@" + name
	if _, exists := p[key]; exists {
		return fmt.Errorf("collection parameter %q already set", name)
	}
	p[key] = collection
	return nil
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Clone returns a shallow copy of the parameter set.
func (p Params) Clone() Params {
	return maps.Clone(p)
}
