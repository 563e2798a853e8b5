package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

var (
	registry   = make(map[string]GridDefinition)
	registryMu sync.RWMutex
)

// Register adds a grid definition to the registry. Column ids are filled in
// from the field specs when the definition leaves them empty.
//
// Panics on a duplicate key or when a unique key column has no field spec;
// both are programming errors in a tables package init.
func Register(def GridDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Info.Key))
	}
	if len(def.Info.Columns) == 0 {
		for _, spec := range def.FieldSpecs {
			def.Info.Columns = append(def.Info.Columns, spec.Column())
		}
	}
	for _, col := range def.Info.UniqueKey {
		if _, ok := def.Spec(col); !ok {
			panic(fmt.Sprintf("table %s: unique key column %q has no field spec", def.Info.Key, col))
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a grid definition by key.
func Get(key string) (GridDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an ErrUnknownTable error for handlers.
func Lookup(key string) (GridDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return GridDefinition{}, fmt.Errorf("%w: %s", ErrUnknownTable, key)
	}
	return def, nil
}

// All returns every registered definition ordered by group, then key.
func All() []GridDefinition {
	return collect(func(GridDefinition) bool { return true })
}

// ByGroup returns the definitions of one dashboard group ordered by key.
func ByGroup(group string) []GridDefinition {
	return collect(func(d GridDefinition) bool { return d.Info.Group == group })
}

// Groups returns all unique group names, sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	groups := make([]string, 0, len(registry))
	for _, def := range registry {
		if !slices.Contains(groups, def.Info.Group) {
			groups = append(groups, def.Info.Group)
		}
	}
	slices.Sort(groups)
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables. Tests only.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]GridDefinition)
}

func collect(keep func(GridDefinition) bool) []GridDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []GridDefinition
	for _, def := range registry {
		if keep(def) {
			out = append(out, def)
		}
	}
	slices.SortFunc(out, func(a, b GridDefinition) int {
		return cmp.Or(
			cmp.Compare(a.Info.Group, b.Info.Group),
			cmp.Compare(a.Info.Key, b.Info.Key),
		)
	})
	return out
}
