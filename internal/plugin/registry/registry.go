// Package registry is the in-process plugin transport: a process-wide
// map from "library::name" to a factory function, for components that
// are compiled directly into the engine binary rather than loaded from
// a subprocess or shared library.
package registry

import (
	"fmt"
	"sync"

	"github.com/negotiator/engine/internal/component"
)

// Constructor builds a component instance from its decoded YAML
// configuration.
type Constructor func(name string, config map[string]any) (component.Component, error)

var (
	mu           sync.Mutex
	constructors = map[string]Constructor{}
)

// key returns the composite lookup key "library::name".
func key(library, name string) string {
	return library + "::" + name
}

// Register installs constructor under "library::name". A later call
// with the same key replaces the earlier one, mirroring static
// initialization order being unspecified.
func Register(library, name string, constructor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[key(library, name)] = constructor
}

// Create looks up "library::name" and invokes its constructor.
func Create(library, name string, config map[string]any) (component.Component, error) {
	mu.Lock()
	constructor, ok := constructors[key(library, name)]
	mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("negotiator '%s' not found", key(library, name))
	}
	return constructor(name, config)
}

// Names returns every registered "library::name" key, for diagnostics.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()

	names := make([]string, 0, len(constructors))
	for k := range constructors {
		names = append(names, k)
	}
	return names
}
