// Package render turns the canonical syscall table into output artifacts.
// Renderers are pure formatting over a frozen table; adding one means adding
// a file here and registering it, nothing in the core changes.
package render

import (
	"fmt"
	"sort"

	"sysgen/internal/model"
)

// Renderer writes one output format into a directory.
type Renderer interface {
	Name() string
	// Files lists the artifact file names the renderer produces, for the run
	// summary.
	Files() []string
	Render(dir string, t *model.Table) error
}

var registry = make(map[string]Renderer)

// Register adds a renderer. Called from init in each renderer file.
func Register(r Renderer) {
	if _, dup := registry[r.Name()]; dup {
		panic("render: duplicate renderer " + r.Name())
	}
	registry[r.Name()] = r
}

// Lookup returns the named renderer.
func Lookup(name string) (Renderer, error) {
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("render: unknown format %q (have %v)", name, Names())
	}
	return r, nil
}

// Names lists registered renderer names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
