// Package layout holds the compiled layer table and the runtime layer
// stack. The table is immutable after construction and swapped atomically
// on reload; the stack is owned by the dispatch loop.
package layout

import (
	"fmt"

	"layerd/internal/input/action"
)

// Layer is a named set of bindings, one action per cataloged key,
// indexed by catalog position. Immutable once built.
type Layer struct {
	name     string
	bindings []action.Action
}

// NewLayer creates a layer. The bindings slice must have one entry per
// catalog position; the layer takes ownership of it.
func NewLayer(name string, bindings []action.Action) (*Layer, error) {
	if name == "" {
		return nil, fmt.Errorf("layer needs a name")
	}
	for i, b := range bindings {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("layer %s position %d: %w", name, i, err)
		}
	}
	return &Layer{name: name, bindings: bindings}, nil
}

// Name returns the layer name.
func (l *Layer) Name() string {
	return l.name
}

// Len returns the number of bindings.
func (l *Layer) Len() int {
	return len(l.bindings)
}

// At returns the binding at a catalog position. Out-of-range positions
// resolve as transparent.
func (l *Layer) At(pos int) action.Action {
	if pos < 0 || pos >= len(l.bindings) {
		return action.Pass()
	}
	return l.bindings[pos]
}

// collectRefs appends every layer name this layer's bindings reference.
func (l *Layer) collectRefs(refs []string) []string {
	for _, b := range l.bindings {
		if name, ok := b.LayerRef(); ok {
			refs = append(refs, name)
		}
		if b.Kind == action.KindTapHold && b.Tap != nil {
			if name, ok := b.Tap.LayerRef(); ok {
				refs = append(refs, name)
			}
		}
	}
	return refs
}
