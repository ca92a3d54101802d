package layout

import (
	"errors"
	"fmt"

	"layerd/internal/input/action"
	"layerd/internal/input/key"
)

// Table construction errors
var (
	ErrNoLayers         = errors.New("layout needs at least one layer")
	ErrDuplicateLayer   = errors.New("duplicate layer name")
	ErrUnknownLayerRef  = errors.New("unknown layer reference")
	ErrIncompleteBase   = errors.New("base layer is missing a binding for a cataloged key")
	ErrLayerLength      = errors.New("layer binding count does not match catalog")
	ErrSelfSwitchToBase = errors.New("layer may not toggle the base layer")
)

// Table is the immutable, precompiled mapping from (layer, key) to an
// action. Built once from configuration, validated completely, and
// swapped atomically on reload. Resolve never mutates the table and is
// safe for concurrent callers.
type Table struct {
	catalog *key.Catalog
	layers  map[string]*Layer
	order   []string
	base    string
}

// NewTable builds and validates a table. The first layer in order is the
// base layer. Validation enforces every invariant the runtime relies on:
// unique layer names, per-layer binding counts matching the catalog,
// every layer reference resolving, and no transparent binding in the
// base layer for any cataloged key.
func NewTable(catalog *key.Catalog, layers []*Layer) (*Table, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, key.ErrEmptyCatalog
	}

	t := &Table{
		catalog: catalog,
		layers:  make(map[string]*Layer, len(layers)),
		order:   make([]string, 0, len(layers)),
		base:    layers[0].Name(),
	}

	for _, l := range layers {
		if _, dup := t.layers[l.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayer, l.Name())
		}
		if l.Len() != catalog.Len() {
			return nil, fmt.Errorf("%w: layer %s has %d bindings, catalog has %d keys",
				ErrLayerLength, l.Name(), l.Len(), catalog.Len())
		}
		t.layers[l.Name()] = l
		t.order = append(t.order, l.Name())
	}

	// Every layer reference must resolve now; the stack never errors at
	// runtime.
	for _, l := range layers {
		for _, ref := range l.collectRefs(nil) {
			if _, ok := t.layers[ref]; !ok {
				return nil, fmt.Errorf("%w: layer %s refers to %s", ErrUnknownLayerRef, l.Name(), ref)
			}
			if ref == t.base {
				return nil, fmt.Errorf("%w: layer %s", ErrSelfSwitchToBase, l.Name())
			}
		}
	}

	// Base completeness: a transparent base binding would make runtime
	// behavior undefined, so it is a load-time error.
	base := t.layers[t.base]
	for pos, code := range catalog.Codes() {
		if base.At(pos).IsPass() {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteBase, code)
		}
	}

	return t, nil
}

// Catalog returns the table's key catalog.
func (t *Table) Catalog() *key.Catalog {
	return t.catalog
}

// Base returns the base layer name.
func (t *Table) Base() string {
	return t.base
}

// LayerNames returns the layer names in definition order, base first.
func (t *Table) LayerNames() []string {
	return t.order
}

// Layer returns a layer by name, or nil.
func (t *Table) Layer(name string) *Layer {
	return t.layers[name]
}

// NewStack creates a layer stack rooted at this table's base layer.
func (t *Table) NewStack() *Stack {
	return &Stack{base: t.base}
}

// Resolve scans the active layers from most recently activated to base
// and returns the first binding that is not transparent. A key that is
// transparent all the way down resolves to Block, which should not
// happen for cataloged keys given base completeness.
func (t *Table) Resolve(stack *Stack, code key.Code) action.Action {
	pos, ok := t.catalog.Position(code)
	if !ok {
		return action.Pass()
	}
	for _, name := range stack.ActiveSequence() {
		l, ok := t.layers[name]
		if !ok {
			// Stale stack entry after a reload that dropped the layer;
			// treat as transparent and keep scanning.
			continue
		}
		if a := l.At(pos); !a.IsPass() {
			return a
		}
	}
	return action.Block()
}
