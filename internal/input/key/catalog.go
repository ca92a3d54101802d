package key

import (
	"errors"
	"fmt"
)

// Catalog errors
var (
	ErrEmptyCatalog = errors.New("catalog has no keys")
)

// Catalog is the ordered set of physical keys a layout addresses. The
// order matches the layout's defsrc row and gives each key its binding
// position in every layer. A catalog is immutable once built.
type Catalog struct {
	codes     []Code
	positions map[Code]int
}

// NewCatalog builds a catalog from codes in defsrc order. Duplicate or
// invalid codes are rejected.
func NewCatalog(codes []Code) (*Catalog, error) {
	if len(codes) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		codes:     make([]Code, len(codes)),
		positions: make(map[Code]int, len(codes)),
	}
	for i, code := range codes {
		if !code.Valid() {
			return nil, fmt.Errorf("catalog position %d: invalid key code %d", i, code)
		}
		if _, dup := c.positions[code]; dup {
			return nil, fmt.Errorf("catalog position %d: duplicate key %s", i, code)
		}
		c.codes[i] = code
		c.positions[code] = i
	}
	return c, nil
}

// NewCatalogFromNames builds a catalog from kmonad-style key names.
func NewCatalogFromNames(names []string) (*Catalog, error) {
	codes := make([]Code, len(names))
	for i, n := range names {
		code := FromName(n)
		if code == CodeNone {
			return nil, fmt.Errorf("catalog position %d: unknown key name %q", i, n)
		}
		codes[i] = code
	}
	return NewCatalog(codes)
}

// Len returns the number of cataloged keys.
func (c *Catalog) Len() int {
	return len(c.codes)
}

// Codes returns the cataloged codes in defsrc order. The caller must not
// modify the returned slice.
func (c *Catalog) Codes() []Code {
	return c.codes
}

// Contains reports whether the code is cataloged.
func (c *Catalog) Contains(code Code) bool {
	_, ok := c.positions[code]
	return ok
}

// Position returns the binding position of the code within layers.
func (c *Catalog) Position(code Code) (int, bool) {
	pos, ok := c.positions[code]
	return pos, ok
}
