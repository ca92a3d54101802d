package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty chord specification")
	ErrInvalidSpec = errors.New("invalid chord specification")
)

// Chord is one logical output: a base key pressed together with a set of
// modifiers. A chord with no modifiers is a plain key.
type Chord struct {
	// Key is the base output key.
	Key Code

	// Mods are the modifiers held around the base key.
	Mods Modifier
}

// IsZero reports whether the chord is empty.
func (c Chord) IsZero() bool {
	return c.Key == CodeNone && c.Mods == ModNone
}

// WithMods returns a copy of the chord with the given modifiers added.
func (c Chord) WithMods(mods Modifier) Chord {
	c.Mods = c.Mods.With(mods)
	return c
}

// String returns the canonical spec form, e.g. "shift+meta+z".
func (c Chord) String() string {
	if c.Mods == ModNone {
		return c.Key.String()
	}
	return c.Mods.String() + "+" + c.Key.String()
}

// ParseChord parses a chord specification.
//
// Supported formats:
//   - Single key name: "z", "spc", "lctl"
//   - Modifiers plus base key: "ctrl+c", "shift+meta+z"
//
// Every part before the last must name a modifier; the last part names
// the base key. A lone modifier name ("lctl") parses as that key itself.
func ParseChord(spec string) (Chord, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Chord{}, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	if len(parts) == 1 {
		code := FromName(parts[0])
		if code == CodeNone {
			return Chord{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, parts[0])
		}
		return Chord{Key: code}, nil
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Chord{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	code := FromName(last)
	if code == CodeNone {
		return Chord{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, last)
	}
	return Chord{Key: code, Mods: mods}, nil
}

// MustParseChord parses a chord specification and panics on error.
// Use only for known-valid specs in initialization code and tests.
func MustParseChord(spec string) Chord {
	c, err := ParseChord(spec)
	if err != nil {
		panic("invalid chord specification: " + spec + ": " + err.Error())
	}
	return c
}

// ParseChordList parses a whitespace-separated list of chord specs, as
// produced by macro definitions and script results.
func ParseChordList(specs string) ([]Chord, error) {
	fields := strings.Fields(specs)
	if len(fields) == 0 {
		return nil, ErrEmptySpec
	}
	chords := make([]Chord, 0, len(fields))
	for _, f := range fields {
		c, err := ParseChord(f)
		if err != nil {
			return nil, err
		}
		chords = append(chords, c)
	}
	return chords, nil
}
