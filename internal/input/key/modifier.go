package key

import "strings"

// Modifier represents keyboard modifier keys as a bitmask.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << iota

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key (Option on macOS).
	ModAlt

	// ModMeta indicates the Meta key (Cmd on macOS, Win on Windows).
	ModMeta
)

// modifierOrder fixes the emission order for chords: modifiers go down in
// this order and come back up in reverse.
var modifierOrder = []Modifier{ModShift, ModCtrl, ModAlt, ModMeta}

// modifierCodes maps each modifier bit to the left-hand key that
// produces it on output.
var modifierCodes = map[Modifier]Code{
	ModShift: CodeLeftShift,
	ModCtrl:  CodeLeftCtrl,
	ModAlt:   CodeLeftAlt,
	ModMeta:  CodeLeftMeta,
}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Codes returns the output key codes for the set modifiers, in the fixed
// emission order.
func (m Modifier) Codes() []Code {
	if m == ModNone {
		return nil
	}
	codes := make([]Code, 0, 4)
	for _, mod := range modifierOrder {
		if m.Has(mod) {
			codes = append(codes, modifierCodes[mod])
		}
	}
	return codes
}

// String returns a representation like "shift+meta".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	if m.Has(ModShift) {
		parts = append(parts, "shift")
	}
	if m.Has(ModCtrl) {
		parts = append(parts, "ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "alt")
	}
	if m.Has(ModMeta) {
		parts = append(parts, "meta")
	}
	return strings.Join(parts, "+")
}

// modifierNames maps modifier names (lowercase) to Modifier values.
// Left and right variants collapse onto the same bit.
var modifierNames = map[string]Modifier{
	"shift": ModShift,
	"sft":   ModShift,
	"lsft":  ModShift,
	"rsft":  ModShift,
	"ctrl":  ModCtrl,
	"ctl":   ModCtrl,
	"lctl":  ModCtrl,
	"rctl":  ModCtrl,
	"alt":   ModAlt,
	"lalt":  ModAlt,
	"ralt":  ModAlt,
	"opt":   ModAlt,
	"meta":  ModMeta,
	"met":   ModMeta,
	"lmet":  ModMeta,
	"rmet":  ModMeta,
	"cmd":   ModMeta,
	"super": ModMeta,
	"win":   ModMeta,
}

// ModifierFromName returns the Modifier for a given name
// (case-insensitive). Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := modifierNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m
	}
	return ModNone
}
