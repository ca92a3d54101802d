// Package key provides the key model for the remapping engine.
//
// This package defines the fundamental types for representing keyboard
// input and output:
//
//   - Code: Identifies a physical key position (evdev-style key codes)
//   - Modifier: Represents modifier keys (Shift, Ctrl, Alt, Meta)
//   - Chord: A base output key plus a modifier set
//   - Event: A single physical press or release with a timestamp
//   - Catalog: The ordered set of physical keys a layout addresses
//
// # Key Names
//
// Keys are named in the kmonad style used by layout files: "esc", "spc",
// "lsft", "caps", single characters such as "a" or ";", and a handful of
// aliases ("return" for "ret", "bks" for "bspc").
//
// # Chord Specifications
//
// Chords can be written as "z", "lctl", or "shift+meta+z". Every part
// before the last names a modifier; the last part names the base key.
package key
