// Package action defines the tagged action variant a layer binds to each
// physical key: transparent fallthrough, blocked keys, plain and chorded
// output, deferred tap-hold pairs, layer activation, and macro playback.
package action

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"layerd/internal/input/key"
)

// Kind discriminates the action variants.
type Kind uint8

const (
	// KindPass is transparent: resolution falls through to the next
	// active layer.
	KindPass Kind = iota

	// KindBlock resolves the key but emits nothing.
	KindBlock

	// KindEmit outputs a plain or chorded key.
	KindEmit

	// KindTapHold defers between a tap and a hold action under a timeout.
	KindTapHold

	// KindLayerToggle latches a layer while the trigger key is held.
	KindLayerToggle

	// KindLayerSwitch replaces everything above the base layer.
	KindLayerSwitch

	// KindMacro plays an ordered chord sequence atomically.
	KindMacro

	// KindScript plays the chord sequence returned by a Lua function.
	KindScript
)

// String returns the kind name as it appears in layout files.
func (k Kind) String() string {
	switch k {
	case KindPass:
		return "pass"
	case KindBlock:
		return "block"
	case KindEmit:
		return "emit"
	case KindTapHold:
		return "tap-hold"
	case KindLayerToggle:
		return "layer-toggle"
	case KindLayerSwitch:
		return "layer-switch"
	case KindMacro:
		return "macro"
	case KindScript:
		return "script"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Action is a tagged variant. The zero value is Pass.
type Action struct {
	// Kind selects the variant.
	Kind Kind

	// Chord is the output for KindEmit.
	Chord key.Chord

	// Tap and Hold are the deferred pair for KindTapHold.
	Tap  *Action
	Hold *Action

	// Timeout is the tap-hold decision window.
	Timeout time.Duration

	// Layer names the target for KindLayerToggle and KindLayerSwitch.
	Layer string

	// Seq is the chord sequence for KindMacro.
	Seq []key.Chord

	// Script names the Lua function for KindScript.
	Script string
}

// Pass returns the transparent action.
func Pass() Action {
	return Action{Kind: KindPass}
}

// Block returns the blocked-key action.
func Block() Action {
	return Action{Kind: KindBlock}
}

// Emit returns an action that outputs the chord.
func Emit(c key.Chord) Action {
	return Action{Kind: KindEmit, Chord: c}
}

// TapHold returns a deferred tap/hold action.
func TapHold(tap, hold Action, timeout time.Duration) Action {
	return Action{Kind: KindTapHold, Tap: &tap, Hold: &hold, Timeout: timeout}
}

// LayerToggle returns an action that latches the named layer while held.
func LayerToggle(layer string) Action {
	return Action{Kind: KindLayerToggle, Layer: layer}
}

// LayerSwitch returns an action that hard-switches to the named layer.
func LayerSwitch(layer string) Action {
	return Action{Kind: KindLayerSwitch, Layer: layer}
}

// Macro returns an action that plays the chords in order.
func Macro(seq []key.Chord) Action {
	return Action{Kind: KindMacro, Seq: seq}
}

// Script returns an action that plays the sequence produced by the named
// Lua function.
func Script(name string) Action {
	return Action{Kind: KindScript, Script: name}
}

// IsPass reports whether the action is transparent.
func (a Action) IsPass() bool {
	return a.Kind == KindPass
}

// LayerRef returns the referenced layer name, if any.
func (a Action) LayerRef() (string, bool) {
	switch a.Kind {
	case KindLayerToggle, KindLayerSwitch:
		return a.Layer, true
	case KindTapHold:
		// Only the hold side can activate a layer; the tap side is
		// checked separately by Validate.
		if a.Hold != nil {
			return a.Hold.LayerRef()
		}
	}
	return "", false
}

// Validation errors
var (
	ErrNestedTapHold  = errors.New("tap-hold action may not nest another tap-hold")
	ErrTransparentArm = errors.New("tap-hold arm may not be transparent")
	ErrBadTimeout     = errors.New("tap-hold timeout must be positive")
	ErrEmptyLayerRef  = errors.New("layer action needs a layer name")
	ErrEmptyMacro     = errors.New("macro needs at least one chord")
	ErrEmptyScript    = errors.New("script action needs a function name")
)

// Validate checks structural constraints that do not need the layer
// table: tap-hold arms may not nest or be transparent, layer references
// and macro bodies must be non-empty. Cross-layer reference checks live
// in the layout package.
func (a Action) Validate() error {
	switch a.Kind {
	case KindTapHold:
		if a.Timeout <= 0 {
			return ErrBadTimeout
		}
		for _, arm := range []*Action{a.Tap, a.Hold} {
			if arm == nil || arm.Kind == KindPass {
				return ErrTransparentArm
			}
			if arm.Kind == KindTapHold {
				return ErrNestedTapHold
			}
			if err := arm.Validate(); err != nil {
				return err
			}
		}
	case KindLayerToggle, KindLayerSwitch:
		if a.Layer == "" {
			return ErrEmptyLayerRef
		}
	case KindMacro:
		if len(a.Seq) == 0 {
			return ErrEmptyMacro
		}
	case KindScript:
		if a.Script == "" {
			return ErrEmptyScript
		}
	}
	return nil
}

// Label returns a short display form for crib sheets. Blocked keys
// render as blank, matching the original crib-sheet convention.
func (a Action) Label() string {
	switch a.Kind {
	case KindPass:
		return "_"
	case KindBlock:
		return ""
	case KindEmit:
		return a.Chord.String()
	case KindTapHold:
		return a.Tap.Label() + "/" + a.Hold.Label()
	case KindLayerToggle:
		return "+" + a.Layer
	case KindLayerSwitch:
		return ">" + a.Layer
	case KindMacro:
		labels := make([]string, len(a.Seq))
		for i, c := range a.Seq {
			labels[i] = c.String()
		}
		return strings.Join(labels, " ")
	case KindScript:
		return a.Script + "()"
	default:
		return a.Kind.String()
	}
}
