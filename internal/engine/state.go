package engine

import (
	"time"

	"layerd/internal/input/action"
	"layerd/internal/input/key"
)

// phase is the per-key state machine position.
type phase uint8

const (
	// phaseIdle: key is up, nothing pending.
	phaseIdle phase = iota

	// phasePending: a tap-hold press is awaiting resolution.
	phasePending

	// phaseDown: key is down and resolved; undo records what the
	// physical release must take back.
	phaseDown
)

// keyState is the runtime state for one physical key. States live in a
// fixed arena indexed by key code, so the input hot path allocates
// nothing. A key's transitions are driven exclusively by its own
// physical events plus the tap-hold timeout and interruption rules.
type keyState struct {
	phase phase

	// tapHold is the pending binding while phase == phasePending.
	tapHold action.Action

	// pressedAt and deadline bound the tap-hold decision window, both
	// on the monotonic clock.
	pressedAt time.Time
	deadline  time.Time

	// undoChord, if set, is released when the key goes up.
	undoChord key.Chord
	hasChord  bool

	// undoLayer, if set, is popped from the stack when the key goes up.
	undoLayer string
}

// clear resets the state to idle.
func (st *keyState) clear() {
	*st = keyState{}
}
