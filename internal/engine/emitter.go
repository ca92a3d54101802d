package engine

import (
	"go.uber.org/zap"

	"layerd/internal/input/key"
)

// Injector is the output capability: it injects one synthetic key event
// into the operating system. Implementations must be bounded and fast;
// the dispatch loop calls Inject inline.
type Injector interface {
	Inject(code key.Code, pressed bool) error
}

// Emitter translates resolved actions into ordered synthetic events.
// For chords, modifier downs precede the base key's down, and releases
// run in reverse order after the base key's up, matching standard OS
// modifier semantics.
type Emitter struct {
	inj Injector
	log *zap.Logger
}

// NewEmitter creates an emitter over the injector.
func NewEmitter(inj Injector, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{inj: inj, log: log}
}

// PressChord emits the down half of a chord: modifiers in canonical
// order, then the base key. On failure everything already down is
// released again and an EmissionFault is returned.
func (em *Emitter) PressChord(c key.Chord) error {
	var down []key.Code
	for _, mc := range c.Mods.Codes() {
		if err := em.inj.Inject(mc, true); err != nil {
			em.rollback(down)
			return &EmissionFault{Code: mc, Err: err}
		}
		down = append(down, mc)
	}
	if c.Key != key.CodeNone {
		if err := em.inj.Inject(c.Key, true); err != nil {
			em.rollback(down)
			return &EmissionFault{Code: c.Key, Err: err}
		}
	}
	return nil
}

// ReleaseChord emits the up half of a chord: the base key, then the
// modifiers in reverse order.
func (em *Emitter) ReleaseChord(c key.Chord) error {
	var firstErr error
	if c.Key != key.CodeNone {
		if err := em.inj.Inject(c.Key, false); err != nil {
			firstErr = &EmissionFault{Code: c.Key, Err: err}
		}
	}
	mods := c.Mods.Codes()
	for i := len(mods) - 1; i >= 0; i-- {
		if err := em.inj.Inject(mods[i], false); err != nil && firstErr == nil {
			firstErr = &EmissionFault{Code: mods[i], Err: err}
		}
	}
	return firstErr
}

// Tap emits a full press+release pair for the chord.
func (em *Emitter) Tap(c key.Chord) error {
	if err := em.PressChord(c); err != nil {
		return err
	}
	return em.ReleaseChord(c)
}

// Play emits a macro sequence as ordered tap pairs. Playback aborts on
// the first fault; from the dispatcher's point of view it is atomic,
// since the loop emits it inline without interleaving other events.
func (em *Emitter) Play(seq []key.Chord) error {
	for _, c := range seq {
		if err := em.Tap(c); err != nil {
			return err
		}
	}
	return nil
}

// rollback best-effort releases keys that went down before a fault, in
// reverse order, so no phantom modifiers stay held.
func (em *Emitter) rollback(down []key.Code) {
	for i := len(down) - 1; i >= 0; i-- {
		if err := em.inj.Inject(down[i], false); err != nil {
			em.log.Warn("rollback release failed",
				zap.Stringer("key", down[i]), zap.Error(err))
		}
	}
}
