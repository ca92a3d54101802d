package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"layerd/internal/input/action"
	"layerd/internal/input/key"
	"layerd/internal/input/layout"
)

// ScriptRunner resolves a script action name to the chord sequence it
// produces. Runners are called inline from the dispatch loop and must be
// bounded and fast.
type ScriptRunner interface {
	Run(name string) ([]key.Chord, error)
}

// FaultHandler receives capture and emission faults after the engine has
// already reset the affected key state. Optional.
type FaultHandler func(err error)

// Config assembles an engine.
type Config struct {
	// Table is the initial layer table. Required.
	Table *layout.Table

	// Events delivers physical key events in true chronological order.
	// Required for Run; tests may drive the engine directly instead.
	Events <-chan key.Event

	// Injector emits synthetic output events. Required.
	Injector Injector

	// Scripts runs script actions. Optional; script actions fault
	// without it.
	Scripts ScriptRunner

	// OnFault is notified of capture and emission faults. Optional.
	OnFault FaultHandler

	// Logger receives structured diagnostics. Optional.
	Logger *zap.Logger
}

// Engine is the event dispatcher: it consumes physical events, drives
// the per-key tap-hold resolvers and the layer stack, resolves effective
// actions against the layer table, and forwards outputs to the emitter.
type Engine struct {
	emit    *Emitter
	scripts ScriptRunner
	onFault FaultHandler
	log     *zap.Logger
	events  <-chan key.Event

	// table and stack are owned by the dispatch goroutine. Reloads
	// arrive through the tables channel and are applied between events.
	table  *layout.Table
	stack  *layout.Stack
	tables chan *layout.Table

	// states is the per-key arena; pending lists pending tap-hold keys
	// in press order.
	states  [key.MaxCode]keyState
	pending []key.Code

	lastTime time.Time
	running  atomic.Bool
}

// New creates an engine from the configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Injector == nil {
		return nil, ErrNoInjector
	}
	if cfg.Table == nil {
		return nil, ErrNoTable
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		emit:    NewEmitter(cfg.Injector, log),
		scripts: cfg.Scripts,
		onFault: cfg.OnFault,
		log:     log,
		events:  cfg.Events,
		table:   cfg.Table,
		stack:   cfg.Table.NewStack(),
		tables:  make(chan *layout.Table, 1),
		pending: make([]key.Code, 0, 8),
	}, nil
}

// SetTable queues a new layer table for atomic adoption by the dispatch
// loop. Safe to call from any goroutine. If several tables are queued
// between events only the latest takes effect.
func (e *Engine) SetTable(t *layout.Table) {
	for {
		select {
		case e.tables <- t:
			return
		default:
			select {
			case <-e.tables:
			default:
			}
		}
	}
}

// Run processes events until the context is cancelled or the event
// channel closes. The loop blocks only when idle, on a single combined
// wait over the next physical event and the nearest pending timeout.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)
	defer e.releaseAll()

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		var timerC <-chan time.Time
		if deadline, ok := e.nearestDeadline(); ok {
			d := time.Until(deadline)
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			e.stopTimer(timer, timerC)
			return ctx.Err()
		case t := <-e.tables:
			e.stopTimer(timer, timerC)
			e.adoptTable(t)
		case now := <-timerC:
			e.fireDue(now)
		case ev, ok := <-e.events:
			e.stopTimer(timer, timerC)
			if !ok {
				return nil
			}
			e.handleEvent(ev)
		}
	}
}

func (e *Engine) stopTimer(timer *time.Timer, timerC <-chan time.Time) {
	if timerC == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}

// adoptTable swaps in a freshly validated table. Per-key undo records
// stay valid across the swap (they never consult the table), while the
// layer stack is rebuilt on the new base.
func (e *Engine) adoptTable(t *layout.Table) {
	e.table = t
	e.stack = t.NewStack()
	e.log.Info("layer table swapped", zap.String("base", t.Base()),
		zap.Int("layers", len(t.LayerNames())))
}

// handleEvent processes one physical event in arrival order.
func (e *Engine) handleEvent(ev key.Event) {
	if !ev.Code.Valid() {
		e.fault(&CaptureFault{Code: ev.Code, Reason: "key code out of range"})
		return
	}
	if !e.lastTime.IsZero() && ev.Time.Before(e.lastTime) {
		e.fault(&CaptureFault{Code: ev.Code, Reason: "out-of-order timestamp"})
		e.resetKey(ev.Code)
		return
	}
	e.lastTime = ev.Time

	// Deadlines that elapsed before this event was captured resolve
	// first, keeping timeouts and physical events in one total order.
	e.fireDue(ev.Time)

	if ev.Pressed {
		e.handlePress(ev)
	} else {
		e.handleRelease(ev)
	}
}

func (e *Engine) handlePress(ev key.Event) {
	st := &e.states[ev.Code]
	if st.phase != phaseIdle {
		e.fault(&CaptureFault{Code: ev.Code, Reason: "press of a key already down"})
		e.resetKey(ev.Code)
	}

	// Interruption rule: every other pending tap-hold resolves to hold
	// now, before this press is resolved, so hold-gated layers and
	// modifiers are in effect for the lookup below.
	e.confirmPendingBefore(ev.Code)

	act := e.table.Resolve(e.stack, ev.Code)
	if act.Kind == action.KindTapHold {
		st.phase = phasePending
		st.tapHold = act
		st.pressedAt = ev.Time
		st.deadline = ev.Time.Add(act.Timeout)
		e.pending = append(e.pending, ev.Code)
		return
	}
	e.applyResolved(ev.Code, act)
}

func (e *Engine) handleRelease(ev key.Event) {
	st := &e.states[ev.Code]
	switch st.phase {
	case phaseIdle:
		e.fault(&CaptureFault{Code: ev.Code, Reason: "release of an idle key"})

	case phasePending:
		e.removePending(ev.Code)
		tapHold := st.tapHold
		deadline := st.deadline
		st.clear()
		if !ev.Time.Before(deadline) {
			// The window had already elapsed when the release arrived:
			// this is a hold, activated and immediately released.
			e.applyResolved(ev.Code, *tapHold.Hold)
			e.undoKey(ev.Code)
			return
		}
		// Tap: the physical release already happened, so the synthetic
		// press and release both fire now, in sequence.
		e.applyResolved(ev.Code, *tapHold.Tap)
		e.undoKey(ev.Code)

	case phaseDown:
		e.undoKey(ev.Code)
	}
}

// confirmPendingBefore resolves every pending key except the given one
// to hold, in press order.
func (e *Engine) confirmPendingBefore(interrupter key.Code) {
	if len(e.pending) == 0 {
		return
	}
	queued := make([]key.Code, 0, len(e.pending))
	for _, code := range e.pending {
		if code != interrupter {
			queued = append(queued, code)
		}
	}
	for _, code := range queued {
		e.confirmHold(code)
	}
}

// fireDue resolves every pending key whose deadline has passed, in
// deadline order.
func (e *Engine) fireDue(now time.Time) {
	for {
		var (
			dueCode key.Code
			dueAt   time.Time
			found   bool
		)
		for _, code := range e.pending {
			st := &e.states[code]
			if st.deadline.After(now) {
				continue
			}
			if !found || st.deadline.Before(dueAt) {
				dueCode, dueAt, found = code, st.deadline, true
			}
		}
		if !found {
			return
		}
		e.confirmHold(dueCode)
	}
}

// confirmHold transitions a pending key to hold-resolved: the hold
// action takes effect as pressed input at this moment, not at physical
// press time, so hold-gated layers activate only once hold is confirmed.
func (e *Engine) confirmHold(code key.Code) {
	st := &e.states[code]
	if st.phase != phasePending {
		return
	}
	hold := *st.tapHold.Hold
	e.removePending(code)
	st.clear()
	e.applyResolved(code, hold)
}

// applyResolved applies a non-tap-hold action for a pressed key and
// records what the physical release must undo.
func (e *Engine) applyResolved(code key.Code, act action.Action) {
	st := &e.states[code]
	st.phase = phaseDown

	switch act.Kind {
	case action.KindPass, action.KindBlock:
		// Resolved, nothing emitted, nothing to undo.

	case action.KindEmit:
		if err := e.emit.PressChord(act.Chord); err != nil {
			// Rolled back inside the emitter; the key must not appear
			// held.
			st.clear()
			e.fault(err)
			return
		}
		st.undoChord = act.Chord
		st.hasChord = true

	case action.KindLayerToggle:
		e.stack.PushToggle(act.Layer)
		st.undoLayer = act.Layer

	case action.KindLayerSwitch:
		e.stack.SwitchTo(act.Layer)

	case action.KindMacro:
		if err := e.emit.Play(act.Seq); err != nil {
			e.fault(err)
		}

	case action.KindScript:
		e.runScript(code, act.Script)

	default:
		e.log.Warn("unexpected action kind at apply time",
			zap.Stringer("key", code), zap.Stringer("kind", act.Kind))
	}
}

func (e *Engine) runScript(code key.Code, name string) {
	if e.scripts == nil {
		e.fault(&EmissionFault{Code: code, Err: ErrNoScripts})
		return
	}
	seq, err := e.scripts.Run(name)
	if err != nil {
		e.fault(&EmissionFault{Code: code, Err: err})
		return
	}
	if err := e.emit.Play(seq); err != nil {
		e.fault(err)
	}
}

// undoKey takes back the effect recorded for a down key: release the
// held chord, pop the toggled layer, return to idle.
func (e *Engine) undoKey(code key.Code) {
	st := &e.states[code]
	if st.hasChord {
		if err := e.emit.ReleaseChord(st.undoChord); err != nil {
			e.fault(err)
		}
	}
	if st.undoLayer != "" {
		e.stack.PopToggle(st.undoLayer)
	}
	st.clear()
}

// resetKey forces a key back to idle, undoing anything it holds, so no
// fault leaves a stuck resolver or phantom modifier.
func (e *Engine) resetKey(code key.Code) {
	st := &e.states[code]
	switch st.phase {
	case phasePending:
		e.removePending(code)
		st.clear()
	case phaseDown:
		e.undoKey(code)
	}
}

// releaseAll undoes every down or pending key; run at shutdown so the
// virtual keyboard never ends with held keys.
func (e *Engine) releaseAll() {
	for code := key.Code(1); code < key.MaxCode; code++ {
		if e.states[code].phase != phaseIdle {
			e.resetKey(code)
		}
	}
}

func (e *Engine) removePending(code key.Code) {
	for i, c := range e.pending {
		if c == code {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

func (e *Engine) nearestDeadline() (time.Time, bool) {
	var (
		nearest time.Time
		found   bool
	)
	for _, code := range e.pending {
		d := e.states[code].deadline
		if !found || d.Before(nearest) {
			nearest, found = d, true
		}
	}
	return nearest, found
}

// fault logs the fault and notifies the handler. State resets happen at
// the call sites before fault is invoked; no fault is swallowed without
// one.
func (e *Engine) fault(err error) {
	e.log.Warn("fault", zap.Error(err))
	if e.onFault != nil {
		e.onFault(err)
	}
}
