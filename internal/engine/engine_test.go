package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"layerd/internal/input/action"
	"layerd/internal/input/key"
	"layerd/internal/input/layout"
)

const window = 200 * time.Millisecond

func emitAct(t *testing.T, spec string) action.Action {
	t.Helper()
	return action.Emit(chord(t, spec))
}

func newLayer(t *testing.T, name string, bindings ...action.Action) *layout.Layer {
	t.Helper()
	l, err := layout.NewLayer(name, bindings)
	if err != nil {
		t.Fatalf("NewLayer(%s) error: %v", name, err)
	}
	return l
}

// testTable builds the fixture layout:
//
//	keys:   caps            s             d     f         g        m
//	U_BASE  esc/+U_NAV      s/lctl        d     shift+z   >U_GAME  macro
//	U_NAV   _               _             left  right     _        _
//	U_GAME  esc             s             x     f         XX       XX
func testTable(t *testing.T) *layout.Table {
	t.Helper()
	cat, err := key.NewCatalogFromNames([]string{"caps", "s", "d", "f", "g", "m"})
	if err != nil {
		t.Fatalf("NewCatalogFromNames() error: %v", err)
	}

	base := newLayer(t, "U_BASE",
		action.TapHold(emitAct(t, "esc"), action.LayerToggle("U_NAV"), window),
		action.TapHold(emitAct(t, "s"), emitAct(t, "lctl"), window),
		emitAct(t, "d"),
		emitAct(t, "shift+z"),
		action.LayerSwitch("U_GAME"),
		action.Macro([]key.Chord{chord(t, "ctrl+c"), chord(t, "ctrl+v")}),
	)
	nav := newLayer(t, "U_NAV",
		action.Pass(), action.Pass(),
		emitAct(t, "left"), emitAct(t, "right"),
		action.Pass(), action.Pass(),
	)
	game := newLayer(t, "U_GAME",
		emitAct(t, "esc"), emitAct(t, "s"), emitAct(t, "x"), emitAct(t, "f"),
		action.Block(), action.Block(),
	)

	tbl, err := layout.NewTable(cat, []*layout.Layer{base, nav, game})
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	return tbl
}

// testEngine wires an engine for direct event injection; no Run loop.
type testEngine struct {
	eng    *Engine
	inj    *fakeInjector
	faults []error
}

func newTestEngine(t *testing.T, tbl *layout.Table) *testEngine {
	t.Helper()
	te := &testEngine{inj: &fakeInjector{}}
	eng, err := New(Config{
		Table:    tbl,
		Injector: te.inj,
		OnFault:  func(err error) { te.faults = append(te.faults, err) },
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	te.eng = eng
	return te
}

func (te *testEngine) press(name string, at time.Time) {
	te.eng.handleEvent(key.Press(key.FromName(name), at))
}

func (te *testEngine) release(name string, at time.Time) {
	te.eng.handleEvent(key.Release(key.FromName(name), at))
}

func (te *testEngine) check(t *testing.T, want ...string) {
	t.Helper()
	got := te.inj.recorded()
	if len(want) == 0 {
		want = []string{}
		got = append([]string{}, got...)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestPlainEmit(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("d", base)
	te.release("d", base.Add(40*time.Millisecond))
	te.check(t, "d down", "d up")
}

func TestTapHoldWindow(t *testing.T) {
	tests := []struct {
		name    string
		release time.Duration
		want    []string
	}{
		{"release inside window is a tap", 199 * time.Millisecond, []string{"s down", "s up"}},
		{"release at the boundary is a hold", 200 * time.Millisecond, []string{"lctl down", "lctl up"}},
		{"release after the window is a hold", 250 * time.Millisecond, []string{"lctl down", "lctl up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine(t, testTable(t))
			base := time.Now()

			te.press("s", base)
			te.check(t) // nothing until resolution
			te.release("s", base.Add(tt.release))
			te.check(t, tt.want...)
		})
	}
}

func TestInterruptionResolvesHold(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	// Press S, press D 30 ms later: the interruption confirms S as hold
	// before D resolves, so D sees the control modifier already down.
	te.press("s", base)
	te.press("d", base.Add(30*time.Millisecond))
	te.release("d", base.Add(130*time.Millisecond))
	te.release("s", base.Add(160*time.Millisecond))

	te.check(t, "lctl down", "d down", "d up", "lctl up")
}

func TestReleaseDoesNotInterrupt(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("d", base)
	te.press("s", base.Add(20*time.Millisecond))
	// Releasing another key leaves the pending tap-hold undecided.
	te.release("d", base.Add(60*time.Millisecond))
	te.release("s", base.Add(120*time.Millisecond))

	te.check(t, "d down", "d up", "s down", "s up")
}

func TestTimeoutBeforeLaterEvent(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	// The window elapses while no events arrive; the next event carries a
	// later timestamp and the elapsed deadline resolves first.
	te.press("s", base)
	te.press("f", base.Add(400*time.Millisecond))
	te.release("f", base.Add(450*time.Millisecond))
	te.release("s", base.Add(500*time.Millisecond))

	te.check(t,
		"lctl down",
		"lsft down", "z down",
		"z up", "lsft up",
		"lctl up",
	)
}

func TestLayerToggleAtConfirmation(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	// Caps pressed alone activates nothing yet.
	te.press("caps", base)
	te.check(t)

	// The interrupting press confirms the hold, latches the layer, and
	// only then resolves D, which now maps to left.
	te.press("d", base.Add(50*time.Millisecond))
	te.release("d", base.Add(100*time.Millisecond))
	te.check(t, "left down", "left up")

	// Releasing caps pops the layer; D maps back to the base binding.
	te.release("caps", base.Add(300*time.Millisecond))
	te.press("d", base.Add(350*time.Millisecond))
	te.release("d", base.Add(400*time.Millisecond))
	te.check(t, "left down", "left up", "d down", "d up")

	if len(te.faults) != 0 {
		t.Errorf("unexpected faults: %v", te.faults)
	}
}

func TestLayerToggleTap(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("caps", base)
	te.release("caps", base.Add(90*time.Millisecond))
	te.check(t, "esc down", "esc up")
}

func TestPendingCascade(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	// Caps goes pending; S interrupts it (layer latched) and, being
	// transparent in the nav layer, goes pending on its base tap-hold;
	// D interrupts S (control down) and resolves to left in the nav layer.
	te.press("caps", base)
	te.press("s", base.Add(20*time.Millisecond))
	te.press("d", base.Add(40*time.Millisecond))
	te.check(t, "lctl down", "left down")

	te.release("d", base.Add(80*time.Millisecond))
	te.release("s", base.Add(100*time.Millisecond))
	te.release("caps", base.Add(120*time.Millisecond))
	te.check(t, "lctl down", "left down", "left up", "lctl up")
}

func TestLayerSwitch(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	// Latch the nav layer with caps, then hard-switch: the toggle is
	// cleared with the switch.
	te.press("caps", base)
	te.press("g", base.Add(30*time.Millisecond))
	te.release("g", base.Add(60*time.Millisecond))
	te.release("caps", base.Add(90*time.Millisecond))

	// D now resolves in the game layer.
	te.press("d", base.Add(150*time.Millisecond))
	te.release("d", base.Add(200*time.Millisecond))
	te.check(t, "x down", "x up")

	// The switched layer persists after the trigger key is up.
	te.press("s", base.Add(300*time.Millisecond))
	te.release("s", base.Add(330*time.Millisecond))
	te.check(t, "x down", "x up", "s down", "s up")
}

func TestBlockedKey(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("g", base)
	te.release("g", base.Add(30*time.Millisecond))

	// G is blocked in the game layer: resolved, nothing emitted.
	te.press("g", base.Add(60*time.Millisecond))
	te.release("g", base.Add(90*time.Millisecond))
	te.check(t)

	if len(te.faults) != 0 {
		t.Errorf("unexpected faults: %v", te.faults)
	}
}

func TestMacroPlayback(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("m", base)
	te.release("m", base.Add(30*time.Millisecond))
	te.check(t,
		"lctl down", "c down", "c up", "lctl up",
		"lctl down", "v down", "v up", "lctl up",
	)
}

func TestReleaseOfIdleKeyFaults(t *testing.T) {
	te := newTestEngine(t, testTable(t))

	te.release("d", time.Now())
	te.check(t)

	if len(te.faults) != 1 {
		t.Fatalf("faults = %v, want one capture fault", te.faults)
	}
	var cf *CaptureFault
	if !errors.As(te.faults[0], &cf) {
		t.Fatalf("fault = %T, want *CaptureFault", te.faults[0])
	}
	if cf.Code != key.FromName("d") {
		t.Errorf("fault key = %s, want d", cf.Code)
	}
}

func TestDoublePressResets(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("d", base)
	te.press("d", base.Add(30*time.Millisecond))

	// The duplicate press faults, the stale down-state is undone, and the
	// press is then processed cleanly.
	te.check(t, "d down", "d up", "d down")
	if len(te.faults) != 1 {
		t.Errorf("faults = %v, want one capture fault", te.faults)
	}

	te.release("d", base.Add(60*time.Millisecond))
	te.check(t, "d down", "d up", "d down", "d up")
}

func TestOutOfOrderTimestampFaults(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("d", base)
	te.press("f", base.Add(-10*time.Millisecond))

	te.check(t, "d down")
	if len(te.faults) != 1 {
		t.Fatalf("faults = %v, want one capture fault", te.faults)
	}
	var cf *CaptureFault
	if !errors.As(te.faults[0], &cf) {
		t.Fatalf("fault = %T, want *CaptureFault", te.faults[0])
	}
}

func TestEmissionFaultLeavesNoPhantoms(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	te.inj.failOn = key.FromName("z")
	te.inj.err = errors.New("device gone")
	base := time.Now()

	// F emits shift+z; the base key fails, the shift press is rolled
	// back, and the key does not count as held.
	te.press("f", base)
	te.press("f", base.Add(300*time.Millisecond))
	te.check(t, "lsft down", "lsft up", "lsft down", "lsft up")

	faults := 0
	for _, err := range te.faults {
		var ef *EmissionFault
		if errors.As(err, &ef) {
			faults++
		}
	}
	if faults != 2 {
		t.Errorf("emission faults = %d (%v), want 2", faults, te.faults)
	}
}

func TestTableSwapKeepsUndoRecords(t *testing.T) {
	te := newTestEngine(t, testTable(t))
	base := time.Now()

	te.press("d", base)
	te.eng.adoptTable(testTable(t))
	te.release("d", base.Add(50*time.Millisecond))

	te.check(t, "d down", "d up")
}

type fakeRunner struct {
	seq []key.Chord
	err error
}

func (f *fakeRunner) Run(string) ([]key.Chord, error) {
	return f.seq, f.err
}

func scriptTable(t *testing.T) *layout.Table {
	t.Helper()
	cat, err := key.NewCatalogFromNames([]string{"a"})
	if err != nil {
		t.Fatalf("NewCatalogFromNames() error: %v", err)
	}
	tbl, err := layout.NewTable(cat, []*layout.Layer{
		newLayer(t, "U_BASE", action.Script("snippet")),
	})
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	return tbl
}

func TestScriptAction(t *testing.T) {
	inj := &fakeInjector{}
	eng, err := New(Config{
		Table:    scriptTable(t),
		Injector: inj,
		Scripts:  &fakeRunner{seq: []key.Chord{chord(t, "ctrl+c")}},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	base := time.Now()
	eng.handleEvent(key.Press(key.FromName("a"), base))
	eng.handleEvent(key.Release(key.FromName("a"), base.Add(20*time.Millisecond)))

	want := []string{"lctl down", "c down", "c up", "lctl up"}
	if got := inj.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestScriptWithoutRunnerFaults(t *testing.T) {
	var faults []error
	eng, err := New(Config{
		Table:    scriptTable(t),
		Injector: &fakeInjector{},
		OnFault:  func(err error) { faults = append(faults, err) },
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	eng.handleEvent(key.Press(key.FromName("a"), time.Now()))
	if len(faults) != 1 || !errors.Is(faults[0], ErrNoScripts) {
		t.Errorf("faults = %v, want ErrNoScripts", faults)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{Table: testTable(t)}); !errors.Is(err, ErrNoInjector) {
		t.Errorf("New() error = %v, want ErrNoInjector", err)
	}
	if _, err := New(Config{Injector: &fakeInjector{}}); !errors.Is(err, ErrNoTable) {
		t.Errorf("New() error = %v, want ErrNoTable", err)
	}
}

func runTable(t *testing.T, timeout time.Duration) *layout.Table {
	t.Helper()
	cat, err := key.NewCatalogFromNames([]string{"s", "d"})
	if err != nil {
		t.Fatalf("NewCatalogFromNames() error: %v", err)
	}
	tbl, err := layout.NewTable(cat, []*layout.Layer{
		newLayer(t, "U_BASE",
			action.TapHold(emitAct(t, "s"), emitAct(t, "lctl"), timeout),
			emitAct(t, "d"),
		),
	})
	if err != nil {
		t.Fatalf("NewTable() error: %v", err)
	}
	return tbl
}

func TestRunTimerFiresHold(t *testing.T) {
	inj := &fakeInjector{}
	events := make(chan key.Event)
	eng, err := New(Config{
		Table:    runTable(t, 40*time.Millisecond),
		Injector: inj,
		Events:   events,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	events <- key.Press(key.FromName("s"), time.Now())

	// The hold must fire from the timer alone, with no further events.
	deadline := time.After(2 * time.Second)
	for {
		got := inj.recorded()
		if len(got) > 0 {
			if got[0] != "lctl down" {
				t.Fatalf("events = %v, want [lctl down]", got)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the hold to fire")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}

	// Shutdown releases the held output.
	want := []string{"lctl down", "lctl up"}
	if got := inj.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("events after shutdown = %v, want %v", got, want)
	}
}

func TestRunTwiceFails(t *testing.T) {
	eng, err := New(Config{
		Table:    runTable(t, 40*time.Millisecond),
		Injector: &fakeInjector{},
		Events:   make(chan key.Event),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	// Wait for the first Run to claim the engine.
	deadline := time.After(2 * time.Second)
	for !eng.running.Load() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for Run to start")
		case <-time.After(time.Millisecond):
		}
	}

	if err := eng.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
	cancel()
	<-done
}
