package engine

import (
	"errors"
	"fmt"

	"layerd/internal/input/key"
)

// Sentinel errors for the engine package.
var (
	// ErrAlreadyRunning is returned when Run is called on a running engine.
	ErrAlreadyRunning = errors.New("engine is already running")

	// ErrNoInjector is returned when the engine is built without an
	// output injector.
	ErrNoInjector = errors.New("engine needs an injector")

	// ErrNoTable is returned when the engine is built without a layer table.
	ErrNoTable = errors.New("engine needs a layer table")

	// ErrNoScripts is returned when a script action fires but no script
	// runner is configured.
	ErrNoScripts = errors.New("no script runner configured")
)

// CaptureFault reports a dropped or out-of-order event from the capture
// collaborator. The affected key's state is forced back to idle rather
// than left pending, since a stuck resolver desyncs all later input on
// that position.
type CaptureFault struct {
	Code   key.Code
	Reason string
}

func (f *CaptureFault) Error() string {
	return fmt.Sprintf("capture fault on %s: %s", f.Code, f.Reason)
}

// EmissionFault reports a rejected synthetic event. The corresponding
// key state is rolled back to prevent phantom held modifiers.
type EmissionFault struct {
	Code key.Code
	Err  error
}

func (f *EmissionFault) Error() string {
	return fmt.Sprintf("emission fault on %s: %v", f.Code, f.Err)
}

func (f *EmissionFault) Unwrap() error {
	return f.Err
}
