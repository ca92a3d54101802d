package key

import (
	"fmt"
	"time"
)

// Event represents a single physical key transition.
//
// Timestamps come from the capture backend and carry a monotonic clock
// reading; the engine compares them with Before/Sub only, never with
// wall-clock arithmetic.
type Event struct {
	// Code identifies the physical key.
	Code Code

	// Pressed is true for key-down, false for key-up.
	Pressed bool

	// Time is when the event occurred.
	Time time.Time
}

// Press creates a key-down event.
func Press(code Code, at time.Time) Event {
	return Event{Code: code, Pressed: true, Time: at}
}

// Release creates a key-up event.
func Release(code Code, at time.Time) Event {
	return Event{Code: code, Pressed: false, Time: at}
}

// String returns a compact representation like "s↓" or "lctl↑".
func (e Event) String() string {
	arrow := "↑"
	if e.Pressed {
		arrow = "↓"
	}
	return fmt.Sprintf("%s%s", e.Code, arrow)
}
