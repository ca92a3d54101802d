// Package platform provides the OS capability pair the engine depends
// on: capturing physical key events from the real keyboard and injecting
// synthetic key events back into the system. On Linux this is evdev
// capture (with exclusive grab) and uinput injection; other platforms
// get stubs.
package platform

import (
	"layerd/internal/input/key"
)

// Capture delivers physical key events in true chronological order.
type Capture interface {
	// Start begins capture; events flow on the Events channel until
	// Stop is called or the device fails.
	Start() error

	// Stop ends capture and closes the event channel.
	Stop() error

	// Events returns the physical event stream.
	Events() <-chan key.Event
}
