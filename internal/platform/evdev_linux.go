//go:build linux

package platform

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"layerd/internal/input/key"
)

// Linux input constants (linux/input.h).
const (
	evSyn = 0x00
	evKey = 0x01

	// EVIOCGRAB takes exclusive hold of the device so the remapped
	// keystrokes are not also delivered raw to the session.
	eviocgrab = 0x40044590

	keyValueRelease = 0
	keyValuePress   = 1
	keyValueRepeat  = 2
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = int(unsafe.Sizeof(inputEvent{}))

// EvdevCapture reads physical key events from one evdev device with an
// exclusive grab.
type EvdevCapture struct {
	path   string
	file   *os.File
	events chan key.Event
	done   chan struct{}
	log    *zap.Logger
}

// NewEvdevCapture creates a capture for the device node, e.g.
// /dev/input/event3.
func NewEvdevCapture(path string, log *zap.Logger) *EvdevCapture {
	if log == nil {
		log = zap.NewNop()
	}
	return &EvdevCapture{
		path:   path,
		events: make(chan key.Event, 64),
		done:   make(chan struct{}),
		log:    log,
	}
}

// Start opens and grabs the device and begins the read loop.
func (c *EvdevCapture) Start() error {
	f, err := os.OpenFile(c.path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.path, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), eviocgrab, 1); err != nil {
		f.Close()
		return fmt.Errorf("grabbing %s: %w", c.path, err)
	}
	c.file = f
	go c.readLoop()
	return nil
}

// Stop releases the grab and closes the event channel.
func (c *EvdevCapture) Stop() error {
	if c.file == nil {
		return nil
	}
	_ = unix.IoctlSetInt(int(c.file.Fd()), eviocgrab, 0)
	err := c.file.Close()
	<-c.done
	return err
}

// Events returns the physical event stream.
func (c *EvdevCapture) Events() <-chan key.Event {
	return c.events
}

func (c *EvdevCapture) readLoop() {
	defer close(c.events)
	defer close(c.done)

	buf := make([]byte, inputEventSize*16)
	for {
		n, err := c.file.Read(buf)
		if err != nil {
			// Closed by Stop, or the device went away.
			return
		}
		at := time.Now()
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			ev := decodeInputEvent(buf[off : off+inputEventSize])
			if ev.Type != evKey || ev.Value == keyValueRepeat {
				continue
			}
			code := key.Code(ev.Code)
			if !code.Valid() {
				continue
			}
			c.events <- key.Event{
				Code:    code,
				Pressed: ev.Value == keyValuePress,
				Time:    at,
			}
		}
	}
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}
