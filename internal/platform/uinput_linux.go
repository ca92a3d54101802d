//go:build linux

package platform

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"layerd/internal/input/key"
)

// uinput ioctls (linux/uinput.h).
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiDevSetup   = 0x405c5503
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	busVirtual = 0x06
)

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID struct {
		BusType uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	Name         [80]byte
	FFEffectsMax uint32
}

// UinputInjector emits synthetic key events through a uinput virtual
// keyboard.
type UinputInjector struct {
	file *os.File
}

// NewUinputInjector creates the virtual keyboard device. Every code in
// the catalog space is registered so reloaded layouts never need a new
// device.
func NewUinputInjector(name string) (*UinputInjector, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening /dev/uinput: %w", err)
	}
	fd := int(f.Fd())

	if err := unix.IoctlSetInt(fd, uiSetEvBit, evKey); err != nil {
		f.Close()
		return nil, fmt.Errorf("enabling key events: %w", err)
	}
	if err := unix.IoctlSetInt(fd, uiSetEvBit, evSyn); err != nil {
		f.Close()
		return nil, fmt.Errorf("enabling syn events: %w", err)
	}
	for code := key.Code(1); code < key.MaxCode; code++ {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			f.Close()
			return nil, fmt.Errorf("registering key %d: %w", code, err)
		}
	}

	var setup uinputSetup
	setup.ID.BusType = busVirtual
	setup.ID.Vendor = 0x1d50
	setup.ID.Product = 0x6006
	setup.ID.Version = 1
	copy(setup.Name[:], name)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup,
		uintptr(unsafe.Pointer(&setup))); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("uinput setup: %w", errno)
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevCreate, 0); errno != 0 {
		f.Close()
		return nil, fmt.Errorf("uinput create: %w", errno)
	}

	return &UinputInjector{file: f}, nil
}

// Inject writes one key event followed by a synchronization report.
func (inj *UinputInjector) Inject(code key.Code, pressed bool) error {
	value := int32(keyValueRelease)
	if pressed {
		value = keyValuePress
	}
	now := time.Now()
	if err := inj.write(evKey, uint16(code), value, now); err != nil {
		return err
	}
	return inj.write(evSyn, 0, 0, now)
}

// Close destroys the virtual device.
func (inj *UinputInjector) Close() error {
	fd := int(inj.file.Fd())
	_, _, _ = unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevDestroy, 0)
	return inj.file.Close()
}

func (inj *UinputInjector) write(typ, code uint16, value int32, at time.Time) error {
	var b [24]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(at.Unix()))
	binary.LittleEndian.PutUint64(b[8:16], uint64(at.Nanosecond()/1000))
	binary.LittleEndian.PutUint16(b[16:18], typ)
	binary.LittleEndian.PutUint16(b[18:20], code)
	binary.LittleEndian.PutUint32(b[20:24], uint32(value))
	if _, err := inj.file.Write(b[:]); err != nil {
		return fmt.Errorf("injecting event: %w", err)
	}
	return nil
}
