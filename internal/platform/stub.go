//go:build !linux

package platform

import (
	"fmt"

	"go.uber.org/zap"

	"layerd/internal/input/key"
)

// Stub implementations for non-Linux platforms.

// EvdevCapture is a stub capture on this platform.
type EvdevCapture struct{}

// NewEvdevCapture creates a stub capture.
func NewEvdevCapture(path string, log *zap.Logger) *EvdevCapture {
	return &EvdevCapture{}
}

// Start reports that capture is unsupported.
func (c *EvdevCapture) Start() error {
	return fmt.Errorf("key capture is not supported on this platform")
}

// Stop is a no-op.
func (c *EvdevCapture) Stop() error {
	return nil
}

// Events returns nil.
func (c *EvdevCapture) Events() <-chan key.Event {
	return nil
}

// UinputInjector is a stub injector on this platform.
type UinputInjector struct{}

// NewUinputInjector reports that injection is unsupported.
func NewUinputInjector(name string) (*UinputInjector, error) {
	return nil, fmt.Errorf("key injection is not supported on this platform")
}

// Inject always fails on this platform.
func (inj *UinputInjector) Inject(code key.Code, pressed bool) error {
	return fmt.Errorf("key injection is not supported on this platform")
}

// Close is a no-op.
func (inj *UinputInjector) Close() error {
	return nil
}
