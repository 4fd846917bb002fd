//go:build !portaudio

package output

import "github.com/pkg/errors"

// DeviceAvailable reports whether the binary was built with device output.
const DeviceAvailable = false

// ErrNoDevice is returned by OpenDevice in builds without the portaudio tag.
var ErrNoDevice = errors.New("device output not available: build with -tags portaudio")

// Device is unavailable in this build.
type Device struct {
	mixer
}

// OpenDevice always fails in this build.
func OpenDevice(sampleRate, channels, framesPerBuffer int) (*Device, error) {
	return nil, ErrNoDevice
}

// Emit is never reached.
func (d *Device) Emit() error { return ErrNoDevice }

// Close is never reached.
func (d *Device) Close() error { return nil }
