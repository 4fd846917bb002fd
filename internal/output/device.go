//go:build portaudio

package output

import (
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// DeviceAvailable reports whether the binary was built with device output.
const DeviceAvailable = true

// Device plays emitted frames on the default output device. Emit blocks
// while the device buffer is full, which paces the run loop in real time.
type Device struct {
	mixer
	stream *portaudio.Stream
	buf    []float32 // interleaved, one device buffer
	pos    int
}

// OpenDevice opens the default output device. framesPerBuffer trades
// latency for robustness against underruns.
func OpenDevice(sampleRate, channels, framesPerBuffer int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "initializing portaudio")
	}
	d := &Device{mixer: newMixer(channels)}
	d.buf = make([]float32, framesPerBuffer*d.Width())

	stream, err := portaudio.OpenDefaultStream(0, d.Width(), float64(sampleRate), framesPerBuffer, d.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Wrap(err, "opening output stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, errors.Wrap(err, "starting output stream")
	}
	d.stream = stream
	return d, nil
}

// Emit queues the current frame and writes a full device buffer.
func (d *Device) Emit() error {
	for _, v := range d.frame {
		d.buf[d.pos] = clamp(v)
		d.pos++
	}
	if d.pos < len(d.buf) {
		return nil
	}
	d.pos = 0
	return errors.Wrap(d.stream.Write(), "writing to device")
}

// Close drains the stream and releases the device.
func (d *Device) Close() error {
	if d.pos > 0 {
		clear(d.buf[d.pos:])
		d.pos = 0
		if err := d.stream.Write(); err != nil {
			return errors.Wrap(err, "writing to device")
		}
	}
	err := d.stream.Stop()
	if cerr := d.stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return errors.Wrap(err, "closing device")
}
