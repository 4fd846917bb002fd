package output

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// wavChunk is the number of frames encoded per write.
const wavChunk = 4096

// WAV encodes emitted frames as PCM into a WAV stream.
type WAV struct {
	mixer
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	scale  float32
	closer io.Closer // the file, when the sink created it
}

// NewWAV returns a sink writing to w. bitDepth is 16, 24 or 32.
func NewWAV(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*WAV, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, errors.Errorf("unsupported bit depth %d", bitDepth)
	}
	m := newMixer(channels)
	return &WAV{
		mixer: m,
		enc:   wav.NewEncoder(w, sampleRate, bitDepth, m.Width(), 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: m.Width(), SampleRate: sampleRate},
			Data:           make([]int, 0, wavChunk*m.Width()),
			SourceBitDepth: bitDepth,
		},
		scale: float32(int(1)<<(bitDepth-1) - 1),
	}, nil
}

// CreateWAV creates the file at path and returns a sink writing to it.
// Close closes the file.
func CreateWAV(path string, sampleRate, channels, bitDepth int) (*WAV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating output")
	}
	s, err := NewWAV(f, sampleRate, channels, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Emit queues the current frame, encoding a chunk when it fills up.
func (s *WAV) Emit() error {
	for _, v := range s.frame {
		s.buf.Data = append(s.buf.Data, int(clamp(v)*s.scale))
	}
	if len(s.buf.Data) >= wavChunk*s.Width() {
		return s.flush()
	}
	return nil
}

func (s *WAV) flush() error {
	if len(s.buf.Data) == 0 {
		return nil
	}
	err := s.enc.Write(s.buf)
	s.buf.Data = s.buf.Data[:0]
	return errors.Wrap(err, "writing wav")
}

// Close writes the pending frames and the WAV header.
func (s *WAV) Close() error {
	err := s.flush()
	if cerr := s.enc.Close(); err == nil && cerr != nil {
		err = errors.Wrap(cerr, "closing wav")
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
