// Package output provides the sinks the scheduler renders into.
package output

// mixer is the frame accumulator shared by the sinks.
type mixer struct {
	frame []float32
}

func newMixer(channels int) mixer {
	if channels < 1 {
		channels = 1
	}
	return mixer{frame: make([]float32, channels)}
}

// Width returns the number of channels.
func (m *mixer) Width() int { return len(m.frame) }

// Clear zeroes the current frame.
func (m *mixer) Clear() {
	clear(m.frame)
}

// Output adds v to every channel.
func (m *mixer) Output(v float32) {
	for i := range m.frame {
		m.frame[i] += v
	}
}

// OutputFrame adds one value per channel. Extra values are ignored.
func (m *mixer) OutputFrame(f []float32) {
	n := min(len(f), len(m.frame))
	for i := 0; i < n; i++ {
		m.frame[i] += f[i]
	}
}

// clamp limits v to [-1, 1]. NaN becomes silence.
func clamp(v float32) float32 {
	switch {
	case v != v:
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
