package output

// Buffer keeps every emitted frame in memory, interleaved.
type Buffer struct {
	mixer
	Samples []float32
	closed  bool
}

// NewBuffer returns an in-memory sink with the given channel count.
func NewBuffer(channels int) *Buffer {
	return &Buffer{mixer: newMixer(channels)}
}

// Emit appends the current frame.
func (b *Buffer) Emit() error {
	b.Samples = append(b.Samples, b.frame...)
	return nil
}

// Close marks the buffer closed. The samples stay readable.
func (b *Buffer) Close() error {
	b.closed = true
	return nil
}

// Closed reports whether Close was called.
func (b *Buffer) Closed() bool { return b.closed }

// Frames returns the number of emitted frames.
func (b *Buffer) Frames() int {
	return len(b.Samples) / b.Width()
}
