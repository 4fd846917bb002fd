// Package engine runs instrument instances under a multirate scheduler.
//
// Instances move from Scheduled to Active when the control clock reaches
// their start tick and from Active to Retired once it passes their end
// tick. Each control tick runs the init pass of newly active instances,
// the control pass of every active instance and then one audio pass per
// audio tick. A score feeder enqueues instances concurrently; the queue
// is the only state it shares with the run loop.
package engine

import "math"

// Unbounded is the end tick of an instance without a duration.
const Unbounded = math.MaxInt

// Output accepts audio from an instrument during its audio pass.
type Output interface {
	// Output adds v to every channel of the current frame.
	Output(v float32)
	// OutputFrame adds one value per channel to the current frame.
	OutputFrame(frame []float32)
}

// SystemOutput is the sink the scheduler renders into.
type SystemOutput interface {
	Output
	Width() int
	// Clear zeroes the current frame.
	Clear()
	// Emit delivers the current frame.
	Emit() error
	Close() error
}

// Host is the view of the scheduler available to a running pass.
type Host interface {
	// Now returns the current control tick.
	Now() int
	SRate() int
	KRate() int
	InChannels() int
	OutChannels() int
	// Ticks converts seconds to control ticks.
	Ticks(seconds float64) int
	// Globals returns the orchestra's global store.
	Globals() []float32
}

// Instrument is an executable instance.
type Instrument interface {
	SetOutput(out Output)
	SetLifetime(start, end int)
	Lifetime() (start, end int)

	InitPass(h Host) error
	ControlPass(h Host) error
	AudioPass(h Host) error
}

// Parameterized is implemented by instruments that take score p-fields.
type Parameterized interface {
	SetParams(p []float32)
}

// Base carries the lifetime and output binding shared by instruments.
// Embed it and implement the three passes.
type Base struct {
	out        Output
	start, end int
}

// SetOutput binds the sink the instrument writes to.
func (b *Base) SetOutput(out Output) { b.out = out }

// SetLifetime sets the start and end ticks.
func (b *Base) SetLifetime(start, end int) {
	b.start, b.end = start, end
}

// Lifetime returns the start and end ticks.
func (b *Base) Lifetime() (start, end int) {
	return b.start, b.end
}

// Output adds v to every channel of the bound sink.
func (b *Base) Output(v float32) {
	if b.out != nil {
		b.out.Output(v)
	}
}

// OutputFrame adds one value per channel to the bound sink.
func (b *Base) OutputFrame(frame []float32) {
	if b.out != nil {
		b.out.OutputFrame(frame)
	}
}

// Extend lengthens the lifetime by ticks. Unbounded instances stay so.
func (b *Base) Extend(ticks int) {
	if b.end == Unbounded || ticks <= 0 {
		return
	}
	if b.end > Unbounded-ticks {
		b.end = Unbounded
		return
	}
	b.end += ticks
}

// Turnoff ends the instance after the control tick now.
func (b *Base) Turnoff(now int) {
	if now < b.end {
		b.end = now
	}
}
