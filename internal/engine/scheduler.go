package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
)

// tracer traces with key 'usaol.engine'.
func tracer() tracing.Trace {
	return tracing.Select("usaol.engine")
}

// Settings are the fixed clock and channel parameters of a performance.
type Settings struct {
	SRate       int
	KRate       int
	InChannels  int
	OutChannels int
	Globals     int // size of the global store
}

// SamplesPerControl returns the number of audio ticks per control tick.
func (s Settings) SamplesPerControl() int {
	if s.KRate <= 0 {
		return 1
	}
	return s.SRate / s.KRate
}

type voice struct {
	inst   Instrument
	failed bool
}

// Scheduler is the real-time run loop. Schedule and SetEnd may be called
// from any goroutine; everything else belongs to the goroutine in Run.
type Scheduler struct {
	settings Settings
	out      SystemOutput

	mu      sync.Mutex
	pending []*voice

	end atomic.Int64

	time     int
	active   []*voice
	promoted []*voice
	globals  []float32

	// OnPassError is called from the run loop when a pass fails.
	OnPassError func(error)
}

// NewScheduler returns a scheduler rendering into out. The end time is
// unbounded until SetEnd is called.
func NewScheduler(settings Settings, out SystemOutput) *Scheduler {
	s := &Scheduler{
		settings: settings,
		out:      out,
		globals:  make([]float32, settings.Globals),
	}
	s.end.Store(math.MaxInt64)
	return s
}

// Schedule enqueues inst to play from tick start until tick end.
func (s *Scheduler) Schedule(inst Instrument, start, end int) {
	inst.SetLifetime(start, end)
	inst.SetOutput(s.out)

	s.mu.Lock()
	s.pending = append(s.pending, &voice{inst: inst})
	s.mu.Unlock()
}

// SetEnd sets the tick at which the performance stops. The end tick
// itself is not rendered: Run stops before its control and audio passes,
// so a performance ending at tick n emits exactly n control ticks.
func (s *Scheduler) SetEnd(tick int) {
	s.end.Store(int64(tick))
}

// End returns the scheduled end tick.
func (s *Scheduler) End() int {
	e := s.end.Load()
	if e > math.MaxInt {
		return math.MaxInt
	}
	return int(e)
}

// Ticks converts seconds to control ticks.
func (s *Scheduler) Ticks(seconds float64) int {
	return int(math.Round(seconds * float64(s.settings.KRate)))
}

// Now returns the current control tick.
func (s *Scheduler) Now() int { return s.time }

func (s *Scheduler) SRate() int         { return s.settings.SRate }
func (s *Scheduler) KRate() int         { return s.settings.KRate }
func (s *Scheduler) InChannels() int    { return s.settings.InChannels }
func (s *Scheduler) OutChannels() int   { return s.settings.OutChannels }
func (s *Scheduler) Globals() []float32 { return s.globals }

// Active returns the number of active instances.
func (s *Scheduler) Active() int { return len(s.active) }

// Pending returns the number of instances not yet due.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run renders control ticks until the end time is reached or ctx is
// done, then closes the output.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := s.out.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output")
		}
	}()

	tracer().Debugf("run: srate=%d krate=%d outchannels=%d",
		s.settings.SRate, s.settings.KRate, s.settings.OutChannels)
	for {
		if int64(s.time) >= s.end.Load() {
			tracer().Debugf("run: end at tick %d", s.time)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
}

// Tick renders one control tick and advances the clock.
func (s *Scheduler) Tick() error {
	s.promote()
	for _, v := range s.promoted {
		if err := v.inst.InitPass(s); err != nil {
			s.fail(v, "init", err)
		}
	}
	s.retire()

	for _, v := range s.active {
		if v.failed {
			continue
		}
		if err := v.inst.ControlPass(s); err != nil {
			s.fail(v, "control", err)
		}
	}

	n := s.settings.SamplesPerControl()
	for i := 0; i < n; i++ {
		s.out.Clear()
		for _, v := range s.active {
			if v.failed {
				continue
			}
			if err := v.inst.AudioPass(s); err != nil {
				s.fail(v, "audio", err)
			}
		}
		if err := s.out.Emit(); err != nil {
			return errors.Wrapf(err, "emitting frame at tick %d", s.time)
		}
	}

	s.time++
	return nil
}

// promote moves due instances from the queue to the active list,
// keeping arrival order on both sides.
func (s *Scheduler) promote() {
	s.promoted = s.promoted[:0]

	s.mu.Lock()
	kept := s.pending[:0]
	for _, v := range s.pending {
		if start, _ := v.inst.Lifetime(); start <= s.time {
			s.promoted = append(s.promoted, v)
		} else {
			kept = append(kept, v)
		}
	}
	for i := len(kept); i < len(s.pending); i++ {
		s.pending[i] = nil
	}
	s.pending = kept
	s.mu.Unlock()

	if len(s.promoted) > 0 {
		tracer().Debugf("tick %d: %d instance(s) active", s.time, len(s.promoted))
	}
	s.active = append(s.active, s.promoted...)
}

func (s *Scheduler) retire() {
	kept := s.active[:0]
	for _, v := range s.active {
		if _, end := v.inst.Lifetime(); s.time > end || v.failed {
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(s.active); i++ {
		s.active[i] = nil
	}
	if retired := len(s.active) - len(kept); retired > 0 {
		tracer().Debugf("tick %d: %d instance(s) retired", s.time, retired)
	}
	s.active = kept
}

// fail marks v for retirement at the next retire step.
func (s *Scheduler) fail(v *voice, pass string, err error) {
	v.failed = true
	perr := &PassError{Pass: pass, Tick: s.time, Err: err}
	tracer().Errorf("%v", perr)
	if s.OnPassError != nil {
		s.OnPassError(perr)
	}
}
