package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/kolkov/usaol/internal/score"
)

// memOut records every emitted frame.
type memOut struct {
	frame  []float32
	frames [][]float32
	closed bool
}

func newMemOut(width int) *memOut { return &memOut{frame: make([]float32, width)} }

func (o *memOut) Width() int { return len(o.frame) }

func (o *memOut) Clear() {
	for i := range o.frame {
		o.frame[i] = 0
	}
}

func (o *memOut) Output(v float32) {
	for i := range o.frame {
		o.frame[i] += v
	}
}

func (o *memOut) OutputFrame(f []float32) {
	for i := range o.frame {
		o.frame[i] += f[i]
	}
}

func (o *memOut) Emit() error {
	o.frames = append(o.frames, append([]float32(nil), o.frame...))
	return nil
}

func (o *memOut) Close() error {
	o.closed = true
	return nil
}

// probe logs its passes and outputs 1 on every audio tick.
type probe struct {
	Base
	name     string
	log      *[]string
	failAt   int // control tick that fails, or -1
	params   []float32
	audioRan int
}

func newProbe(name string, log *[]string) *probe {
	return &probe{name: name, log: log, failAt: -1}
}

func (p *probe) SetParams(v []float32) { p.params = v }

func (p *probe) InitPass(h Host) error {
	*p.log = append(*p.log, fmt.Sprintf("%d %s init", h.Now(), p.name))
	return nil
}

func (p *probe) ControlPass(h Host) error {
	if h.Now() == p.failAt {
		return errors.New("index out of range")
	}
	*p.log = append(*p.log, fmt.Sprintf("%d %s control", h.Now(), p.name))
	return nil
}

func (p *probe) AudioPass(h Host) error {
	p.audioRan++
	p.Output(1)
	return nil
}

func testSettings() Settings {
	return Settings{SRate: 4, KRate: 2, OutChannels: 1}
}

func TestSchedulerLifecycle(t *testing.T) {
	out := newMemOut(1)
	s := NewScheduler(testSettings(), out)
	var log []string
	p := newProbe("a", &log)
	s.Schedule(p, 2, 4)
	s.SetEnd(6)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"2 a init", "2 a control", "3 a control", "4 a control"}
	if strings.Join(log, ",") != strings.Join(want, ",") {
		t.Errorf("passes = %v, want %v", log, want)
	}
	if len(out.frames) != 12 {
		t.Fatalf("frames = %d, want 12", len(out.frames))
	}
	for i, f := range out.frames {
		tick := i / 2
		want := float32(0)
		if tick >= 2 && tick <= 4 {
			want = 1
		}
		if f[0] != want {
			t.Errorf("frame %d (tick %d) = %v, want %v", i, tick, f[0], want)
		}
	}
	if p.audioRan != 6 {
		t.Errorf("audio passes = %d, want 6", p.audioRan)
	}
	if !out.closed {
		t.Error("output not closed")
	}
	if s.Now() != 6 || s.Active() != 0 {
		t.Errorf("now=%d active=%d", s.Now(), s.Active())
	}
}

func TestSchedulerArrivalOrder(t *testing.T) {
	s := NewScheduler(testSettings(), newMemOut(1))
	var log []string
	s.Schedule(newProbe("late", &log), 1, 1)
	s.Schedule(newProbe("b", &log), 0, 0)
	s.Schedule(newProbe("a", &log), 0, 0)

	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	want := []string{"0 b init", "0 a init", "0 b control", "0 a control"}
	if strings.Join(log, ",") != strings.Join(want, ",") {
		t.Errorf("passes = %v, want %v", log, want)
	}
	if s.Pending() != 1 {
		t.Errorf("pending = %d, want 1", s.Pending())
	}

	log = log[:0]
	if err := s.Tick(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(log, ",") != "1 late init,1 late control" {
		t.Errorf("second tick passes = %v", log)
	}
	if s.Active() != 1 {
		t.Errorf("active = %d, want 1 (a and b retired)", s.Active())
	}
}

func TestSchedulerFailedPass(t *testing.T) {
	out := newMemOut(1)
	s := NewScheduler(testSettings(), out)
	var errs []error
	s.OnPassError = func(err error) { errs = append(errs, err) }
	var log []string
	p := newProbe("a", &log)
	p.failAt = 1
	s.Schedule(p, 0, Unbounded)
	s.SetEnd(4)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("pass errors = %v, want one", errs)
	}
	var perr *PassError
	if !errors.As(errs[0], &perr) || perr.Pass != "control" || perr.Tick != 1 {
		t.Errorf("error = %v", errs[0])
	}
	if strings.Join(log, ",") != "0 a init,0 a control" {
		t.Errorf("passes = %v", log)
	}
	// Only tick 0 renders audio.
	if p.audioRan != 2 {
		t.Errorf("audio passes = %d, want 2", p.audioRan)
	}
}

func TestSchedulerCancel(t *testing.T) {
	out := newMemOut(1)
	s := NewScheduler(testSettings(), out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if !out.closed {
		t.Error("output not closed")
	}
	if len(out.frames) != 0 {
		t.Errorf("frames = %d, want 0", len(out.frames))
	}
}

func TestSchedulerEndTick(t *testing.T) {
	s := NewScheduler(testSettings(), newMemOut(1))
	if s.End() != math.MaxInt {
		t.Errorf("default end = %d, want unbounded", s.End())
	}
	s.SetEnd(0)
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Now() != 0 {
		t.Errorf("rendered %d ticks, want 0", s.Now())
	}
}

func TestTicks(t *testing.T) {
	s := NewScheduler(Settings{SRate: 44100, KRate: 100}, newMemOut(1))
	tests := []struct {
		sec  float64
		want int
	}{
		{0, 0},
		{1, 100},
		{0.016, 2},
		{0.014, 1},
		{2.5, 250},
	}
	for _, tt := range tests {
		if got := s.Ticks(tt.sec); got != tt.want {
			t.Errorf("Ticks(%v) = %d, want %d", tt.sec, got, tt.want)
		}
	}
}

func TestBaseLifetime(t *testing.T) {
	var b Base
	b.SetLifetime(10, 20)
	b.Extend(5)
	if _, end := b.Lifetime(); end != 25 {
		t.Errorf("extended end = %d, want 25", end)
	}
	b.Turnoff(12)
	if _, end := b.Lifetime(); end != 12 {
		t.Errorf("end after turnoff = %d, want 12", end)
	}
	b.Turnoff(15)
	if _, end := b.Lifetime(); end != 12 {
		t.Errorf("turnoff must not lengthen: end = %d", end)
	}

	b.SetLifetime(0, Unbounded)
	b.Extend(5)
	if _, end := b.Lifetime(); end != Unbounded {
		t.Errorf("unbounded end changed to %d", end)
	}
	// Unbound output is a no-op.
	b.Output(1)
	b.OutputFrame([]float32{1})
}

type mapFactory map[string]func() Instrument

func (f mapFactory) New(name string) (Instrument, error) {
	mk, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("unknown instrument %q", name)
	}
	return mk(), nil
}

func TestFeeder(t *testing.T) {
	s := NewScheduler(Settings{SRate: 100, KRate: 10, OutChannels: 1}, newMemOut(1))
	var log []string
	var made []*probe
	factory := mapFactory{"tone": func() Instrument {
		p := newProbe("tone", &log)
		made = append(made, p)
		return p
	}}
	var errs []error
	f := &Feeder{Scheduler: s, Factory: factory, Filename: "t.sasl", OnError: func(err error) {
		errs = append(errs, err)
	}}

	src := `# header
0   tone 1 440 0.5
0.5 nosuch 1
bogus line
1.2 tone 0.5
`
	if err := f.Feed(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	if len(made) != 2 || s.Pending() != 2 {
		t.Fatalf("made %d, pending %d; want 2, 2", len(made), s.Pending())
	}
	if start, end := made[0].Lifetime(); start != 0 || end != 10 {
		t.Errorf("first lifetime = %d..%d, want 0..10", start, end)
	}
	if start, end := made[1].Lifetime(); start != 12 || end != 17 {
		t.Errorf("second lifetime = %d..%d, want 12..17", start, end)
	}
	if len(made[0].params) != 2 || made[0].params[0] != 440 {
		t.Errorf("params = %v", made[0].params)
	}
	if s.End() != 18 {
		t.Errorf("end = %d, want 18", s.End())
	}

	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2", errs)
	}
	var misuse *MisuseError
	if !errors.As(errs[0], &misuse) || misuse.Instr != "nosuch" || misuse.Line != 3 {
		t.Errorf("first error = %v", errs[0])
	}
	var serr *score.Error
	if !errors.As(errs[1], &serr) || serr.Line != 4 {
		t.Errorf("second error = %v", errs[1])
	}
}

func TestFeederEndCommand(t *testing.T) {
	s := NewScheduler(Settings{SRate: 100, KRate: 10, OutChannels: 1}, newMemOut(1))
	var log []string
	factory := mapFactory{"drone": func() Instrument { return newProbe("drone", &log) }}
	f := &Feeder{Scheduler: s, Factory: factory}

	src := "0 drone -1\n3 end\n"
	if err := f.Feed(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if s.End() != 30 {
		t.Errorf("end = %d, want 30", s.End())
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(log) != 31 {
		t.Errorf("passes = %d, want 31 (init plus 30 control)", len(log))
	}
}

func TestFeederConcurrent(t *testing.T) {
	s := NewScheduler(Settings{SRate: 100, KRate: 10, OutChannels: 1}, newMemOut(1))
	var log []string
	factory := mapFactory{"tone": func() Instrument { return newProbe("tone", &log) }}
	f := &Feeder{Scheduler: s, Factory: factory}

	done := make(chan error, 1)
	go func() {
		done <- f.Feed(context.Background(), strings.NewReader("0 tone 0.1\n0.2 tone 0.1\n0.5 end\n"))
	}()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Now() != 5 {
		t.Errorf("rendered %d ticks, want 5", s.Now())
	}
}
