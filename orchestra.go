package usaol

import (
	"context"
	"errors"
	"io"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kolkov/usaol/internal/compiler"
	"github.com/kolkov/usaol/internal/engine"
	"github.com/kolkov/usaol/internal/output"
	"github.com/kolkov/usaol/internal/score"
	"github.com/kolkov/usaol/internal/semantic"
	"github.com/kolkov/usaol/internal/vm"
)

// ErrNoEnd is returned when a score played offline never ends: it has
// no end command and every instrument is unbounded.
var ErrNoEnd = errors.New("score has no end")

// Sink receives rendered audio, one frame per audio tick.
type Sink interface {
	Width() int
	Clear()
	Output(v float32)
	OutputFrame(frame []float32)
	Emit() error
	Close() error
}

// Buffer is an in-memory sink holding interleaved samples.
type Buffer = output.Buffer

// Orchestra is a compiled orchestra. It is safe for concurrent use;
// each call to Play creates independent instrument instances.
type Orchestra struct {
	factory *vm.Factory
	globals *semantic.Globals
	store   *compiler.Globals
	source  string
}

// SampleRate returns the orchestra's sampling rate.
func (o *Orchestra) SampleRate() int { return o.globals.SRate }

// ControlRate returns the orchestra's control rate.
func (o *Orchestra) ControlRate() int { return o.globals.KRate }

// Channels returns the number of output channels.
func (o *Orchestra) Channels() int { return o.globals.OutChannels }

// Instruments returns the instrument names in declaration order.
func (o *Orchestra) Instruments() []string { return o.factory.Names() }

// Match returns the instruments whose names match the regular expression.
func (o *Orchestra) Match(pattern string) ([]string, error) {
	return o.factory.Match(pattern)
}

// Source returns the orchestra source.
func (o *Orchestra) Source() string { return o.source }

// Disassemble returns a listing of the named instruments, or of every
// instrument when no name is given.
func (o *Orchestra) Disassemble(names ...string) string {
	if len(names) == 0 {
		names = o.factory.Names()
	}
	var sb strings.Builder
	for _, name := range names {
		if u, ok := o.factory.Unit(name); ok {
			sb.WriteString(u.Disassemble())
		}
	}
	return sb.String()
}

// NewBuffer returns an in-memory sink matching the orchestra's channels.
func (o *Orchestra) NewBuffer() *Buffer {
	return output.NewBuffer(o.globals.OutChannels)
}

// CreateWAV returns a sink writing a WAV file at path.
func (o *Orchestra) CreateWAV(path string, sampleRate, bitDepth int) (Sink, error) {
	s, err := output.CreateWAV(path, sampleRate, o.globals.OutChannels, bitDepth)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewWAV returns a sink writing WAV data to w.
func (o *Orchestra) NewWAV(w io.WriteSeeker, sampleRate, bitDepth int) (Sink, error) {
	s, err := output.NewWAV(w, sampleRate, o.globals.OutChannels, bitDepth)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenDevice returns a sink playing on the default audio device. It
// fails unless the program was built with the portaudio tag.
func (o *Orchestra) OpenDevice(sampleRate, framesPerBuffer int) (Sink, error) {
	d, err := output.OpenDevice(sampleRate, o.globals.OutChannels, framesPerBuffer)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Play performs the score into out and closes out when done.
//
// Playback stops at the score's end command, one control tick after the
// last bounded instrument ends, or when ctx is cancelled. If config is
// nil, default configuration is used.
//
// In realtime mode Play returns as soon as playback stops, even if sc
// has not reached EOF; the remaining input is left unread and sc is not
// closed.
func (o *Orchestra) Play(ctx context.Context, sc io.Reader, out Sink, config *Config) error {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults(o)
	if err := o.validate(config, out); err != nil {
		out.Close()
		return err
	}

	sched := engine.NewScheduler(engine.Settings{
		SRate:       config.SRate,
		KRate:       config.KRate,
		InChannels:  o.globals.InChannels,
		OutChannels: o.globals.OutChannels,
		Globals:     o.store.Len(),
	}, out)
	sched.OnPassError = func(err error) {
		if config.OnRuntimeError != nil {
			config.OnRuntimeError(&RuntimeError{Message: err.Error()})
		}
	}
	feeder := &engine.Feeder{
		Scheduler: sched,
		Factory:   o.factory,
		Filename:  config.ScoreName,
		OnError: func(err error) {
			if config.OnScoreError != nil {
				config.OnScoreError(convertScoreError(err))
			}
		},
	}

	if !config.Realtime {
		if err := feeder.Feed(ctx, sc); err != nil {
			out.Close()
			return err
		}
		if sched.End() == engine.Unbounded {
			out.Close()
			return ErrNoEnd
		}
		return sched.Run(ctx)
	}

	// The run loop may start before the first commands arrive. Once it
	// stops, a feeder still blocked reading sc is no longer waited for.
	g, gctx := errgroup.WithContext(ctx)
	ran := make(chan struct{})
	g.Go(func() error {
		defer close(ran)
		return sched.Run(gctx)
	})
	g.Go(func() error {
		fed := make(chan error, 1)
		go func() {
			fed <- feeder.Feed(gctx, sc)
		}()
		select {
		case err := <-fed:
			return err
		case <-ran:
			tracer().Debugf("play: performance over, score reader abandoned")
			return nil
		}
	})
	return g.Wait()
}

func (o *Orchestra) validate(config *Config, out Sink) error {
	switch {
	case config.KRate > config.SRate:
		return pkgerrors.Errorf("krate %d exceeds srate %d", config.KRate, config.SRate)
	case config.SRate%config.KRate != 0:
		return pkgerrors.Errorf("srate %d is not a multiple of krate %d", config.SRate, config.KRate)
	case out.Width() != o.globals.OutChannels:
		return pkgerrors.Errorf("output has %d channels, orchestra has %d", out.Width(), o.globals.OutChannels)
	}
	return nil
}

func convertScoreError(err error) error {
	var se *score.Error
	if errors.As(err, &se) {
		return &ParseError{Line: se.Line, Message: se.Err.Error()}
	}
	var me *engine.MisuseError
	if errors.As(err, &me) {
		return &SchedulingError{Line: me.Line, Instr: me.Instr, Message: me.Err.Error()}
	}
	return err
}
