package engine

import (
	"bufio"
	"context"
	"io"

	"github.com/kolkov/usaol/internal/score"
	"github.com/pkg/errors"
)

// Factory creates instrument instances by name.
type Factory interface {
	New(name string) (Instrument, error)
}

// Feeder reads a score and enqueues its commands on a scheduler.
type Feeder struct {
	Scheduler *Scheduler
	Factory   Factory
	Filename  string

	// OnError receives commands that were dropped: syntax errors and
	// MisuseErrors. Feeding continues after it returns.
	OnError func(error)

	latest int
	finite bool
	sawEnd bool
}

// Feed reads r to the end. If the score has no end command, the end is
// set one tick after the latest bounded instrument ends.
func (f *Feeder) Feed(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		cmd, err := score.ParseLine(f.Filename, line, sc.Text())
		if err != nil {
			f.report(err)
			continue
		}
		if cmd != nil {
			f.apply(line, cmd)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "reading score")
	}

	if !f.sawEnd && f.finite {
		tracer().Debugf("score has no end command, ending at tick %d", f.latest+1)
		f.Scheduler.SetEnd(f.latest + 1)
	}
	return nil
}

func (f *Feeder) apply(line int, cmd *score.Command) {
	s := f.Scheduler
	if cmd.End {
		f.sawEnd = true
		s.SetEnd(s.Ticks(cmd.Time))
		return
	}

	inst, err := f.Factory.New(cmd.Name)
	if err != nil {
		f.report(&MisuseError{Line: line, Instr: cmd.Name, Err: err})
		return
	}
	if p, ok := inst.(Parameterized); ok && len(cmd.PFields) > 0 {
		params := make([]float32, len(cmd.PFields))
		for i, v := range cmd.PFields {
			params[i] = float32(v)
		}
		p.SetParams(params)
	}

	start, end := s.Ticks(cmd.Time), Unbounded
	if !cmd.Unbounded() {
		end = s.Ticks(cmd.Time + cmd.Dur)
		if !f.finite || end > f.latest {
			f.latest = end
		}
		f.finite = true
	}
	s.Schedule(inst, start, end)
}

func (f *Feeder) report(err error) {
	tracer().Errorf("score: %v", err)
	if f.OnError != nil {
		f.OnError(err)
	}
}
