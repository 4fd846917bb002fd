// Package usaol compiles instrument orchestras and performs scores with
// them under a multirate real-time scheduler.
//
// An orchestra declares global settings and instruments. Every statement
// of an instrument runs at one of three rates: once when an instance
// starts (i-rate), every control tick (k-rate) or every audio sample
// (a-rate). The rate of a statement follows from the variables it uses.
//
//	global {
//	    srate 44100;
//	    krate 100;
//	}
//
//	instr tone(freq, amp) {
//	    ksig env;
//	    asig ph;
//	    env = amp * (1 - itime / dur);
//	    ph = frac(ph + freq / s_rate);
//	    output(sin(2 * 3.14159265 * ph) * env);
//	}
//
// A score schedules instruments by name, with start time, duration and
// parameters, all in seconds:
//
//	0.0 tone 1.0 440 0.3
//	0.5 tone 1.0 660 0.2
//	2.0 end
//
// # Quick Start
//
//	orch, err := usaol.Compile(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sink, err := orch.CreateWAV("out.wav", orch.SampleRate(), 16)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = orch.Play(ctx, strings.NewReader(score), sink, nil)
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseError]: syntax errors in the orchestra or a score line
//   - [CompileError]: rate, width and declaration errors
//   - [UnsupportedError]: constructs without code generation
//   - [SchedulingError]: score commands naming unknown instruments
//   - [RuntimeError]: failed instrument passes
//
// Compile reports every failing unit at once as an [ErrorList]. Score and
// runtime errors do not stop playback; they are passed to the hooks in
// [Config].
//
// # Thread Safety
//
// A compiled [Orchestra] is safe for concurrent use.
// Each call to [Orchestra.Play] creates independent instrument instances.
package usaol
