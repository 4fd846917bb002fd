package engine

import "fmt"

// MisuseError reports a score command that cannot be carried out,
// such as a reference to an unknown instrument. The command is dropped.
type MisuseError struct {
	Line  int
	Instr string
	Err   error
}

func (e *MisuseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("score line %d: %s: %v", e.Line, e.Instr, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Instr, e.Err)
}

func (e *MisuseError) Unwrap() error { return e.Err }

// PassError reports a failed instrument pass. The instance is retired.
type PassError struct {
	Pass string
	Tick int
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s pass at tick %d: %v", e.Pass, e.Tick, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
