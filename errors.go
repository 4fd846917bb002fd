package usaol

import (
	"fmt"
	"strings"
)

// ParseError represents a syntax error in an orchestra or score.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number, 0 if unknown
	Message string // Error description
}

func (e *ParseError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// CompileError represents a semantic error in one unit of an orchestra.
type CompileError struct {
	Unit    string // "global", "instr tone", ...
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %d:%d: %s: %s", e.Line, e.Column, e.Unit, e.Message)
}

// UnsupportedError reports a valid construct that has no code generation,
// such as a call to a user-defined opcode.
type UnsupportedError struct {
	Instr   string
	Node    string // kind of the construct
	Line    int
	Column  int
	Message string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported at %d:%d: %s: %s", e.Line, e.Column, e.Instr, e.Message)
}

// ErrorList collects the errors of every unit that failed to compile.
type ErrorList []error

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (el ErrorList) Unwrap() []error { return el }

// SchedulingError reports a score command that was dropped, such as one
// naming an unknown instrument. Playback continues.
type SchedulingError struct {
	Line    int
	Instr   string
	Message string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("score line %d: %s: %s", e.Line, e.Instr, e.Message)
}

// RuntimeError represents a failed instrument pass. The instance is
// retired and playback continues.
type RuntimeError struct {
	Message string // Error description
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}
