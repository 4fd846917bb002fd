// Package score parses score lines.
//
// A score is a sequence of lines, each either scheduling an instrument
// or setting the end of the performance:
//
//	0.0  tone 1.5 440 0.3   # instrument, start, duration, p-fields
//	2.0  end
//
// Times are in seconds. A negative duration means the instrument plays
// until it turns itself off or the performance ends. Text after # or //
// is a comment.
package score

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Command is one parsed score line.
type Command struct {
	Pos     lexer.Position
	Time    float64   `parser:"@Number"`
	End     bool      `parser:"( @\"end\""`
	Name    string    `parser:"| @Ident"`
	Dur     float64   `parser:"  @Number"`
	PFields []float64 `parser:"  @Number* )"`
}

// Unbounded reports whether the command has no end time.
func (c *Command) Unbounded() bool {
	return c.Dur < 0
}

var lexdef = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(#|//)[^\n]*`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var parser = participle.MustBuild[Command](
	participle.Lexer(lexdef),
	participle.Elide("Comment", "Whitespace"),
)

// ParseLine parses one score line. Blank and comment-only lines return
// a nil command and no error. Line numbers start at 1.
func ParseLine(filename string, line int, text string) (*Command, error) {
	if isBlank(text) {
		return nil, nil
	}
	cmd, err := parser.ParseString(filename, text)
	if err != nil {
		return nil, &Error{Filename: filename, Line: line, Err: err}
	}
	cmd.Pos.Line = line
	return cmd, nil
}

func isBlank(text string) bool {
	s := strings.TrimSpace(text)
	return s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//")
}

// Error is a score syntax error.
type Error struct {
	Filename string
	Line     int
	Err      error
}

func (e *Error) Error() string {
	name := e.Filename
	if name == "" {
		name = "score"
	}
	return fmt.Sprintf("%s:%d: %v", name, e.Line, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
