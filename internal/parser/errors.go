// Package parser provides a recursive descent parser for orchestra sources.
package parser

import (
	"fmt"

	"github.com/kolkov/usaol/internal/token"
)

// ParseError is a syntax error in an orchestra source.
type ParseError struct {
	Pos     token.Position
	Message string
}

func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ErrorList is returned by Parse. The parser gives up at the first
// syntax error, so the list never holds more than one entry; it mirrors
// semantic.ErrorList so callers unpack both the same way.
type ErrorList []*ParseError

func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return el[0].Error()
}

// Err returns el as an error, or nil when it is empty.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

func errorf(pos token.Position, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// expectedError reports that want was expected where got was found.
func expectedError(pos token.Position, want, got string) *ParseError {
	return errorf(pos, "expected %s, got %s", want, got)
}
