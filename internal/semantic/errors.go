// Package semantic checks orchestra subtrees before code generation.
//
// The analysis runs per unit (the global block, each instrument, opcode
// and template) and produces:
//   - a VariableTable per unit, holding the declared variables in order
//   - width/rate attributes for every expression and statement, stored
//     in a Table keyed by node identity
//
// Name resolution is two-level: a unit's own table first, then the
// global table, then the standard names (s_rate, k_rate, time, ...).
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/usaol/internal/token"
)

// Error represents a semantic error with source location.
type Error struct {
	Pos     token.Position
	Unit    string // "global", "instr name", "kopcode name", ...
	Node    string // kind of the offending node
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Unit, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Unit, e.Message)
}

// ErrorList is a collection of semantic errors.
type ErrorList []*Error

// Err returns an error if the list is non-empty, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error implements the error interface for ErrorList.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(el[0].Error())
		for _, e := range el[1:] {
			sb.WriteByte('\n')
			sb.WriteString(e.Error())
		}
		return sb.String()
	}
}

// Error message formats.
const (
	errIllegalType      = "illegal variable type used: %s (declaration of %s)"
	errDuplicateVar     = "variable %s already declared"
	errDuplicateUnit    = "%s %s already declared"
	errUndeclared       = "undeclared variable %s"
	errAssignRate       = "cannot assign %s-rate value to %s-rate variable %s"
	errNotArray         = "%s is not an array"
	errArrayNoIndex     = "array %s used without index"
	errNotValue         = "%s %s cannot be used as a value"
	errNotTable         = "argument %d of %s must be a table"
	errUnknownOpcode    = "unknown opcode %s"
	errArgCount         = "%s expects %s arguments, got %d"
	errUnknownGen       = "unknown table generator %s"
	errTableArgs        = "table %s: %s"
	errImportNoGlobal   = "%s %s has no matching global declaration"
	errImportRate       = "%s %s: global %s is %s-rate, local is %s-rate"
	errTagsInGlobal     = "imports/exports tags are not allowed in the global block"
	errReturnOutside    = "return outside opcode"
	errInstrumentOnly   = "%s is only allowed in instruments"
	errAssignStandard   = "cannot assign to standard name %s"
	errAssignNonSignal  = "cannot assign to %s %s"
	errBadSize          = "array %s must have a positive size"
	errDuplicateGlobal  = "%s set more than once"
	errBadGlobalSetting = "%s %d: %s"
	errOutputWidth      = "output has %d channels, orchestra has %d"
	errImportWidth      = "only scalar variables can be imported or exported: %s"
)
