package vm

import (
	"fmt"

	"github.com/kolkov/usaol/internal/compiler"
)

// RuntimeError reports a failed pass, such as an index out of range.
type RuntimeError struct {
	Instr   string
	Slot    compiler.Slot
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("instr %s: %s pass: %s", e.Instr, e.Slot, e.Message)
}

func (in *Instance) indexError(slot compiler.Slot, field, idx int) error {
	f := in.unit.Fields[field]
	return &RuntimeError{
		Instr:   in.unit.Name,
		Slot:    slot,
		Message: fmt.Sprintf("index %d out of range for %s[%d]", idx, f.Name, len(in.arrays[field])),
	}
}
