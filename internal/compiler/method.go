package compiler

import (
	"fmt"
	"math"
)

// method is one emission stream (one slot of a unit).
//
// Forward branches are emitted with a placeholder offset and resolved by
// marking them pending: the next instruction appended becomes their
// target. Several branch sites may be pending at once, as when a nested
// if and its enclosing if end together; they always share that single
// target. Nested conditionals depend on more than one being pending.
type method struct {
	code    []Opcode
	pending []int // operand positions waiting for the next instruction
	pushes  int   // value-pushing instructions, an upper bound on stack depth
}

// add appends one instruction with its operands, resolving pending branches.
func (m *method) add(op Opcode, args ...Opcode) {
	if len(args) != op.Operands() {
		panic(fmt.Sprintf("compiler: %s takes %d operands, got %d", op, op.Operands(), len(args)))
	}
	target := len(m.code)
	for _, mark := range m.pending {
		m.code[mark] = opcodeInt(target - (mark + 1))
	}
	m.pending = m.pending[:0]

	m.code = append(m.code, op)
	m.code = append(m.code, args...)
	if op.Pushes() {
		m.pushes++
	}
}

// branch appends a forward branch and returns its operand position.
func (m *method) branch(op Opcode) int {
	m.add(op, 0)
	return len(m.code) - 1
}

// setPending makes the next appended instruction the target of mark.
func (m *method) setPending(mark int) {
	m.pending = append(m.pending, mark)
}

// label returns the position of the next instruction, for backward jumps.
func (m *method) label() int {
	return len(m.code)
}

// jumpBack appends an unconditional jump to label.
func (m *method) jumpBack(label int) {
	// Offset is relative to the position after the operand.
	m.add(Jump, opcodeInt(label-(len(m.code)+2)))
}

// finish terminates the stream with Return and returns the code.
func (m *method) finish() []Opcode {
	m.add(Return)
	return m.code
}

// opcodeInt converts an int to Opcode, checking for overflow.
func opcodeInt(n int) Opcode {
	if n > math.MaxInt32 || n < math.MinInt32 {
		panic(fmt.Sprintf("compiler: value %d overflows int32", n))
	}
	return Opcode(n)
}
