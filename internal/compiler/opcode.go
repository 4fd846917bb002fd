// Package compiler generates executable units from checked instruments.
package compiler

import "fmt"

// Opcode represents a unit instruction or an inline operand.
// Operands follow their instruction in the code stream.
type Opcode int32

const (
	// Nop does nothing.
	Nop Opcode = iota

	// Stack operations
	Num // Push constant: Num numIndex
	Pop // Discard top of stack

	// Field access
	LoadField  // Push scalar field: LoadField field
	StoreField // Pop into scalar field: StoreField field
	LoadElem   // Push array element: LoadElem field (index on stack)
	StoreElem  // Pop into array element: StoreElem field (index, value on stack)

	// Orchestra globals
	LoadGlobal  // Push global: LoadGlobal global
	StoreGlobal // Pop into global: StoreGlobal global
	Import      // Copy global into field: Import field global
	Export      // Copy field into global: Export field global

	// Standard names
	LoadStd // Push standard name value: LoadStd std

	// Arrays and tables
	NewArray   // Allocate array field: NewArray field size
	TableGen   // Fill table from constants: TableGen field gen numArgs (args on stack)
	TableRead  // Push table element: TableRead field (index on stack)
	TableWrite // Store table element and push value: TableWrite field (index, value on stack)
	TableLen   // Push table length: TableLen field

	// Arithmetic
	Add
	Sub
	Mul
	Div
	Neg
	Trunc // Truncate toward zero

	// Logic (operands are 0.0 or nonzero, result 0.0 or 1.0)
	And
	Or

	// Comparison: pops b, a; pushes -1, 0 or 1. NaN compares as -1.
	Compare

	// Control flow (offset is relative to the instruction after the operand)
	Jump   // Jump offset
	JumpEq // Pop v, jump if v == 0: JumpEq offset
	JumpNe // Pop v, jump if v != 0: JumpNe offset
	JumpLt // Pop v, jump if v < 0: JumpLt offset
	JumpLe // Pop v, jump if v <= 0: JumpLe offset
	JumpGt // Pop v, jump if v > 0: JumpGt offset
	JumpGe // Pop v, jump if v >= 0: JumpGe offset

	// Core opcode call
	Call // Call builtin: Call builtin numArgs

	// Instrument effects
	Output      // Pop value, add to every output channel
	OutputFrame // Pop numArgs values into the output frame: OutputFrame numArgs
	Extend      // Pop seconds, lengthen the instance
	Turnoff     // End the instance at the current control tick

	Return // End of slot
)

var opcodeNames = [...]string{
	Nop:         "Nop",
	Num:         "Num",
	Pop:         "Pop",
	LoadField:   "LoadField",
	StoreField:  "StoreField",
	LoadElem:    "LoadElem",
	StoreElem:   "StoreElem",
	LoadGlobal:  "LoadGlobal",
	StoreGlobal: "StoreGlobal",
	Import:      "Import",
	Export:      "Export",
	LoadStd:     "LoadStd",
	NewArray:    "NewArray",
	TableGen:    "TableGen",
	TableRead:   "TableRead",
	TableWrite:  "TableWrite",
	TableLen:    "TableLen",
	Add:         "Add",
	Sub:         "Sub",
	Mul:         "Mul",
	Div:         "Div",
	Neg:         "Neg",
	Trunc:       "Trunc",
	And:         "And",
	Or:          "Or",
	Compare:     "Compare",
	Jump:        "Jump",
	JumpEq:      "JumpEq",
	JumpNe:      "JumpNe",
	JumpLt:      "JumpLt",
	JumpLe:      "JumpLe",
	JumpGt:      "JumpGt",
	JumpGe:      "JumpGe",
	Call:        "Call",
	Output:      "Output",
	OutputFrame: "OutputFrame",
	Extend:      "Extend",
	Turnoff:     "Turnoff",
	Return:      "Return",
}

func (op Opcode) String() string {
	if op >= 0 && int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int32(op))
}

// Operands returns the number of inline operands following op.
func (op Opcode) Operands() int {
	switch op {
	case Num, LoadField, StoreField, LoadElem, StoreElem, LoadGlobal, StoreGlobal,
		LoadStd, TableRead, TableWrite, TableLen, OutputFrame,
		Jump, JumpEq, JumpNe, JumpLt, JumpLe, JumpGt, JumpGe:
		return 1
	case Import, Export, NewArray, Call:
		return 2
	case TableGen:
		return 3
	}
	return 0
}

// Pushes reports whether op leaves a new value on the stack.
func (op Opcode) Pushes() bool {
	switch op {
	case Num, LoadField, LoadGlobal, LoadStd, TableLen:
		return true
	}
	return false
}

// IsJump reports whether op is a branch.
func (op Opcode) IsJump() bool {
	return op >= Jump && op <= JumpGe
}

// Std identifies a standard name.
type Std int32

const (
	StdSRate   Std = iota // s_rate
	StdKRate              // k_rate
	StdTime               // time
	StdDur                // dur
	StdITime              // itime
	StdInChan             // inchan
	StdOutChan            // outchan
)

var stdNames = map[string]Std{
	"s_rate":  StdSRate,
	"k_rate":  StdKRate,
	"time":    StdTime,
	"dur":     StdDur,
	"itime":   StdITime,
	"inchan":  StdInChan,
	"outchan": StdOutChan,
}

// Builtin identifies a core opcode evaluated by Call.
type Builtin int32

const (
	BuiltinAbs Builtin = iota
	BuiltinSgn
	BuiltinInt
	BuiltinFrac
	BuiltinFloor
	BuiltinCeil
	BuiltinExp
	BuiltinLog
	BuiltinLog10
	BuiltinSqrt
	BuiltinSin
	BuiltinCos
	BuiltinAtan
	BuiltinDbAmp
	BuiltinAmpDb
	BuiltinPow
	BuiltinMin
	BuiltinMax
)

var builtinCodes = map[string]Builtin{
	"abs":   BuiltinAbs,
	"sgn":   BuiltinSgn,
	"int":   BuiltinInt,
	"frac":  BuiltinFrac,
	"floor": BuiltinFloor,
	"ceil":  BuiltinCeil,
	"exp":   BuiltinExp,
	"log":   BuiltinLog,
	"log10": BuiltinLog10,
	"sqrt":  BuiltinSqrt,
	"sin":   BuiltinSin,
	"cos":   BuiltinCos,
	"atan":  BuiltinAtan,
	"dbamp": BuiltinDbAmp,
	"ampdb": BuiltinAmpDb,
	"pow":   BuiltinPow,
	"min":   BuiltinMin,
	"max":   BuiltinMax,
}

// Gen identifies a table generator.
type Gen int32

const (
	GenEmpty Gen = iota
	GenData
	GenHarm
	GenLineseg
)

var genCodes = map[string]Gen{
	"empty":   GenEmpty,
	"data":    GenData,
	"harm":    GenHarm,
	"lineseg": GenLineseg,
}
