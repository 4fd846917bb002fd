package compiler

import (
	"fmt"
	"strings"

	"github.com/kolkov/usaol/internal/semantic"
)

// Slot identifies one of the four instruction slots of a unit.
type Slot int

const (
	SlotConstruct Slot = iota // once, when the instance is created
	SlotInit                  // once, when the instance becomes active
	SlotControl               // every control tick
	SlotAudio                 // every audio tick

	NumSlots
)

var slotNames = [NumSlots]string{"construct", "init", "control", "audio"}

func (s Slot) String() string {
	if s >= 0 && s < NumSlots {
		return slotNames[s]
	}
	return fmt.Sprintf("Slot(%d)", int(s))
}

// slotForRate routes a statement rate to its slot.
func slotForRate(r semantic.Rate) (Slot, bool) {
	switch r {
	case semantic.RateI:
		return SlotInit, true
	case semantic.RateK:
		return SlotControl, true
	case semantic.RateA:
		return SlotAudio, true
	}
	return 0, false
}

// Field is one named storage location of a unit instance.
type Field struct {
	Name  string
	Width int // resolved element count; 1 for scalars
	Rate  semantic.Rate
	Array bool // allocated by NewArray in the construct slot
}

// Unit is a compiled instrument: field layout, constant pool and the
// code of its four slots. Units are immutable and shared by all
// instances of the instrument.
type Unit struct {
	Name      string
	Fields    []Field
	Params    []int // field index of each parameter, in order
	Nums      []float32
	Code      [NumSlots][]Opcode
	MaxStack  int // upper bound on operand stack depth over all slots
	MaxOutput int // widest output statement
}

// Field returns the index of the named field, or -1.
func (u *Unit) Field(name string) int {
	for i, f := range u.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Disassemble returns a human-readable listing of the unit.
func (u *Unit) Disassemble() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== instr %s ===\n", u.Name)
	if len(u.Fields) > 0 {
		sb.WriteString("Fields:\n")
		for i, f := range u.Fields {
			shape := "scalar"
			if f.Array {
				shape = fmt.Sprintf("array[%d]", f.Width)
			}
			fmt.Fprintf(&sb, "  [%d] %s %s %s\n", i, f.Rate, f.Name, shape)
		}
	}
	if len(u.Nums) > 0 {
		sb.WriteString("Numbers:\n")
		for i, n := range u.Nums {
			fmt.Fprintf(&sb, "  [%d] %v\n", i, n)
		}
	}
	for s := SlotConstruct; s < NumSlots; s++ {
		fmt.Fprintf(&sb, "%s:\n", s)
		u.disassembleCode(&sb, u.Code[s], "  ")
	}
	return sb.String()
}

func (u *Unit) disassembleCode(sb *strings.Builder, code []Opcode, indent string) {
	for i := 0; i < len(code); i++ {
		op := code[i]
		fmt.Fprintf(sb, "%s%04d: %s", indent, i, op)

		n := op.Operands()
		if i+n >= len(code) {
			sb.WriteString(" <truncated>\n")
			return
		}
		args := code[i+1 : i+1+n]
		i += n

		switch {
		case op == Num:
			idx := int(args[0])
			if idx < len(u.Nums) {
				fmt.Fprintf(sb, " [%d] = %v", idx, u.Nums[idx])
			} else {
				fmt.Fprintf(sb, " [%d]", idx)
			}
		case op.IsJump():
			fmt.Fprintf(sb, " -> %04d", i+1+int(args[0]))
		case op == LoadField || op == StoreField || op == LoadElem || op == StoreElem ||
			op == TableRead || op == TableWrite || op == TableLen:
			fmt.Fprintf(sb, " %s", u.fieldName(args[0]))
		case op == Import || op == Export:
			fmt.Fprintf(sb, " %s global[%d]", u.fieldName(args[0]), args[1])
		case op == NewArray:
			fmt.Fprintf(sb, " %s size=%d", u.fieldName(args[0]), args[1])
		case op == TableGen:
			fmt.Fprintf(sb, " %s gen=%d args=%d", u.fieldName(args[0]), args[1], args[2])
		case op == Call:
			fmt.Fprintf(sb, " builtin=%d args=%d", args[0], args[1])
		default:
			for _, a := range args {
				fmt.Fprintf(sb, " %d", a)
			}
		}
		sb.WriteByte('\n')
	}
}

func (u *Unit) fieldName(idx Opcode) string {
	if int(idx) >= 0 && int(idx) < len(u.Fields) {
		return fmt.Sprintf("%s[%d]", u.Fields[idx].Name, idx)
	}
	return fmt.Sprintf("[%d]", idx)
}
