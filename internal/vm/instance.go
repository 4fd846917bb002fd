// Package vm executes compiled instrument units.
package vm

import (
	"math"

	"github.com/kolkov/usaol/internal/compiler"
	"github.com/kolkov/usaol/internal/engine"
)

// Instance is one running copy of a unit. It implements
// engine.Instrument and engine.Parameterized.
type Instance struct {
	engine.Base

	unit   *compiler.Unit
	fields []float32   // scalar fields, by field index
	arrays [][]float32 // array and table fields, by field index

	// Value stack, allocated once
	stack []float32
	sp    int

	frame []float32 // reused by OutputFrame
}

func newInstance(u *compiler.Unit) *Instance {
	stack := u.MaxStack
	if stack < 1 {
		stack = 1
	}
	return &Instance{
		unit:   u,
		fields: make([]float32, len(u.Fields)),
		arrays: make([][]float32, len(u.Fields)),
		stack:  make([]float32, stack),
		frame:  make([]float32, u.MaxOutput),
	}
}

// Unit returns the unit the instance runs.
func (in *Instance) Unit() *compiler.Unit { return in.unit }

// SetParams assigns p-fields to the unit's parameters in order.
// Extra values are ignored; missing ones stay zero.
func (in *Instance) SetParams(p []float32) {
	for i, f := range in.unit.Params {
		if i >= len(p) {
			break
		}
		in.fields[f] = p[i]
	}
}

// Field returns the scalar value of the named field.
func (in *Instance) Field(name string) (float32, bool) {
	i := in.unit.Field(name)
	if i < 0 || in.unit.Fields[i].Array {
		return 0, false
	}
	return in.fields[i], true
}

// Array returns the storage of the named array or table field.
func (in *Instance) Array(name string) ([]float32, bool) {
	i := in.unit.Field(name)
	if i < 0 || !in.unit.Fields[i].Array {
		return nil, false
	}
	return in.arrays[i], true
}

func (in *Instance) construct() error {
	return in.execute(compiler.SlotConstruct, nil)
}

// InitPass runs the init slot once, when the instance becomes active.
func (in *Instance) InitPass(h engine.Host) error {
	return in.execute(compiler.SlotInit, h)
}

// ControlPass runs the control slot.
func (in *Instance) ControlPass(h engine.Host) error {
	return in.execute(compiler.SlotControl, h)
}

// AudioPass runs the audio slot.
func (in *Instance) AudioPass(h engine.Host) error {
	return in.execute(compiler.SlotAudio, h)
}

func (in *Instance) push(v float32) {
	in.stack[in.sp] = v
	in.sp++
}

func (in *Instance) pop() float32 {
	in.sp--
	return in.stack[in.sp]
}

// peekPop returns (second-from-top, top) and pops the top.
func (in *Instance) peekPop() (float32, float32) {
	in.sp--
	return in.stack[in.sp-1], in.stack[in.sp]
}

func (in *Instance) replaceTop(v float32) {
	in.stack[in.sp-1] = v
}

// popN returns a view of the top n values. The view is only valid until
// the next push.
func (in *Instance) popN(n int) []float32 {
	in.sp -= n
	return in.stack[in.sp : in.sp+n]
}

func boolNum(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func compare(a, b float32) float32 {
	switch {
	case a == b:
		return 0
	case a > b:
		return 1
	}
	// a < b, or either is NaN
	return -1
}

// execute runs one slot. h is nil for the construct slot, which only
// allocates storage.
func (in *Instance) execute(slot compiler.Slot, h engine.Host) error {
	u := in.unit
	code := u.Code[slot]
	in.sp = 0

	ip := 0
	for ip < len(code) {
		op := code[ip]
		ip++

		switch op {
		case compiler.Nop:

		case compiler.Num:
			in.push(u.Nums[code[ip]])
			ip++

		case compiler.Pop:
			in.sp--

		case compiler.LoadField:
			in.push(in.fields[code[ip]])
			ip++

		case compiler.StoreField:
			in.fields[code[ip]] = in.pop()
			ip++

		case compiler.LoadElem:
			f := int(code[ip])
			ip++
			arr := in.arrays[f]
			idx := int(in.stack[in.sp-1])
			if idx < 0 || idx >= len(arr) {
				return in.indexError(slot, f, idx)
			}
			in.replaceTop(arr[idx])

		case compiler.StoreElem:
			f := int(code[ip])
			ip++
			arr := in.arrays[f]
			index, value := in.peekPop()
			in.sp--
			idx := int(index)
			if idx < 0 || idx >= len(arr) {
				return in.indexError(slot, f, idx)
			}
			arr[idx] = value

		case compiler.LoadGlobal:
			in.push(h.Globals()[code[ip]])
			ip++

		case compiler.StoreGlobal:
			h.Globals()[code[ip]] = in.pop()
			ip++

		case compiler.Import:
			in.fields[code[ip]] = h.Globals()[code[ip+1]]
			ip += 2

		case compiler.Export:
			h.Globals()[code[ip+1]] = in.fields[code[ip]]
			ip += 2

		case compiler.LoadStd:
			in.push(in.standard(compiler.Std(code[ip]), h))
			ip++

		case compiler.NewArray:
			in.arrays[code[ip]] = make([]float32, code[ip+1])
			ip += 2

		case compiler.TableGen:
			f, gen, n := int(code[ip]), compiler.Gen(code[ip+1]), int(code[ip+2])
			ip += 3
			generate(gen, in.arrays[f], in.popN(n))

		case compiler.TableRead:
			f := int(code[ip])
			ip++
			arr := in.arrays[f]
			idx := int(in.stack[in.sp-1])
			if idx < 0 || idx >= len(arr) {
				return in.indexError(slot, f, idx)
			}
			in.replaceTop(arr[idx])

		case compiler.TableWrite:
			f := int(code[ip])
			ip++
			arr := in.arrays[f]
			index, value := in.peekPop()
			idx := int(index)
			if idx < 0 || idx >= len(arr) {
				return in.indexError(slot, f, idx)
			}
			arr[idx] = value
			in.replaceTop(value)

		case compiler.TableLen:
			in.push(float32(len(in.arrays[code[ip]])))
			ip++

		case compiler.Add:
			l, r := in.peekPop()
			in.replaceTop(l + r)

		case compiler.Sub:
			l, r := in.peekPop()
			in.replaceTop(l - r)

		case compiler.Mul:
			l, r := in.peekPop()
			in.replaceTop(l * r)

		case compiler.Div:
			l, r := in.peekPop()
			in.replaceTop(l / r)

		case compiler.Neg:
			in.replaceTop(-in.stack[in.sp-1])

		case compiler.Trunc:
			in.replaceTop(float32(math.Trunc(float64(in.stack[in.sp-1]))))

		case compiler.And:
			l, r := in.peekPop()
			in.replaceTop(boolNum(l != 0 && r != 0))

		case compiler.Or:
			l, r := in.peekPop()
			in.replaceTop(boolNum(l != 0 || r != 0))

		case compiler.Compare:
			l, r := in.peekPop()
			in.replaceTop(compare(l, r))

		case compiler.Jump:
			ip += 1 + int(code[ip])

		case compiler.JumpEq, compiler.JumpNe, compiler.JumpLt,
			compiler.JumpLe, compiler.JumpGt, compiler.JumpGe:
			offset := int(code[ip])
			ip++
			if taken(op, in.pop()) {
				ip += offset
			}

		case compiler.Call:
			b, n := compiler.Builtin(code[ip]), int(code[ip+1])
			ip += 2
			args := in.popN(n)
			in.push(callBuiltin(b, args))

		case compiler.Output:
			in.Output(in.pop())

		case compiler.OutputFrame:
			n := int(code[ip])
			ip++
			copy(in.frame[:n], in.popN(n))
			in.OutputFrame(in.frame[:n])

		case compiler.Extend:
			in.Extend(h.Ticks(float64(in.pop())))

		case compiler.Turnoff:
			in.Turnoff(h.Now())

		case compiler.Return:
			return nil

		default:
			return &RuntimeError{Instr: u.Name, Slot: slot, Message: "invalid opcode " + op.String()}
		}
	}
	return nil
}

func taken(op compiler.Opcode, v float32) bool {
	switch op {
	case compiler.JumpEq:
		return v == 0
	case compiler.JumpNe:
		return v != 0
	case compiler.JumpLt:
		return v < 0
	case compiler.JumpLe:
		return v <= 0
	case compiler.JumpGt:
		return v > 0
	}
	return v >= 0
}

// standard returns the value of a standard name. Times are in seconds
// and measured at the current control tick.
func (in *Instance) standard(std compiler.Std, h engine.Host) float32 {
	krate := float32(h.KRate())
	start, end := in.Lifetime()
	switch std {
	case compiler.StdSRate:
		return float32(h.SRate())
	case compiler.StdKRate:
		return krate
	case compiler.StdTime:
		return float32(h.Now()) / krate
	case compiler.StdDur:
		if end == engine.Unbounded {
			return -1
		}
		return float32(end-start) / krate
	case compiler.StdITime:
		return float32(h.Now()-start) / krate
	case compiler.StdInChan:
		return float32(h.InChannels())
	case compiler.StdOutChan:
		return float32(h.OutChannels())
	}
	return 0
}
