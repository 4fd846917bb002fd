package vm

import (
	"math"

	"github.com/kolkov/usaol/internal/compiler"
)

// callBuiltin evaluates a core opcode. Argument counts were checked
// before generation.
func callBuiltin(b compiler.Builtin, args []float32) float32 {
	x := float64(args[0])

	switch b {
	case compiler.BuiltinAbs:
		return float32(math.Abs(x))

	case compiler.BuiltinSgn:
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0

	case compiler.BuiltinInt:
		return float32(math.Trunc(x))

	case compiler.BuiltinFrac:
		_, frac := math.Modf(x)
		return float32(frac)

	case compiler.BuiltinFloor:
		return float32(math.Floor(x))

	case compiler.BuiltinCeil:
		return float32(math.Ceil(x))

	case compiler.BuiltinExp:
		return float32(math.Exp(x))

	case compiler.BuiltinLog:
		return float32(math.Log(x))

	case compiler.BuiltinLog10:
		return float32(math.Log10(x))

	case compiler.BuiltinSqrt:
		return float32(math.Sqrt(x))

	case compiler.BuiltinSin:
		return float32(math.Sin(x))

	case compiler.BuiltinCos:
		return float32(math.Cos(x))

	case compiler.BuiltinAtan:
		return float32(math.Atan(x))

	case compiler.BuiltinDbAmp:
		// 90 dB is full scale
		return float32(math.Pow(10, (x-90)/20))

	case compiler.BuiltinAmpDb:
		return float32(90 + 20*math.Log10(x))

	case compiler.BuiltinPow:
		return float32(math.Pow(x, float64(args[1])))

	case compiler.BuiltinMin:
		m := args[0]
		for _, v := range args[1:] {
			if v < m {
				m = v
			}
		}
		return m

	case compiler.BuiltinMax:
		m := args[0]
		for _, v := range args[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
	return 0
}
