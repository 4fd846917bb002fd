package semantic

import (
	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/token"
)

// Builtin describes a core opcode callable from any unit.
type Builtin struct {
	Name     string
	MinArgs  int
	MaxArgs  int // -1 means unbounded
	TableArg int // index of the table argument, or -1
}

var builtins = map[string]Builtin{
	"abs":        {"abs", 1, 1, -1},
	"sgn":        {"sgn", 1, 1, -1},
	"int":        {"int", 1, 1, -1},
	"frac":       {"frac", 1, 1, -1},
	"floor":      {"floor", 1, 1, -1},
	"ceil":       {"ceil", 1, 1, -1},
	"exp":        {"exp", 1, 1, -1},
	"log":        {"log", 1, 1, -1},
	"log10":      {"log10", 1, 1, -1},
	"sqrt":       {"sqrt", 1, 1, -1},
	"sin":        {"sin", 1, 1, -1},
	"cos":        {"cos", 1, 1, -1},
	"atan":       {"atan", 1, 1, -1},
	"dbamp":      {"dbamp", 1, 1, -1},
	"ampdb":      {"ampdb", 1, 1, -1},
	"pow":        {"pow", 2, 2, -1},
	"min":        {"min", 1, -1, -1},
	"max":        {"max", 1, -1, -1},
	"ftlen":      {"ftlen", 1, 1, 0},
	"tableread":  {"tableread", 2, 2, 0},
	"tablewrite": {"tablewrite", 3, 3, 0},
}

// LookupBuiltin returns the core opcode with the given name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// standardNames are the read-only names every instrument can use.
var standardNames = map[string]Rate{
	"s_rate":  RateI,
	"k_rate":  RateI,
	"time":    RateI, // start time in seconds
	"dur":     RateI, // duration in seconds, -1 when unbounded
	"itime":   RateK, // seconds since the instance started
	"inchan":  RateI,
	"outchan": RateI,
}

// LookupStandardName returns the rate of a standard name.
func LookupStandardName(name string) (Rate, bool) {
	r, ok := standardNames[name]
	return r, ok
}

// Table generators and their minimum argument counts (size included).
var tableGens = map[string]int{
	"empty":   1,
	"data":    1,
	"harm":    2,
	"lineseg": 5,
}

// ConstValue evaluates a literal, optionally negated.
func ConstValue(e ast.Expr) (float64, bool) {
	switch e := e.(type) {
	case *ast.NumLit:
		return e.Value, true
	case *ast.UnaryExpr:
		if e.Op == token.SUB {
			v, ok := ConstValue(e.X)
			return -v, ok
		}
	}
	return 0, false
}
