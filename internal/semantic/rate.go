package semantic

import (
	"fmt"

	"github.com/kolkov/usaol/internal/token"
)

// Rate is the execution rate of a variable, expression or statement.
type Rate uint8

const (
	RateUnknown Rate = iota
	RateI            // once, at instance start
	RateK            // every control tick
	RateA            // every audio sample
	RateX            // polymorphic opcode parameter
	RateOpArray      // opcode array
	RateTable        // wavetable
)

var rateNames = [...]string{
	RateUnknown: "unknown",
	RateI:       "i",
	RateK:       "k",
	RateA:       "a",
	RateX:       "x",
	RateOpArray: "oparray",
	RateTable:   "table",
}

func (r Rate) String() string {
	if int(r) < len(rateNames) {
		return rateNames[r]
	}
	return fmt.Sprintf("Rate(%d)", int(r))
}

// IsSignal reports whether r is one of the ordered signal rates i, k, a.
func (r Rate) IsSignal() bool {
	return r == RateI || r == RateK || r == RateA
}

// Faster reports whether r runs faster than other. Only signal rates are
// ordered; any comparison involving another rate is false.
func (r Rate) Faster(other Rate) bool {
	return r.IsSignal() && other.IsSignal() && r > other
}

// MaxRate returns the fastest of the given rates, never slower than i.
// An x-rate operand makes the result x-rate.
func MaxRate(rates ...Rate) Rate {
	fastest := RateI
	for _, r := range rates {
		if r == RateX {
			return RateX
		}
		if r.Faster(fastest) {
			fastest = r
		}
	}
	return fastest
}

// RateOfType maps a storage type token to its rate.
func RateOfType(t token.Token) Rate {
	switch t {
	case token.IVAR:
		return RateI
	case token.KSIG:
		return RateK
	case token.ASIG:
		return RateA
	case token.XSIG:
		return RateX
	case token.OPARRAY:
		return RateOpArray
	case token.TABLE:
		return RateTable
	}
	return RateUnknown
}

// Width sentinels. Real widths are positive.
const (
	WidthUnknown     = 0
	WidthInChannels  = -1
	WidthOutChannels = -2
)

// ResolveWidth replaces the channel sentinels with the configured counts.
func ResolveWidth(width int, g *Globals) int {
	switch width {
	case WidthInChannels:
		return g.InChannels
	case WidthOutChannels:
		return g.OutChannels
	}
	return width
}
