package semantic

import (
	"fmt"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/token"
)

// Default run-time parameters used when the global block omits them.
const (
	DefaultSRate       = 44100
	DefaultKRate       = 100
	DefaultInChannels  = 0
	DefaultOutChannels = 1
	DefaultInterp      = 0
)

// Globals holds the orchestra-wide run-time parameters.
type Globals struct {
	SRate       int
	KRate       int
	InChannels  int
	OutChannels int
	Interp      int
}

// SamplesPerControl returns the number of audio ticks per control tick.
func (g *Globals) SamplesPerControl() int {
	return g.SRate / g.KRate
}

// ResolveGlobals reads the run-time parameters from the global section
// and validates them.
func ResolveGlobals(block *ast.GlobalBlock) (*Globals, error) {
	g := &Globals{
		SRate:       DefaultSRate,
		KRate:       DefaultKRate,
		InChannels:  DefaultInChannels,
		OutChannels: DefaultOutChannels,
		Interp:      DefaultInterp,
	}
	var errs ErrorList
	report := func(n ast.Node, format string, args ...any) {
		errs = append(errs, &Error{
			Pos:     n.Pos(),
			Unit:    "global",
			Node:    ast.KindOf(n),
			Message: fmt.Sprintf(format, args...),
		})
	}

	var srate, krate *ast.RTParam
	seen := make(map[token.Token]bool)
	for _, item := range block.Items {
		p, ok := item.(*ast.RTParam)
		if !ok {
			continue
		}
		if seen[p.Param] {
			report(p, errDuplicateGlobal, p.Param)
			continue
		}
		seen[p.Param] = true

		switch p.Param {
		case token.SRATE:
			srate = p
			if p.Value <= 0 {
				report(p, errBadGlobalSetting, p.Param, p.Value, "must be positive")
				continue
			}
			g.SRate = p.Value
		case token.KRATE:
			krate = p
			if p.Value <= 0 {
				report(p, errBadGlobalSetting, p.Param, p.Value, "must be positive")
				continue
			}
			g.KRate = p.Value
		case token.INCHANNELS:
			if p.Value < 0 {
				report(p, errBadGlobalSetting, p.Param, p.Value, "must not be negative")
				continue
			}
			g.InChannels = p.Value
		case token.OUTCHANNELS:
			if p.Value < 1 {
				report(p, errBadGlobalSetting, p.Param, p.Value, "must be at least 1")
				continue
			}
			g.OutChannels = p.Value
		case token.INTERP:
			if p.Value != 0 && p.Value != 1 {
				report(p, errBadGlobalSetting, p.Param, p.Value, "must be 0 or 1")
				continue
			}
			g.Interp = p.Value
		}
	}

	if len(errs) == 0 {
		at := ast.Node(block)
		if krate != nil {
			at = krate
		} else if srate != nil {
			at = srate
		}
		switch {
		case g.KRate > g.SRate:
			report(at, "krate %d exceeds srate %d", g.KRate, g.SRate)
		case g.SRate%g.KRate != 0:
			report(at, "srate %d is not a multiple of krate %d", g.SRate, g.KRate)
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func formatf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
