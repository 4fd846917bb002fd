package semantic

import (
	"fmt"

	"github.com/kolkov/usaol/internal/ast"
)

// NodeSemantics holds the attributes computed for one node: at most one
// width/rate pair and at most one auxiliary payload.
//
// Aux is one of:
//   - *VariableEntry for names, identifiers and tables
//   - []*VariableEntry for name lists and variable declarations
//   - string for tag lists ("I", "E", "IE")
//   - float64 for constants
type NodeSemantics struct {
	Width        int
	Rate         Rate
	HasWidthRate bool
	Aux          any
}

// Table maps nodes, by identity, to their semantics. Each attribute is
// written once while checking and read-only afterward.
type Table struct {
	m map[ast.Node]*NodeSemantics
}

// NewTable creates an empty semantics table.
func NewTable() *Table {
	return &Table{m: make(map[ast.Node]*NodeSemantics)}
}

func (t *Table) record(n ast.Node) *NodeSemantics {
	s, ok := t.m[n]
	if !ok {
		s = &NodeSemantics{}
		t.m[n] = s
	}
	return s
}

// SetWidthRate attributes n with a width and rate.
// Setting it twice for the same node is an internal error.
func (t *Table) SetWidthRate(n ast.Node, width int, rate Rate) {
	s := t.record(n)
	if s.HasWidthRate {
		panic(fmt.Sprintf("semantic: width/rate of %s at %s set twice", ast.KindOf(n), n.Pos()))
	}
	s.Width, s.Rate, s.HasWidthRate = width, rate, true
}

// SetAux attaches an auxiliary payload to n.
// Setting it twice for the same node is an internal error.
func (t *Table) SetAux(n ast.Node, aux any) {
	s := t.record(n)
	if s.Aux != nil {
		panic(fmt.Sprintf("semantic: payload of %s at %s set twice", ast.KindOf(n), n.Pos()))
	}
	s.Aux = aux
}

// Get returns the semantics of n.
func (t *Table) Get(n ast.Node) (*NodeSemantics, bool) {
	s, ok := t.m[n]
	return s, ok
}

// Rate returns the attributed rate of n, or RateUnknown.
func (t *Table) Rate(n ast.Node) Rate {
	if s, ok := t.m[n]; ok && s.HasWidthRate {
		return s.Rate
	}
	return RateUnknown
}

// Width returns the attributed width of n, or WidthUnknown.
func (t *Table) Width(n ast.Node) int {
	if s, ok := t.m[n]; ok && s.HasWidthRate {
		return s.Width
	}
	return WidthUnknown
}

// Entry returns the variable entry attached to n, if any.
func (t *Table) Entry(n ast.Node) (*VariableEntry, bool) {
	if s, ok := t.m[n]; ok {
		e, ok := s.Aux.(*VariableEntry)
		return e, ok
	}
	return nil, false
}

// Len returns the number of attributed nodes.
func (t *Table) Len() int {
	return len(t.m)
}
