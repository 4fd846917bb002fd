package compiler

import (
	"fmt"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/token"
)

// UnsupportedError reports a construct the generator cannot lower.
// It is not a user error in the source; the construct is valid but
// has no code generation.
type UnsupportedError struct {
	Pos    token.Position
	Unit   string
	Node   string // kind of the node
	Detail string
}

func (e *UnsupportedError) Error() string {
	msg := fmt.Sprintf("%s: unsupported %s", e.Unit, e.Node)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + msg
	}
	return msg
}

func (g *generator) unsupported(n ast.Node, format string, args ...any) {
	panic(&UnsupportedError{
		Pos:    n.Pos(),
		Unit:   g.unit.Name,
		Node:   ast.KindOf(n),
		Detail: fmt.Sprintf(format, args...),
	})
}
