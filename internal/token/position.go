package token

import "fmt"

// Position locates a token in an orchestra source. Line and Column are
// 1-based; Column counts bytes. Offset is the 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p was set by the lexer.
func (p Position) IsValid() bool {
	return p.Line > 0
}
