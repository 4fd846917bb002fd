package ast

import "github.com/kolkov/usaol/internal/token"

// NumLit represents a numeric constant.
// Examples: 42, 0.5, 1e-3
type NumLit struct {
	BaseExpr
	Value   float64
	Integer bool   // written without fraction or exponent
	Raw     string // original source text
}

// Ident is a reference to a variable or standard name.
type Ident struct {
	BaseExpr
	Name string
}

// IndexExpr is an array element reference.
// Example: buf[i + 1]
type IndexExpr struct {
	BaseExpr
	Name  string
	Index Expr
}

// CallExpr is a call to a core opcode or user opcode.
// Example: sin(2 * 3.14159 * f * t)
type CallExpr struct {
	BaseExpr
	Name string
	Args []Expr
}

// BinaryExpr represents a binary operation.
// Op is one of OR, AND, EQUALS, NOT_EQUALS, LESS, LTE, GREATER, GTE,
// ADD, SUB, MUL, DIV.
type BinaryExpr struct {
	BaseExpr
	Op    token.Token
	Left  Expr
	Right Expr
}

// UnaryExpr represents a unary operation (SUB or NOT).
type UnaryExpr struct {
	BaseExpr
	Op token.Token
	X  Expr
}

// CondExpr is the conditional expression "c ? a : b".
type CondExpr struct {
	BaseExpr
	Cond Expr
	Then Expr
	Else Expr
}

// IsRelational reports whether op is a comparison operator.
func IsRelational(op token.Token) bool {
	switch op {
	case token.EQUALS, token.NOT_EQUALS, token.LESS, token.LTE, token.GREATER, token.GTE:
		return true
	}
	return false
}

// Compile-time checks that expressions implement Expr.
var (
	_ Expr = (*NumLit)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*IndexExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*CondExpr)(nil)
)
