package ast

// LValue is the target of an assignment: a name, optionally indexed.
type LValue struct {
	Span
	Name  string
	Index Expr // nil for a plain name
}

// AssignStmt represents an assignment.
// Examples: y = k * 0.5; buf[i] = x;
type AssignStmt struct {
	BaseStmt
	Target *LValue
	Value  Expr
}

// ExprStmt is an expression evaluated for its effect.
// Example: tablewrite(t, 0, x);
type ExprStmt struct {
	BaseStmt
	X Expr
}

// IfStmt represents if and if-else statements.
type IfStmt struct {
	BaseStmt
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when there is no else branch
}

// WhileStmt represents a while loop.
type WhileStmt struct {
	BaseStmt
	Cond Expr
	Body []Stmt
}

// OutputStmt sends values to the instrument output.
// Example: output(y); output(left, right);
type OutputStmt struct {
	BaseStmt
	Args []Expr
}

// ExtendStmt lengthens the running instance by a duration in seconds.
type ExtendStmt struct {
	BaseStmt
	Dur Expr
}

// TurnoffStmt ends the running instance at the current control tick.
type TurnoffStmt struct {
	BaseStmt
}

// ReturnStmt returns values from a user opcode.
type ReturnStmt struct {
	BaseStmt
	Values []Expr
}

// Compile-time checks that statements implement Stmt.
var (
	_ Stmt = (*AssignStmt)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*WhileStmt)(nil)
	_ Stmt = (*OutputStmt)(nil)
	_ Stmt = (*ExtendStmt)(nil)
	_ Stmt = (*TurnoffStmt)(nil)
	_ Stmt = (*ReturnStmt)(nil)
	_ Node = (*LValue)(nil)
)
