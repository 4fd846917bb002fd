// Package ast defines the syntax tree for orchestra sources.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce a value
//	│   ├── NumLit, Ident, IndexExpr - terms
//	│   ├── BinaryExpr, UnaryExpr, CondExpr - operations
//	│   └── CallExpr - core opcode and user opcode calls
//	├── Stmt (interface) - statements
//	│   ├── AssignStmt, ExprStmt, OutputStmt - basic
//	│   ├── IfStmt, WhileStmt - control flow
//	│   └── ExtendStmt, TurnoffStmt, ReturnStmt - lifetime and opcode exit
//	├── Decl (interface) - declarations
//	│   ├── GlobalBlock, InstrDecl, OpcodeDecl, TemplateDecl - top level
//	│   └── RTParam, VarDecl, TableDecl - inside blocks
//	└── TagList, TypeSpec, NameList, Name, LValue - declaration parts
package ast

import "github.com/kolkov/usaol/internal/token"

// Node is the interface implemented by all syntax tree nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is the interface for declarations.
type Decl interface {
	Node
	declNode()
}

// Span holds the source range of a node.
type Span struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (s *Span) Pos() token.Position { return s.StartPos }
func (s *Span) End() token.Position { return s.EndPos }

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct{ Span }

func (b *BaseExpr) exprNode() {}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct{ Span }

func (b *BaseStmt) stmtNode() {}

// BaseDecl provides common fields for declaration nodes.
type BaseDecl struct{ Span }

func (b *BaseDecl) declNode() {}

// MakeSpan creates a Span with the given positions.
func MakeSpan(start, end token.Position) Span {
	return Span{StartPos: start, EndPos: end}
}

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{MakeSpan(start, end)}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{MakeSpan(start, end)}
}

// MakeBaseDecl creates a BaseDecl with the given positions.
func MakeBaseDecl(start, end token.Position) BaseDecl {
	return BaseDecl{MakeSpan(start, end)}
}

// KindOf returns a short human-readable name for the node's kind,
// used in diagnostics.
func KindOf(n Node) string {
	switch n := n.(type) {
	case *Orchestra:
		return "orchestra"
	case *GlobalBlock:
		return "global block"
	case *InstrDecl:
		return "instrument declaration"
	case *OpcodeDecl:
		return "opcode declaration"
	case *TemplateDecl:
		return "template declaration"
	case *RTParam:
		return n.Param.String() + " parameter"
	case *VarDecl:
		return "variable declaration"
	case *TableDecl:
		return "table declaration"
	case *TagList:
		return "tag list"
	case *TypeSpec:
		return "type"
	case *NameList:
		return "name list"
	case *Name:
		return n.Kind.String()
	case *LValue:
		return "lvalue"
	case *AssignStmt:
		return "assignment"
	case *ExprStmt:
		return "expression statement"
	case *IfStmt:
		if n.Else != nil {
			return "if-else statement"
		}
		return "if statement"
	case *WhileStmt:
		return "while statement"
	case *OutputStmt:
		return "output statement"
	case *ExtendStmt:
		return "extend statement"
	case *TurnoffStmt:
		return "turnoff statement"
	case *ReturnStmt:
		return "return statement"
	case *NumLit:
		return "constant"
	case *Ident:
		return "identifier"
	case *IndexExpr:
		return "indexed reference"
	case *CallExpr:
		return "function call"
	case *BinaryExpr:
		return "binary expression"
	case *UnaryExpr:
		return "unary expression"
	case *CondExpr:
		return "conditional expression"
	case nil:
		return "<nil>"
	default:
		return "unknown node"
	}
}
