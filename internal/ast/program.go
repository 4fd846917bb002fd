package ast

import (
	"fmt"

	"github.com/kolkov/usaol/internal/token"
)

// Orchestra is the root of a parsed orchestra: global blocks,
// instrument, opcode and template declarations in source order.
type Orchestra struct {
	// Source file name (for error messages)
	Filename string

	Items []Decl

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the orchestra.
func (o *Orchestra) Pos() token.Position { return o.StartPos }

// End returns the position after the last token in the orchestra.
func (o *Orchestra) End() token.Position { return o.EndPos }

// GlobalBlock is a "global { ... }" section. Items are RTParam,
// VarDecl and TableDecl nodes.
type GlobalBlock struct {
	BaseDecl
	Items []Decl
}

// RTParam is a run-time parameter statement inside a global block.
// Examples: srate 48000; krate 100; outchannels 2;
type RTParam struct {
	BaseDecl
	Param token.Token // SRATE, KRATE, INCHANNELS, OUTCHANNELS or INTERP
	Value int
}

// InstrDecl declares an instrument.
//
//	instr name(p1, p2) { declarations statements }
type InstrDecl struct {
	BaseDecl
	Name   string
	Params []*Ident
	Decls  []Decl
	Body   []Stmt
}

// OpcodeDecl declares a user-defined opcode.
//
//	aopcode name(asig x, ksig k) { declarations statements }
type OpcodeDecl struct {
	BaseDecl
	Kind   token.Token // OPCODE, AOPCODE, KOPCODE or IOPCODE
	Name   string
	Params []*VarDecl
	Decls  []Decl
	Body   []Stmt
}

// TemplateDecl declares an instrument template.
//
//	template name(p1, p2) { declarations statements }
type TemplateDecl struct {
	BaseDecl
	Name   string
	Params []*Ident
	Decls  []Decl
	Body   []Stmt
}

// VarDecl is a typed variable declaration.
// Examples: ksig k; imports exports asig bus[2];
type VarDecl struct {
	BaseDecl
	Tags  *TagList // nil when untagged
	Type  *TypeSpec
	Names *NameList
}

// TableDecl declares a wavetable filled by a generator.
// Example: table t(harm, 1024, 1, 0.5);
type TableDecl struct {
	BaseDecl
	Tags *TagList // nil when untagged
	Name string
	Gen  string
	Args []Expr
}

// TagList holds the imports/exports tags of a declaration.
type TagList struct {
	Span
	Imports bool
	Exports bool
}

// TypeSpec is the storage type of a variable declaration.
type TypeSpec struct {
	Span
	Type token.Token // IVAR, KSIG, ASIG, XSIG or OPARRAY
}

// NameList is the comma-separated list of declared names.
type NameList struct {
	Span
	Names []*Name
}

// NameKind distinguishes the shapes of a declared name.
type NameKind int

const (
	SimpleName      NameKind = iota // x
	IndexedName                     // x[8]
	InChannelsName                  // x[inchannels]
	OutChannelsName                 // x[outchannels]
)

func (k NameKind) String() string {
	switch k {
	case SimpleName:
		return "simple name"
	case IndexedName:
		return "indexed name"
	case InChannelsName:
		return "in-channels name"
	case OutChannelsName:
		return "out-channels name"
	}
	return fmt.Sprintf("NameKind(%d)", int(k))
}

// Name is one declared name.
type Name struct {
	Span
	Kind  NameKind
	Ident string
	Size  int // array size for IndexedName
}

// Compile-time checks that declarations implement Decl.
var (
	_ Decl = (*GlobalBlock)(nil)
	_ Decl = (*RTParam)(nil)
	_ Decl = (*InstrDecl)(nil)
	_ Decl = (*OpcodeDecl)(nil)
	_ Decl = (*TemplateDecl)(nil)
	_ Decl = (*VarDecl)(nil)
	_ Decl = (*TableDecl)(nil)
	_ Node = (*Orchestra)(nil)
	_ Node = (*TagList)(nil)
	_ Node = (*TypeSpec)(nil)
	_ Node = (*NameList)(nil)
	_ Node = (*Name)(nil)
)
