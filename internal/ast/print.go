package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/usaol/internal/token"
)

// Printer writes nodes back out in source form, fully parenthesized.
// It is used for debugging output and round-trip tests.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the source form of node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	for i := 0; i < p.indent; i++ {
		_, p.err = io.WriteString(p.w, "    ")
	}
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case nil:
		p.printf("<nil>")
	case *Orchestra:
		for i, item := range n.Items {
			if i > 0 {
				p.printf("\n")
			}
			p.printDecl(item)
		}
	case Decl:
		p.printDecl(n)
	case Stmt:
		p.printStmt(n)
	case Expr:
		p.printExpr(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printDecl(d Decl) {
	switch n := d.(type) {
	case *GlobalBlock:
		p.printf("global {\n")
		p.indent++
		for _, item := range n.Items {
			p.printDecl(item)
		}
		p.indent--
		p.printf("}\n")
	case *RTParam:
		p.writeIndent()
		p.printf("%s %d;\n", n.Param, n.Value)
	case *InstrDecl:
		p.printf("instr %s(%s) ", n.Name, identList(n.Params))
		p.printBody(n.Decls, n.Body)
	case *OpcodeDecl:
		params := make([]string, len(n.Params))
		for i, v := range n.Params {
			params[i] = v.Type.Type.String() + " " + nameList(v.Names)
		}
		p.printf("%s %s(%s) ", n.Kind, n.Name, strings.Join(params, ", "))
		p.printBody(n.Decls, n.Body)
	case *TemplateDecl:
		p.printf("template %s(%s) ", n.Name, identList(n.Params))
		p.printBody(n.Decls, n.Body)
	case *VarDecl:
		p.writeIndent()
		p.printf("%s%s %s;\n", tagString(n.Tags), n.Type.Type, nameList(n.Names))
	case *TableDecl:
		p.writeIndent()
		p.printf("%stable %s(%s", tagString(n.Tags), n.Name, n.Gen)
		for _, a := range n.Args {
			p.printf(", ")
			p.printExpr(a)
		}
		p.printf(");\n")
	default:
		p.printf("<%T>", d)
	}
}

func (p *Printer) printBody(decls []Decl, body []Stmt) {
	p.printf("{\n")
	p.indent++
	for _, d := range decls {
		p.printDecl(d)
	}
	for _, s := range body {
		p.printStmt(s)
	}
	p.indent--
	p.writeIndent()
	p.printf("}\n")
}

func (p *Printer) printBlock(stmts []Stmt) {
	p.printf("{\n")
	p.indent++
	for _, s := range stmts {
		p.printStmt(s)
	}
	p.indent--
	p.writeIndent()
	p.printf("}")
}

func (p *Printer) printStmt(s Stmt) {
	p.writeIndent()
	switch n := s.(type) {
	case *AssignStmt:
		p.printf("%s", n.Target.Name)
		if n.Target.Index != nil {
			p.printf("[")
			p.printExpr(n.Target.Index)
			p.printf("]")
		}
		p.printf(" = ")
		p.printExpr(n.Value)
		p.printf(";\n")
	case *ExprStmt:
		p.printExpr(n.X)
		p.printf(";\n")
	case *IfStmt:
		p.printf("if (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printBlock(n.Then)
		if n.Else != nil {
			p.printf(" else ")
			p.printBlock(n.Else)
		}
		p.printf("\n")
	case *WhileStmt:
		p.printf("while (")
		p.printExpr(n.Cond)
		p.printf(") ")
		p.printBlock(n.Body)
		p.printf("\n")
	case *OutputStmt:
		p.printf("output")
		p.printArgs(n.Args)
		p.printf(";\n")
	case *ExtendStmt:
		p.printf("extend(")
		p.printExpr(n.Dur)
		p.printf(");\n")
	case *TurnoffStmt:
		p.printf("turnoff;\n")
	case *ReturnStmt:
		p.printf("return")
		p.printArgs(n.Values)
		p.printf(";\n")
	default:
		p.printf("<%T>\n", s)
	}
}

func (p *Printer) printExpr(e Expr) {
	switch n := e.(type) {
	case *NumLit:
		p.printf("%s", n.Raw)
	case *Ident:
		p.printf("%s", n.Name)
	case *IndexExpr:
		p.printf("%s[", n.Name)
		p.printExpr(n.Index)
		p.printf("]")
	case *CallExpr:
		p.printf("%s", n.Name)
		p.printArgs(n.Args)
	case *BinaryExpr:
		p.printf("(")
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)
		p.printf(")")
	case *UnaryExpr:
		p.printf("(%s", n.Op)
		p.printExpr(n.X)
		p.printf(")")
	case *CondExpr:
		p.printf("(")
		p.printExpr(n.Cond)
		p.printf(" ? ")
		p.printExpr(n.Then)
		p.printf(" : ")
		p.printExpr(n.Else)
		p.printf(")")
	case nil:
		p.printf("<nil>")
	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printArgs(args []Expr) {
	p.printf("(")
	for i, a := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(a)
	}
	p.printf(")")
}

// String returns the source form of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	p.Print(node)
	return sb.String()
}

func identList(ids []*Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return strings.Join(names, ", ")
}

func nameList(nl *NameList) string {
	if nl == nil {
		return ""
	}
	names := make([]string, len(nl.Names))
	for i, n := range nl.Names {
		switch n.Kind {
		case IndexedName:
			names[i] = fmt.Sprintf("%s[%d]", n.Ident, n.Size)
		case InChannelsName:
			names[i] = n.Ident + "[" + token.INCHANNELS.String() + "]"
		case OutChannelsName:
			names[i] = n.Ident + "[" + token.OUTCHANNELS.String() + "]"
		default:
			names[i] = n.Ident
		}
	}
	return strings.Join(names, ", ")
}

func tagString(t *TagList) string {
	if t == nil {
		return ""
	}
	var s string
	if t.Imports {
		s += "imports "
	}
	if t.Exports {
		s += "exports "
	}
	return s
}
