package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/parser"
	"github.com/kolkov/usaol/internal/token"
)

const sampleOrchestra = `
global {
	srate 48000;
	krate 480;
	outchannels 2;
	ksig gain;
	table wave(harm, 1024, 1, 0.5);
}

instr tone(freq, amp) {
	imports ksig gain;
	asig y, bus[outchannels];
	ivar steps[4];
	table env(lineseg, 0, 0.1, 1, 0.9, 0);

	y = amp * gain;
	if (y > 1) { y = 1; } else { turnoff; }
	output(y, y);
}

aopcode lp(asig x, ksig c) {
	return(x * c);
}

template chord(a, b) {
	output(a + b);
}
`

func TestParseOrchestra(t *testing.T) {
	orch, err := parser.Parse(sampleOrchestra)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(orch.Items) != 4 {
		t.Fatalf("Items = %d, want 4", len(orch.Items))
	}

	g, ok := orch.Items[0].(*ast.GlobalBlock)
	if !ok {
		t.Fatalf("item 0 is %T, want *ast.GlobalBlock", orch.Items[0])
	}
	if len(g.Items) != 5 {
		t.Errorf("global items = %d, want 5", len(g.Items))
	}
	if rt, ok := g.Items[1].(*ast.RTParam); !ok || rt.Param != token.KRATE || rt.Value != 480 {
		t.Errorf("unexpected krate item %#v", g.Items[1])
	}

	instr, ok := orch.Items[1].(*ast.InstrDecl)
	if !ok {
		t.Fatalf("item 1 is %T, want *ast.InstrDecl", orch.Items[1])
	}
	if instr.Name != "tone" || len(instr.Params) != 2 || instr.Params[1].Name != "amp" {
		t.Errorf("unexpected instrument header: %s %v", instr.Name, instr.Params)
	}
	if len(instr.Decls) != 4 {
		t.Fatalf("instrument decls = %d, want 4", len(instr.Decls))
	}
	imp := instr.Decls[0].(*ast.VarDecl)
	if imp.Tags == nil || !imp.Tags.Imports || imp.Tags.Exports {
		t.Errorf("expected imports tag, got %#v", imp.Tags)
	}
	asig := instr.Decls[1].(*ast.VarDecl)
	if len(asig.Names.Names) != 2 || asig.Names.Names[1].Kind != ast.OutChannelsName {
		t.Errorf("unexpected asig names %#v", asig.Names.Names)
	}
	steps := instr.Decls[2].(*ast.VarDecl).Names.Names[0]
	if steps.Kind != ast.IndexedName || steps.Size != 4 {
		t.Errorf("unexpected indexed name %#v", steps)
	}
	env := instr.Decls[3].(*ast.TableDecl)
	if env.Gen != "lineseg" || len(env.Args) != 5 {
		t.Errorf("unexpected table decl %s(%d args)", env.Gen, len(env.Args))
	}
	if len(instr.Body) != 3 {
		t.Fatalf("instrument statements = %d, want 3", len(instr.Body))
	}
	if s, ok := instr.Body[1].(*ast.IfStmt); !ok || s.Else == nil {
		t.Errorf("expected if-else, got %T", instr.Body[1])
	}

	op := orch.Items[2].(*ast.OpcodeDecl)
	if op.Kind != token.AOPCODE || len(op.Params) != 2 || op.Params[1].Type.Type != token.KSIG {
		t.Errorf("unexpected opcode header %v %d", op.Kind, len(op.Params))
	}
	if _, ok := orch.Items[3].(*ast.TemplateDecl); !ok {
		t.Errorf("item 3 is %T, want *ast.TemplateDecl", orch.Items[3])
	}
}

func TestParseExprPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a - b - c", "((a - b) - c)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a || b && c", "(a || (b && c))"},
		{"!!x", "(!(!x))"},
		{"-a * b", "((-a) * b)"},
		{"(a + b) * c", "((a + b) * c)"},
		{"c ? a : b + 1", "(c ? a : (b + 1))"},
		{"buf[i + 1]", "buf[(i + 1)]"},
		{"sin(2 * x, y)", "sin((2 * x), y)"},
		{"0.5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := parser.ParseExpr(tt.src)
			if err != nil {
				t.Fatalf("ParseExpr(%q) error = %v", tt.src, err)
			}
			if got := ast.String(e); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseNumberKinds(t *testing.T) {
	e, err := parser.ParseExpr("3")
	if err != nil {
		t.Fatal(err)
	}
	if n := e.(*ast.NumLit); !n.Integer || n.Value != 3 {
		t.Errorf("expected integer 3, got %#v", n)
	}
	e, err = parser.ParseExpr("3.5")
	if err != nil {
		t.Fatal(err)
	}
	if n := e.(*ast.NumLit); n.Integer || n.Value != 3.5 {
		t.Errorf("expected number 3.5, got %#v", n)
	}
}

func TestParseIndexedAssignment(t *testing.T) {
	orch, err := parser.Parse("instr a() { ivar x[2]; x[1] = 3; }")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := orch.Items[0].(*ast.InstrDecl).Body[0].(*ast.AssignStmt)
	if s.Target.Name != "x" || s.Target.Index == nil {
		t.Errorf("unexpected lvalue %#v", s.Target)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"stray token", "instr a() { } )", "expected global, instr, opcode or template"},
		{"missing semicolon", "instr a() { ksig k k = 1; }", "expected ;"},
		{"decl after stmt", "instr a() { output(1); ksig k; }", "declaration after statements"},
		{"bad lvalue", "instr a() { 1 = 2; }", "cannot assign to constant"},
		{"non-integer rate", "global { srate 4.5; }", "expected integer"},
		{"unterminated comment", "instr a() { /* }", "unterminated comment"},
		{"if without braces", "instr a() { if (1) output(1); }", "expected {"},
		{"bad size", "instr a() { ksig k[n]; }", "expected integer"},
		{"duplicate tag", "instr a() { imports imports ksig k; }", "duplicate imports tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
			var list parser.ErrorList
			if !errors.As(err, &list) || len(list) == 0 || !list[0].Pos.IsValid() {
				t.Errorf("expected positioned ErrorList, got %#v", err)
			}
		})
	}
}
