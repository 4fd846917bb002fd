package ast_test

import (
	"strings"
	"testing"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/token"
)

func num(v float64, raw string) *ast.NumLit {
	return &ast.NumLit{Value: v, Raw: raw}
}

// sample builds: instr a() { ksig k; asig y[2]; y[0] = k * 0.5; if (!k) { turnoff; } }
func sample() *ast.Orchestra {
	k := &ast.Ident{Name: "k"}
	return &ast.Orchestra{Items: []ast.Decl{
		&ast.InstrDecl{
			Name: "a",
			Decls: []ast.Decl{
				&ast.VarDecl{
					Type:  &ast.TypeSpec{Type: token.KSIG},
					Names: &ast.NameList{Names: []*ast.Name{{Kind: ast.SimpleName, Ident: "k"}}},
				},
				&ast.VarDecl{
					Type:  &ast.TypeSpec{Type: token.ASIG},
					Names: &ast.NameList{Names: []*ast.Name{{Kind: ast.IndexedName, Ident: "y", Size: 2}}},
				},
			},
			Body: []ast.Stmt{
				&ast.AssignStmt{
					Target: &ast.LValue{Name: "y", Index: num(0, "0")},
					Value:  &ast.BinaryExpr{Op: token.MUL, Left: k, Right: num(0.5, "0.5")},
				},
				&ast.IfStmt{
					Cond: &ast.UnaryExpr{Op: token.NOT, X: &ast.Ident{Name: "k"}},
					Then: []ast.Stmt{&ast.TurnoffStmt{}},
				},
			},
		},
	}}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	counts := map[string]int{}
	ast.Walk(sample(), func(n ast.Node) bool {
		counts[ast.KindOf(n)]++
		return true
	})

	tests := []struct {
		kind string
		want int
	}{
		{"orchestra", 1},
		{"instrument declaration", 1},
		{"variable declaration", 2},
		{"type", 2},
		{"name list", 2},
		{"simple name", 1},
		{"indexed name", 1},
		{"assignment", 1},
		{"lvalue", 1},
		{"identifier", 2},
		{"constant", 2},
		{"if statement", 1},
		{"turnoff statement", 1},
		{"unary expression", 1},
		{"binary expression", 1},
	}
	for _, tt := range tests {
		if got := counts[tt.kind]; got != tt.want {
			t.Errorf("%s: expected %d visits, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestWalkPrune(t *testing.T) {
	visited := 0
	ast.Walk(sample(), func(n ast.Node) bool {
		visited++
		_, isInstr := n.(*ast.InstrDecl)
		return !isInstr
	})
	if visited != 2 {
		t.Errorf("expected 2 visits with pruning, got %d", visited)
	}
}

func TestWalkNilTags(t *testing.T) {
	decl := &ast.VarDecl{Type: &ast.TypeSpec{Type: token.IVAR}}
	n := 0
	ast.Walk(decl, func(ast.Node) bool { n++; return true })
	if n != 2 {
		t.Errorf("expected decl and type only, got %d nodes", n)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	got := ast.String(sample())
	for _, want := range []string{
		"instr a() {",
		"ksig k;",
		"asig y[2];",
		"y[0] = (k * 0.5);",
		"if ((!k)) {",
		"turnoff;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestKindOfIfElse(t *testing.T) {
	s := &ast.IfStmt{Cond: num(1, "1"), Then: []ast.Stmt{}, Else: []ast.Stmt{}}
	if got := ast.KindOf(s); got != "if-else statement" {
		t.Errorf("expected if-else statement, got %q", got)
	}
	if got := ast.KindOf(&ast.RTParam{Param: token.KRATE}); got != "krate parameter" {
		t.Errorf("unexpected kind %q", got)
	}
}
