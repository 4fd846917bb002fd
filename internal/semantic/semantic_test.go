package semantic_test

import (
	"strings"
	"testing"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/parser"
	"github.com/kolkov/usaol/internal/semantic"
)

type checked struct {
	sections *semantic.Sections
	sem      *semantic.Table
	global   *semantic.VariableTable
	tables   map[string]*semantic.VariableTable
	errs     []error
}

// checkSource parses src and runs every semantic stage over it.
func checkSource(t *testing.T, src string) *checked {
	t.Helper()
	orch, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	r := &checked{sem: semantic.NewTable(), tables: map[string]*semantic.VariableTable{}}

	r.sections, err = semantic.Partition(orch)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	globals, err := semantic.ResolveGlobals(r.sections.Global)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	r.global, err = semantic.CheckGlobal(r.sections.Global, r.sem)
	if err != nil {
		r.errs = append(r.errs, err)
		return r
	}
	env := semantic.NewEnv(r.sections, r.global, globals, r.sem)
	for _, e := range r.sections.Instruments {
		table, err := env.CheckInstrument(e)
		if err != nil {
			r.errs = append(r.errs, err)
		}
		r.tables[e.Name] = table
	}
	for _, e := range r.sections.Opcodes {
		table, err := env.CheckOpcode(e)
		if err != nil {
			r.errs = append(r.errs, err)
		}
		r.tables[e.Name] = table
	}
	for _, e := range r.sections.Templates {
		table, err := env.CheckTemplate(e)
		if err != nil {
			r.errs = append(r.errs, err)
		}
		r.tables[e.Name] = table
	}
	return r
}

func (r *checked) errText() string {
	var sb strings.Builder
	for _, e := range r.errs {
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestRateLegality(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"global ivar", "global { ivar g; }", ""},
		{"global ksig", "global { ksig g; }", ""},
		{"global asig", "global { asig g; }", "illegal variable type used: a (declaration of g)"},
		{"global xsig", "global { xsig g; }", "illegal variable type used: x"},
		{"global table", "global { table t(empty, 4); }", ""},
		{"instr asig", "instr a() { asig y; }", ""},
		{"instr oparray", "instr a() { oparray o[2]; }", ""},
		{"instr xsig", "instr a() { xsig x; }", "illegal variable type used: x (declaration of x)"},
		{"opcode xsig", "kopcode f(xsig x) { return(x); }", ""},
		{"opcode asig", "aopcode f(asig x) { asig y; return(x); }", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := checkSource(t, tt.src)
			got := r.errText()
			if tt.wantErr == "" {
				if got != "" {
					t.Fatalf("unexpected errors:\n%s", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantErr) {
				t.Errorf("errors %q do not contain %q", got, tt.wantErr)
			}
		})
	}
}

func TestIllegalTypeStopsUnit(t *testing.T) {
	// The undeclared name after the illegal declaration is never reached.
	r := checkSource(t, "instr a() { xsig x; ksig k; k = nope; }")
	if len(r.errs) != 1 {
		t.Fatalf("expected one error list, got %d", len(r.errs))
	}
	list := r.errs[0].(semantic.ErrorList)
	if len(list) != 1 {
		t.Fatalf("expected checking to stop after the first error, got:\n%s", r.errText())
	}
	if list[0].Unit != "instr a" || list[0].Node != "variable declaration" {
		t.Errorf("unexpected error context %q / %q", list[0].Unit, list[0].Node)
	}
}

func TestScopeResolution(t *testing.T) {
	r := checkSource(t, `
global { ksig g; ksig shared; }
instr a() {
	ksig l, shared;
	l = g + shared;
}`)
	if len(r.errs) != 0 {
		t.Fatalf("unexpected errors:\n%s", r.errText())
	}
	scope := semantic.Scope{Local: r.tables["a"], Global: r.global}

	tests := []struct {
		name       string
		wantFound  bool
		wantGlobal bool
	}{
		{"l", true, false},
		{"g", true, true},
		{"shared", true, false},
		{"missing", false, false},
	}
	for _, tt := range tests {
		e, global, ok := scope.Resolve(tt.name)
		if ok != tt.wantFound || global != tt.wantGlobal {
			t.Errorf("Resolve(%s) = (%v, global=%v, ok=%v)", tt.name, e, global, ok)
		}
	}
}

func TestUndeclaredVariable(t *testing.T) {
	r := checkSource(t, "instr a() { ksig k; k = x + 1; }")
	if !strings.Contains(r.errText(), "undeclared variable x") {
		t.Errorf("expected undeclared error, got %q", r.errText())
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	r := checkSource(t, "instr a(p) { ksig k; asig k; ivar p; }")
	got := r.errText()
	for _, want := range []string{"variable k already declared", "variable p already declared"} {
		if !strings.Contains(got, want) {
			t.Errorf("errors %q do not contain %q", got, want)
		}
	}
}

func TestAssignmentRates(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"k from i", "k = i;", ""},
		{"a from k", "y = k * 0.5;", ""},
		{"k from a", "k = y;", "cannot assign a-rate value to k-rate variable k"},
		{"i from k", "i = k;", "cannot assign k-rate value to i-rate variable i"},
		{"index needs array", "k[0] = 1;", "k is not an array"},
		{"array needs index", "buf = 1;", "array buf used without index"},
		{"table target", "t = 1;", "cannot assign to table t"},
		{"standard name", "time = 1;", "cannot assign to standard name time"},
		{"standard read", "k = itime + s_rate;", ""},
		{"i from standard k", "i = itime;", "cannot assign k-rate value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "instr a() { ivar i; ksig k; asig y; ksig buf[4]; table t(empty, 4); " + tt.body + " }"
			got := checkSource(t, src).errText()
			if tt.wantErr == "" && got != "" {
				t.Fatalf("unexpected errors:\n%s", got)
			}
			if !strings.Contains(got, tt.wantErr) {
				t.Errorf("errors %q do not contain %q", got, tt.wantErr)
			}
		})
	}
}

func TestStatementRates(t *testing.T) {
	r := checkSource(t, `
instr a() {
	ivar i;
	ksig k;
	asig y;
	i = 1;
	k = i * 2;
	y = k * 0.5;
	output(y);
	if (k > 1) { i = 2; }
	if (i) { output(1); }
	turnoff;
}`)
	if len(r.errs) != 0 {
		t.Fatalf("unexpected errors:\n%s", r.errText())
	}
	body := r.sections.Instruments[0].Node.Body
	want := []semantic.Rate{
		semantic.RateI, semantic.RateK, semantic.RateA, semantic.RateA,
		semantic.RateK, semantic.RateA, semantic.RateK,
	}
	for i, s := range body {
		if got := r.sem.Rate(s); got != want[i] {
			t.Errorf("statement %d (%s): rate %s, want %s", i, ast.KindOf(s), got, want[i])
		}
	}

	// y = k * 0.5: the product is k-rate, the statement a-rate.
	assign := body[2].(*ast.AssignStmt)
	if got := r.sem.Rate(assign.Value); got != semantic.RateK {
		t.Errorf("k * 0.5 rate = %s, want k", got)
	}
	if e, ok := r.sem.Entry(assign.Target); !ok || e.Name != "y" || e.Rate != semantic.RateA {
		t.Errorf("lvalue entry = %v", e)
	}
}

func TestDeclarationAttributes(t *testing.T) {
	r := checkSource(t, "global { outchannels 2; ksig g; } instr a() { imports exports ksig g; asig bus[outchannels], v[3]; }")
	if len(r.errs) != 0 {
		t.Fatalf("unexpected errors:\n%s", r.errText())
	}
	table := r.tables["a"]
	g, _ := table.Lookup("g")
	if !g.Imports || !g.Exports || g.Rate != semantic.RateK {
		t.Errorf("g = %v", g)
	}
	bus, _ := table.Lookup("bus")
	if bus.Width != semantic.WidthOutChannels || !bus.Array {
		t.Errorf("bus = %v", bus)
	}
	v, _ := table.Lookup("v")
	if v.Width != 3 || v.Rate != semantic.RateA {
		t.Errorf("v = %v", v)
	}
	if got := table.Entries(); len(got) != 3 || got[1].Name != "bus" {
		t.Errorf("entries out of order: %v", got)
	}

	decl := r.sections.Instruments[0].Node.Decls[0].(*ast.VarDecl)
	s, ok := r.sem.Get(decl.Tags)
	if !ok || s.Aux != "IE" {
		t.Errorf("tag list aux = %#v", s)
	}
	name := decl.Names.Names[0]
	if s, _ := r.sem.Get(name); s.Rate != semantic.RateUnknown || s.Width != 1 {
		t.Errorf("provisional name = %#v", s)
	}
}

func TestImportsNeedGlobal(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"instr a() { imports ksig g; }", "imports g has no matching global declaration"},
		{"global { ivar g; } instr a() { imports ksig g; }", "global g is i-rate, local is k-rate"},
		{"global { ksig g; } instr a() { exports ksig g[2]; }", "only scalar variables"},
		{"global { imports ksig g; }", "not allowed in the global block"},
	}
	for _, tt := range tests {
		if got := checkSource(t, tt.src).errText(); !strings.Contains(got, tt.want) {
			t.Errorf("%s: errors %q do not contain %q", tt.src, got, tt.want)
		}
	}
}

func TestCalls(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"builtin", "k = sin(k) + pow(k, 2) + max(1, 2, 3);", ""},
		{"table read", "k = tableread(t, 1) + ftlen(t);", ""},
		{"arg count", "k = pow(k);", "pow expects 2 arguments, got 1"},
		{"not a table", "k = tableread(k, 1);", "argument 1 of tableread must be a table"},
		{"table as value", "k = t;", "table t cannot be used as a value"},
		{"unknown", "k = nosuch(1);", "unknown opcode nosuch"},
		{"user opcode", "k = twice(k);", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "kopcode twice(ksig x) { return(x * 2); } instr a() { ksig k; table t(data, 2, 1, 2); " + tt.body + " }"
			got := checkSource(t, src).errText()
			if tt.want == "" && got != "" {
				t.Fatalf("unexpected errors:\n%s", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("errors %q do not contain %q", got, tt.want)
			}
		})
	}
}

func TestTableDeclarations(t *testing.T) {
	tests := []struct {
		decl string
		want string
	}{
		{"table t(harm, 8, 1, 0.5);", ""},
		{"table t(lineseg, 8, 0, 0, 7, 1);", ""},
		{"table t(data, 2, 1, 2, 3);", "more values than table size"},
		{"table t(lineseg, 8, 0, 0, 7);", "at least 5 arguments"},
		{"table t(noise, 8);", "unknown table generator noise"},
		{"table t(empty, 0);", "size must be a positive integer"},
		{"table t(empty, 2.5);", "size must be a positive integer"},
		{"ksig k; table t(empty, k);", "arguments must be constants"},
	}
	for _, tt := range tests {
		got := checkSource(t, "instr a() { "+tt.decl+" }").errText()
		if tt.want == "" && got != "" {
			t.Errorf("%s: unexpected errors:\n%s", tt.decl, got)
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("%s: errors %q do not contain %q", tt.decl, got, tt.want)
		}
	}
}

func TestStatementPlacement(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"kopcode f(ksig x) { output(x); }", "output is only allowed in instruments"},
		{"kopcode f(ksig x) { turnoff; }", "turnoff is only allowed in instruments"},
		{"instr a() { return(1); }", "return outside opcode"},
		{"global { outchannels 2; } instr a() { output(1, 2, 3); }", "output has 3 channels, orchestra has 2"},
	}
	for _, tt := range tests {
		if got := checkSource(t, tt.src).errText(); !strings.Contains(got, tt.want) {
			t.Errorf("%s: errors %q do not contain %q", tt.src, got, tt.want)
		}
	}
}

func TestPartition(t *testing.T) {
	orch, err := parser.Parse(`
global { srate 8000; }
instr a() { }
kopcode f(ksig x) { return(x); }
global { krate 80; }
template t(p) { }
instr a() { }
`)
	if err != nil {
		t.Fatal(err)
	}
	s, err := semantic.Partition(orch)
	if err == nil || !strings.Contains(err.Error(), "instr a already declared") {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if len(s.Instruments) != 1 || len(s.Opcodes) != 1 || len(s.Templates) != 1 {
		t.Errorf("partition = %d instr, %d opcodes, %d templates",
			len(s.Instruments), len(s.Opcodes), len(s.Templates))
	}
	if len(s.Global.Items) != 2 {
		t.Errorf("merged global items = %d, want 2", len(s.Global.Items))
	}
	if _, ok := s.Opcode("f"); !ok {
		t.Error("opcode f not found")
	}
}

func TestResolveGlobals(t *testing.T) {
	tests := []struct {
		src     string
		want    semantic.Globals
		wantErr string
	}{
		{"", semantic.Globals{SRate: 44100, KRate: 100, OutChannels: 1}, ""},
		{"global { srate 48000; krate 480; outchannels 2; inchannels 1; interp 1; }",
			semantic.Globals{SRate: 48000, KRate: 480, InChannels: 1, OutChannels: 2, Interp: 1}, ""},
		{"global { srate 44100; krate 441; }", semantic.Globals{SRate: 44100, KRate: 441, OutChannels: 1}, ""},
		{"global { krate 320; }", semantic.Globals{}, "srate 44100 is not a multiple of krate 320"},
		{"global { srate 100; krate 200; }", semantic.Globals{}, "krate 200 exceeds srate 100"},
		{"global { srate 0; }", semantic.Globals{}, "srate 0: must be positive"},
		{"global { krate 100; krate 100; }", semantic.Globals{}, "krate set more than once"},
		{"global { outchannels 0; }", semantic.Globals{}, "must be at least 1"},
	}
	for _, tt := range tests {
		orch, err := parser.Parse(tt.src)
		if err != nil {
			t.Fatal(err)
		}
		s, _ := semantic.Partition(orch)
		g, err := semantic.ResolveGlobals(s.Global)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%q: expected error %q, got %v", tt.src, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.src, err)
			continue
		}
		if *g != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.src, *g, tt.want)
		}
	}
}

func TestWidthRateWriteOnce(t *testing.T) {
	sem := semantic.NewTable()
	n := &ast.NumLit{Value: 1, Raw: "1"}
	sem.SetWidthRate(n, 1, semantic.RateI)
	sem.SetAux(n, 1.0)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on second width/rate write")
		}
	}()
	sem.SetWidthRate(n, 1, semantic.RateK)
}

func TestMaxRate(t *testing.T) {
	tests := []struct {
		in   []semantic.Rate
		want semantic.Rate
	}{
		{nil, semantic.RateI},
		{[]semantic.Rate{semantic.RateUnknown}, semantic.RateI},
		{[]semantic.Rate{semantic.RateK, semantic.RateI}, semantic.RateK},
		{[]semantic.Rate{semantic.RateI, semantic.RateA, semantic.RateK}, semantic.RateA},
		{[]semantic.Rate{semantic.RateK, semantic.RateX}, semantic.RateX},
	}
	for _, tt := range tests {
		if got := semantic.MaxRate(tt.in...); got != tt.want {
			t.Errorf("MaxRate(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTaggedTables(t *testing.T) {
	tests := []struct {
		src     string
		want    string
		imports bool
		exports bool
	}{
		{src: "global { table g(harm, 8, 1); } instr t() { imports table g(harm, 8, 1); }", imports: true},
		{src: "global { table g(harm, 8, 1); } instr t() { exports table g(harm, 8, 1); }", exports: true},
		{src: "global { table g(harm, 8, 1); } instr t() { imports exports table g(harm, 8, 1); }", imports: true, exports: true},
		{src: "instr t() { imports table g(harm, 8, 1); }", want: "imports g has no matching global declaration"},
		{src: "global { ksig g; } instr t() { imports table g(harm, 8, 1); }", want: "global g is k-rate, local is table-rate"},
		{src: "global { imports table g(harm, 8, 1); }", want: "not allowed in the global block"},
	}
	for _, tt := range tests {
		r := checkSource(t, tt.src)
		got := r.errText()
		if tt.want != "" {
			if !strings.Contains(got, tt.want) {
				t.Errorf("%s: errors %q do not contain %q", tt.src, got, tt.want)
			}
			continue
		}
		if got != "" {
			t.Errorf("%s: unexpected errors:\n%s", tt.src, got)
			continue
		}
		e, ok := r.tables["t"].Lookup("g")
		if !ok {
			t.Fatalf("%s: table g not declared", tt.src)
		}
		if e.Imports != tt.imports || e.Exports != tt.exports {
			t.Errorf("%s: imports=%v exports=%v, want %v %v", tt.src, e.Imports, e.Exports, tt.imports, tt.exports)
		}
	}
}
