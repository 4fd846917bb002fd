package compiler

import (
	"fmt"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/semantic"
	"github.com/kolkov/usaol/internal/token"
)

// Registry receives generated units by instrument name.
type Registry interface {
	Register(name string, u *Unit) error
}

// Globals maps the orchestra's global scalars to store indexes.
type Globals struct {
	Names []string
	Rates []semantic.Rate
	index map[string]int
}

// NewGlobals lays out the global variable table. Only scalar signals get
// a store slot; instruments referring to any other global are rejected
// at generation.
func NewGlobals(table *semantic.VariableTable) *Globals {
	g := &Globals{index: make(map[string]int)}
	for _, e := range table.Entries() {
		if e.Array || !e.Rate.IsSignal() {
			continue
		}
		g.index[e.Name] = len(g.Names)
		g.Names = append(g.Names, e.Name)
		g.Rates = append(g.Rates, e.Rate)
	}
	return g
}

// Index returns the store index of a global scalar.
func (g *Globals) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Len returns the number of global store slots.
func (g *Globals) Len() int {
	return len(g.Names)
}

// Env is the orchestra-wide input to code generation.
type Env struct {
	Sem     *semantic.Table
	Globals *semantic.Globals
	Store   *Globals
	Global  *semantic.VariableTable
}

// Source is a checked instrument-like subtree ready for generation.
type Source struct {
	Name   string
	Params []*ast.Ident
	Decls  []ast.Decl
	Body   []ast.Stmt
	Table  *semantic.VariableTable
}

// InstrumentSource returns the generation input for a checked instrument.
func InstrumentSource(e *semantic.InstrumentEntry, table *semantic.VariableTable) Source {
	return Source{Name: e.Name, Params: e.Node.Params, Decls: e.Node.Decls, Body: e.Node.Body, Table: table}
}

// TemplateSource returns the generation input for a checked template.
func TemplateSource(e *semantic.TemplateEntry, table *semantic.VariableTable) Source {
	return Source{Name: e.Name, Params: e.Node.Params, Decls: e.Node.Decls, Body: e.Node.Body, Table: table}
}

// Generate compiles one checked instrument and registers the unit under
// its name. Nothing is registered when generation fails.
func Generate(src Source, env *Env, reg Registry) (unit *Unit, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ue, ok := r.(*UnsupportedError); ok {
				unit, err = nil, ue
			} else {
				panic(r)
			}
		}
	}()

	g := &generator{
		env:    env,
		scope:  semantic.Scope{Local: src.Table, Global: env.Global},
		unit:   &Unit{Name: src.Name},
		fields: make(map[string]int),
		nums:   make(map[float32]int),
	}
	g.layout(src)
	for _, s := range src.Body {
		g.stmtToSlot(s)
	}
	g.finish()

	if err := reg.Register(src.Name, g.unit); err != nil {
		return nil, err
	}
	return g.unit, nil
}

type generator struct {
	env     *Env
	scope   semantic.Scope
	unit    *Unit
	fields  map[string]int
	nums    map[float32]int
	slots   [NumSlots]method
	cur     *method
	exports [NumSlots][][2]int
}

func (g *generator) emit(op Opcode, args ...Opcode) {
	g.cur.add(op, args...)
}

// numIndex adds or reuses a numeric constant.
func (g *generator) numIndex(v float64) int {
	f := float32(v)
	if idx, ok := g.nums[f]; ok {
		return idx
	}
	idx := len(g.unit.Nums)
	g.unit.Nums = append(g.unit.Nums, f)
	g.nums[f] = idx
	return idx
}

func (g *generator) pushNum(v float64) {
	g.emit(Num, opcodeInt(g.numIndex(v)))
}

// -----------------------------------------------------------------------------
// Layout
// -----------------------------------------------------------------------------

// layout assigns a field to every local variable, emits array allocation
// and table generation into the construct slot, and import copies at the
// start of each rate's slot.
func (g *generator) layout(src Source) {
	for _, e := range src.Table.Entries() {
		switch e.Rate {
		case semantic.RateI, semantic.RateK, semantic.RateA, semantic.RateTable:
		default:
			g.unsupported(declNode(src, e.Name), "%s variable %s", e.Rate, e.Name)
		}
		width := semantic.ResolveWidth(e.Width, g.env.Globals)
		g.fields[e.Name] = len(g.unit.Fields)
		g.unit.Fields = append(g.unit.Fields, Field{Name: e.Name, Width: width, Rate: e.Rate, Array: e.Array})
	}
	for _, p := range src.Params {
		g.unit.Params = append(g.unit.Params, g.fields[p.Name])
	}

	g.cur = &g.slots[SlotConstruct]
	for i, f := range g.unit.Fields {
		if f.Array {
			g.emit(NewArray, opcodeInt(i), opcodeInt(f.Width))
		}
	}
	for _, d := range src.Decls {
		if t, ok := d.(*ast.TableDecl); ok {
			g.tableGen(t)
		}
	}

	for _, e := range src.Table.Entries() {
		if !e.Imports && !e.Exports {
			continue
		}
		if e.Rate == semantic.RateTable {
			g.unsupported(declNode(src, e.Name), "shared global table %s", e.Name)
		}
		gi, ok := g.env.Store.Index(e.Name)
		if !ok {
			g.unsupported(declNode(src, e.Name), "global %s has no store slot", e.Name)
		}
		slot, _ := slotForRate(e.Rate)
		pair := [2]int{g.fields[e.Name], gi}
		if e.Imports {
			g.cur = &g.slots[slot]
			g.emit(Import, opcodeInt(pair[0]), opcodeInt(pair[1]))
		}
		if e.Exports {
			g.exports[slot] = append(g.exports[slot], pair)
		}
	}
}

func (g *generator) tableGen(t *ast.TableDecl) {
	gen, ok := genCodes[t.Gen]
	if !ok {
		g.unsupported(t, "table generator %s", t.Gen)
	}
	for _, a := range t.Args[1:] {
		v, _ := semantic.ConstValue(a)
		g.pushNum(v)
	}
	g.emit(TableGen, opcodeInt(g.fields[t.Name]), Opcode(gen), opcodeInt(len(t.Args)-1))
}

func declNode(src Source, name string) ast.Node {
	for _, d := range src.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			for _, n := range d.Names.Names {
				if n.Ident == name {
					return d
				}
			}
		case *ast.TableDecl:
			if d.Name == name {
				return d
			}
		}
	}
	for _, p := range src.Params {
		if p.Name == name {
			return p
		}
	}
	return &ast.Orchestra{}
}

func (g *generator) finish() {
	maxStack := 0
	for s := SlotConstruct; s < NumSlots; s++ {
		m := &g.slots[s]
		g.cur = m
		for _, pair := range g.exports[s] {
			g.emit(Export, opcodeInt(pair[0]), opcodeInt(pair[1]))
		}
		g.unit.Code[s] = m.finish()
		if m.pushes > maxStack {
			maxStack = m.pushes
		}
	}
	g.unit.MaxStack = maxStack
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// stmtToSlot emits a top-level statement into the slot of its rate.
func (g *generator) stmtToSlot(s ast.Stmt) {
	slot, ok := slotForRate(g.env.Sem.Rate(s))
	if !ok {
		g.unsupported(s, "%s-rate statement", g.env.Sem.Rate(s))
	}
	g.cur = &g.slots[slot]
	g.stmt(s)
}

func (g *generator) stmts(list []ast.Stmt) {
	for _, s := range list {
		g.stmt(s)
	}
}

func (g *generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		// Right to left: the target pushes its index first and the
		// store runs after the value.
		store := g.lvalue(s.Target)
		g.expr(s.Value)
		store()

	case *ast.ExprStmt:
		g.expr(s.X)
		g.emit(Pop)

	case *ast.IfStmt:
		g.condition(s.Cond)
		skip := g.cur.branch(JumpEq)
		g.stmts(s.Then)
		if s.Else == nil {
			g.cur.setPending(skip)
			return
		}
		join := g.cur.branch(Jump)
		g.cur.setPending(skip)
		g.stmts(s.Else)
		g.cur.setPending(join)

	case *ast.WhileStmt:
		top := g.cur.label()
		g.condition(s.Cond)
		exit := g.cur.branch(JumpEq)
		g.stmts(s.Body)
		g.cur.jumpBack(top)
		g.cur.setPending(exit)

	case *ast.OutputStmt:
		if len(s.Args) == 1 {
			g.expr(s.Args[0])
			g.emit(Output)
			return
		}
		for _, a := range s.Args {
			g.expr(a)
		}
		g.emit(OutputFrame, opcodeInt(len(s.Args)))
		if len(s.Args) > g.unit.MaxOutput {
			g.unit.MaxOutput = len(s.Args)
		}

	case *ast.ExtendStmt:
		g.expr(s.Dur)
		g.emit(Extend)

	case *ast.TurnoffStmt:
		g.emit(Turnoff)

	default:
		g.unsupported(s, "")
	}
}

// condition pushes the guard and compares it with zero; the following
// JumpEq is taken when the guard is false.
func (g *generator) condition(cond ast.Expr) {
	g.expr(cond)
	g.pushNum(0)
	g.emit(Compare)
}

// lvalue emits the index of an indexed target and returns the deferred
// store.
func (g *generator) lvalue(t *ast.LValue) func() {
	if f, ok := g.fields[t.Name]; ok {
		if t.Index == nil {
			return func() { g.emit(StoreField, opcodeInt(f)) }
		}
		g.expr(t.Index)
		g.emit(Trunc)
		return func() { g.emit(StoreElem, opcodeInt(f)) }
	}
	if gi, ok := g.globalScalar(t, t.Name); ok && t.Index == nil {
		return func() { g.emit(StoreGlobal, opcodeInt(gi)) }
	}
	g.unsupported(t, "assignment to %s", t.Name)
	return nil
}

// globalScalar returns the store slot of a global scalar name that is
// not shadowed by a local.
func (g *generator) globalScalar(n ast.Node, name string) (int, bool) {
	if _, global, ok := g.scope.Resolve(name); !ok || !global {
		return 0, false
	}
	gi, ok := g.env.Store.Index(name)
	if !ok {
		g.unsupported(n, "global %s is not a scalar signal", name)
	}
	return gi, true
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

func (g *generator) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.NumLit:
		g.pushNum(e.Value)

	case *ast.Ident:
		if f, ok := g.fields[e.Name]; ok {
			g.emit(LoadField, opcodeInt(f))
			return
		}
		if gi, ok := g.globalScalar(e, e.Name); ok {
			g.emit(LoadGlobal, opcodeInt(gi))
			return
		}
		if std, ok := stdNames[e.Name]; ok {
			g.emit(LoadStd, Opcode(std))
			return
		}
		g.unsupported(e, "reference to %s", e.Name)

	case *ast.IndexExpr:
		f, ok := g.fields[e.Name]
		if !ok {
			g.unsupported(e, "indexed global %s", e.Name)
		}
		g.expr(e.Index)
		g.emit(Trunc)
		g.emit(LoadElem, opcodeInt(f))

	case *ast.BinaryExpr:
		g.binary(e)

	case *ast.UnaryExpr:
		switch e.Op {
		case token.SUB:
			g.expr(e.X)
			g.emit(Neg)
		case token.NOT:
			// x != 0 ? 0 : 1
			g.expr(e.X)
			g.pushNum(0)
			g.emit(Compare)
			toZero := g.cur.branch(JumpNe)
			g.pushNum(1)
			join := g.cur.branch(Jump)
			g.cur.setPending(toZero)
			g.pushNum(0)
			g.cur.setPending(join)
		default:
			g.unsupported(e, "operator %s", e.Op)
		}

	case *ast.CondExpr:
		g.condition(e.Cond)
		toElse := g.cur.branch(JumpEq)
		g.expr(e.Then)
		join := g.cur.branch(Jump)
		g.cur.setPending(toElse)
		g.expr(e.Else)
		g.cur.setPending(join)

	case *ast.CallExpr:
		g.call(e)

	default:
		g.unsupported(e, "")
	}
}

var arithOps = map[token.Token]Opcode{
	token.ADD: Add,
	token.SUB: Sub,
	token.MUL: Mul,
	token.DIV: Div,
	token.AND: And,
	token.OR:  Or,
}

var relationalJumps = map[token.Token]Opcode{
	token.EQUALS:     JumpEq,
	token.NOT_EQUALS: JumpNe,
	token.LESS:       JumpLt,
	token.LTE:        JumpLe,
	token.GREATER:    JumpGt,
	token.GTE:        JumpGe,
}

func (g *generator) binary(e *ast.BinaryExpr) {
	g.expr(e.Left)
	g.expr(e.Right)
	if op, ok := arithOps[e.Op]; ok {
		g.emit(op)
		return
	}
	jump, ok := relationalJumps[e.Op]
	if !ok {
		g.unsupported(e, "operator %s", e.Op)
	}
	// Compare, branch to "push 1", fall through to "push 0", join.
	g.emit(Compare)
	toOne := g.cur.branch(jump)
	g.pushNum(0)
	join := g.cur.branch(Jump)
	g.cur.setPending(toOne)
	g.pushNum(1)
	g.cur.setPending(join)
}

func (g *generator) call(e *ast.CallExpr) {
	switch e.Name {
	case "tableread", "tablewrite", "ftlen":
		id, ok := e.Args[0].(*ast.Ident)
		if !ok {
			g.unsupported(e, "table argument")
		}
		f, ok := g.fields[id.Name]
		if !ok {
			g.unsupported(e, "global table %s", id.Name)
		}
		for _, a := range e.Args[1:] {
			g.expr(a)
		}
		switch e.Name {
		case "tableread":
			g.emit(TableRead, opcodeInt(f))
		case "tablewrite":
			g.emit(TableWrite, opcodeInt(f))
		default:
			g.emit(TableLen, opcodeInt(f))
		}
		return
	}

	b, ok := builtinCodes[e.Name]
	if !ok {
		g.unsupported(e, "call to user opcode %s", e.Name)
	}
	for _, a := range e.Args {
		g.expr(a)
	}
	g.emit(Call, Opcode(b), opcodeInt(len(e.Args)))
}

// String returns a short description, used in traces.
func (u *Unit) String() string {
	return fmt.Sprintf("unit %s (%d fields, stack %d)", u.Name, len(u.Fields), u.MaxStack)
}
