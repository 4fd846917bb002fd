package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/token"
)

type checkerKind int

const (
	globalChecker checkerKind = iota
	instrumentChecker
	opcodeChecker
)

// Rates each kind of unit may declare, for variables and for tables.
var (
	legalVarRates = map[checkerKind][]Rate{
		globalChecker:     {RateI, RateK},
		instrumentChecker: {RateI, RateK, RateA, RateOpArray},
		opcodeChecker:     {RateI, RateK, RateA, RateX, RateOpArray},
	}
	legalTableRates = map[checkerKind][]Rate{
		globalChecker:     {RateTable},
		instrumentChecker: {RateTable},
		opcodeChecker:     {RateTable},
	}
)

// Env is the context shared by the unit checks of one orchestra.
type Env struct {
	Sem     *Table
	Global  *VariableTable
	Globals *Globals
	opcodes map[string]token.Token
}

// NewEnv creates the checking context for the units of s. The global
// table comes from CheckGlobal.
func NewEnv(s *Sections, global *VariableTable, globals *Globals, sem *Table) *Env {
	env := &Env{
		Sem:     sem,
		Global:  global,
		Globals: globals,
		opcodes: make(map[string]token.Token, len(s.Opcodes)),
	}
	for _, op := range s.Opcodes {
		env.opcodes[op.Name] = op.Node.Kind
	}
	return env
}

// Checker checks one unit. It is created per unit and discarded after.
type Checker struct {
	kind   checkerKind
	unit   string
	env    *Env
	sem    *Table
	scope  Scope
	errors ErrorList
}

// stopCheck aborts the current unit after a fatal error.
type stopCheck struct{}

func newChecker(kind checkerKind, unit string, env *Env) *Checker {
	return &Checker{
		kind:  kind,
		unit:  unit,
		env:   env,
		sem:   env.Sem,
		scope: Scope{Local: NewVariableTable(unit), Global: env.Global},
	}
}

func (c *Checker) run(fn func()) (table *VariableTable, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(stopCheck); !ok {
				panic(r)
			}
			table, err = c.scope.Local, c.errors.Err()
		}
	}()
	fn()
	return c.scope.Local, c.errors.Err()
}

func (c *Checker) errorf(n ast.Node, format string, args ...any) {
	c.errors = append(c.errors, &Error{
		Pos:     n.Pos(),
		Unit:    c.unit,
		Node:    ast.KindOf(n),
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *Checker) fatalf(n ast.Node, format string, args ...any) {
	c.errorf(n, format, args...)
	panic(stopCheck{})
}

// CheckGlobal checks the declarations of the global section and returns
// the global variable table.
func CheckGlobal(block *ast.GlobalBlock, sem *Table) (*VariableTable, error) {
	c := newChecker(globalChecker, "global", &Env{Sem: sem})
	return c.run(func() {
		for _, item := range block.Items {
			switch d := item.(type) {
			case *ast.VarDecl:
				c.checkVarDecl(d)
			case *ast.TableDecl:
				c.checkTableDecl(d)
			}
		}
	})
}

// CheckInstrument checks one instrument and returns its variable table.
// Parameters come first in the table, as i-rate scalars.
func (env *Env) CheckInstrument(e *InstrumentEntry) (*VariableTable, error) {
	c := newChecker(instrumentChecker, "instr "+e.Name, env)
	return c.run(func() {
		c.checkParams(e.Node.Params)
		c.checkDecls(e.Node.Decls)
		c.checkStmts(e.Node.Body)
	})
}

// CheckTemplate checks a template like an instrument.
func (env *Env) CheckTemplate(e *TemplateEntry) (*VariableTable, error) {
	c := newChecker(instrumentChecker, "template "+e.Name, env)
	return c.run(func() {
		c.checkParams(e.Node.Params)
		c.checkDecls(e.Node.Decls)
		c.checkStmts(e.Node.Body)
	})
}

// CheckOpcode checks one user opcode and returns its variable table.
func (env *Env) CheckOpcode(e *OpcodeEntry) (*VariableTable, error) {
	c := newChecker(opcodeChecker, e.Node.Kind.String()+" "+e.Name, env)
	return c.run(func() {
		for _, p := range e.Node.Params {
			c.checkVarDecl(p)
		}
		c.checkDecls(e.Node.Decls)
		c.checkStmts(e.Node.Body)
	})
}

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

func (c *Checker) checkParams(params []*ast.Ident) {
	for _, p := range params {
		e := &VariableEntry{Name: p.Name, Width: 1, Rate: RateI, Pos: p.Pos()}
		if err := c.scope.Local.Add(e); err != nil {
			c.errorf(p, "%v", err)
		}
		c.sem.SetWidthRate(p, 1, RateI)
		c.sem.SetAux(p, e)
	}
}

func (c *Checker) checkDecls(decls []ast.Decl) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			c.checkVarDecl(d)
		case *ast.TableDecl:
			c.checkTableDecl(d)
		default:
			c.errorf(d, "unexpected %s", ast.KindOf(d))
		}
	}
}

func (c *Checker) checkVarDecl(d *ast.VarDecl) {
	tag := ""
	if d.Tags != nil {
		tag = c.checkTags(d.Tags)
	}
	_, rate := c.checkType(d.Type)
	provisional := c.checkNameList(d.Names)

	if !containsRate(legalVarRates[c.kind], rate) {
		names := make([]string, len(provisional))
		for i, p := range provisional {
			names[i] = p.Name
		}
		c.fatalf(d, errIllegalType, rate, strings.Join(names, ", "))
	}
	if tag != "" && c.kind == globalChecker {
		c.errorf(d.Tags, errTagsInGlobal)
		tag = ""
	}

	finals := make([]*VariableEntry, 0, len(provisional))
	for _, p := range provisional {
		e := &VariableEntry{
			Name:    p.Name,
			Width:   p.Width,
			Rate:    rate,
			Array:   p.Array,
			Imports: strings.Contains(tag, "I"),
			Exports: strings.Contains(tag, "E"),
			Pos:     p.Pos,
		}
		if e.Imports || e.Exports {
			c.checkImport(d, e)
		}
		if err := c.scope.Local.Add(e); err != nil {
			c.errorf(d, "%v", err)
			continue
		}
		finals = append(finals, e)
	}
	c.sem.SetAux(d, finals)
}

func (c *Checker) checkImport(d *ast.VarDecl, e *VariableEntry) {
	what := "exports"
	if e.Imports {
		what = "imports"
	}
	g, ok := c.scope.Global.Lookup(e.Name)
	switch {
	case !ok:
		c.errorf(d, errImportNoGlobal, what, e.Name)
	case e.Array || g.Array:
		c.errorf(d, errImportWidth, e.Name)
	case g.Rate != e.Rate:
		c.errorf(d, errImportRate, what, e.Name, e.Name, g.Rate, e.Rate)
	}
}

// checkTableImport requires a global table of the same name.
func (c *Checker) checkTableImport(d *ast.TableDecl, e *VariableEntry) {
	what := "exports"
	if e.Imports {
		what = "imports"
	}
	g, ok := c.scope.Global.Lookup(e.Name)
	switch {
	case !ok:
		c.errorf(d, errImportNoGlobal, what, e.Name)
	case g.Rate != RateTable:
		c.errorf(d, errImportRate, what, e.Name, e.Name, g.Rate, e.Rate)
	}
}

func (c *Checker) checkTags(t *ast.TagList) string {
	tag := ""
	if t.Imports {
		tag += "I"
	}
	if t.Exports {
		tag += "E"
	}
	c.sem.SetAux(t, tag)
	return tag
}

func (c *Checker) checkType(t *ast.TypeSpec) (int, Rate) {
	rate := RateOfType(t.Type)
	c.sem.SetWidthRate(t, 1, rate)
	return 1, rate
}

func (c *Checker) checkNameList(l *ast.NameList) []*VariableEntry {
	entries := make([]*VariableEntry, len(l.Names))
	for i, n := range l.Names {
		entries[i] = c.checkName(n)
	}
	c.sem.SetAux(l, entries)
	return entries
}

func (c *Checker) checkName(n *ast.Name) *VariableEntry {
	e := &VariableEntry{Name: n.Ident, Width: 1, Rate: RateUnknown, Pos: n.Pos()}
	switch n.Kind {
	case ast.IndexedName:
		e.Array = true
		e.Width = n.Size
		if n.Size <= 0 {
			c.errorf(n, errBadSize, n.Ident)
			e.Width = 1
		}
	case ast.InChannelsName:
		e.Array = true
		e.Width = WidthInChannels
	case ast.OutChannelsName:
		e.Array = true
		e.Width = WidthOutChannels
	}
	c.sem.SetWidthRate(n, e.Width, RateUnknown)
	c.sem.SetAux(n, e)
	return e
}

func (c *Checker) checkTableDecl(d *ast.TableDecl) {
	if !containsRate(legalTableRates[c.kind], RateTable) {
		c.fatalf(d, errIllegalType, RateTable, d.Name)
	}
	tag := ""
	if d.Tags != nil {
		tag = c.checkTags(d.Tags)
		if c.kind == globalChecker {
			c.errorf(d.Tags, errTagsInGlobal)
			tag = ""
		}
	}

	size := 1
	values := make([]float64, 0, len(d.Args))
	for _, a := range d.Args {
		c.checkExpr(a)
		v, ok := ConstValue(a)
		if !ok {
			c.errorf(a, errTableArgs, d.Name, "arguments must be constants")
			continue
		}
		values = append(values, v)
	}

	minArgs, known := tableGens[d.Gen]
	switch {
	case !known:
		c.errorf(d, errUnknownGen, d.Gen)
	case len(d.Args) < minArgs:
		c.errorf(d, errTableArgs, d.Name, fmt.Sprintf("%s needs at least %d arguments", d.Gen, minArgs))
	case len(values) == len(d.Args):
		if values[0] != float64(int(values[0])) || values[0] <= 0 {
			c.errorf(d, errTableArgs, d.Name, "size must be a positive integer")
			break
		}
		size = int(values[0])
		switch d.Gen {
		case "data":
			if len(values)-1 > size {
				c.errorf(d, errTableArgs, d.Name, "more values than table size")
			}
		case "lineseg":
			if (len(values)-1)%2 != 0 {
				c.errorf(d, errTableArgs, d.Name, "lineseg needs x, y pairs")
			}
		}
	}

	e := &VariableEntry{
		Name:    d.Name,
		Width:   size,
		Rate:    RateTable,
		Array:   true,
		Imports: strings.Contains(tag, "I"),
		Exports: strings.Contains(tag, "E"),
		Pos:     d.Pos(),
	}
	if e.Imports || e.Exports {
		c.checkTableImport(d, e)
	}
	if err := c.scope.Local.Add(e); err != nil {
		c.errorf(d, "%v", err)
	}
	c.sem.SetWidthRate(d, size, RateTable)
	c.sem.SetAux(d, e)
}

func containsRate(rates []Rate, r Rate) bool {
	for _, x := range rates {
		if x == r {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

func (c *Checker) checkStmts(stmts []ast.Stmt) Rate {
	rates := make([]Rate, 0, len(stmts))
	for _, s := range stmts {
		rates = append(rates, c.checkStmt(s))
	}
	return MaxRate(rates...)
}

func (c *Checker) checkStmt(s ast.Stmt) Rate {
	var rate Rate

	switch s := s.(type) {
	case *ast.AssignStmt:
		rate = c.checkAssign(s)

	case *ast.ExprStmt:
		rate = c.checkExpr(s.X)

	case *ast.IfStmt:
		rate = MaxRate(c.checkExpr(s.Cond), c.checkStmts(s.Then), c.checkStmts(s.Else))

	case *ast.WhileStmt:
		rate = MaxRate(c.checkExpr(s.Cond), c.checkStmts(s.Body))

	case *ast.OutputStmt:
		c.requireInstrument(s, "output")
		for _, a := range s.Args {
			c.checkExpr(a)
		}
		if g := c.env.Globals; g != nil && len(s.Args) != 1 && len(s.Args) != g.OutChannels {
			c.errorf(s, errOutputWidth, len(s.Args), g.OutChannels)
		}
		if len(s.Args) == 0 {
			c.errorf(s, "output needs at least one value")
		}
		rate = RateA

	case *ast.ExtendStmt:
		c.requireInstrument(s, "extend")
		rate = MaxRate(c.checkExpr(s.Dur))

	case *ast.TurnoffStmt:
		c.requireInstrument(s, "turnoff")
		rate = RateK

	case *ast.ReturnStmt:
		if c.kind != opcodeChecker {
			c.errorf(s, errReturnOutside)
		}
		rates := make([]Rate, len(s.Values))
		for i, v := range s.Values {
			rates[i] = c.checkExpr(v)
		}
		rate = MaxRate(rates...)

	default:
		c.errorf(s, "unexpected %s", ast.KindOf(s))
		rate = RateI
	}

	c.sem.SetWidthRate(s, 1, rate)
	return rate
}

func (c *Checker) requireInstrument(s ast.Stmt, what string) {
	if c.kind != instrumentChecker {
		c.errorf(s, errInstrumentOnly, what)
	}
}

func (c *Checker) checkAssign(s *ast.AssignStmt) Rate {
	t := s.Target
	valueRate := c.checkExpr(s.Value)
	indexRate := RateI
	if t.Index != nil {
		indexRate = c.checkExpr(t.Index)
	}

	e, _, ok := c.scope.Resolve(t.Name)
	if !ok {
		if _, std := LookupStandardName(t.Name); std {
			c.errorf(t, errAssignStandard, t.Name)
		} else {
			c.errorf(t, errUndeclared, t.Name)
		}
		c.sem.SetWidthRate(t, 1, valueRate)
		return valueRate
	}
	c.sem.SetAux(t, e)

	switch {
	case !e.Rate.IsSignal() && e.Rate != RateX:
		c.errorf(t, errAssignNonSignal, e.Rate, t.Name)
	case t.Index != nil && !e.Array:
		c.errorf(t, errNotArray, t.Name)
	case t.Index == nil && e.Array:
		c.errorf(t, errArrayNoIndex, t.Name)
	case valueRate.Faster(e.Rate):
		c.errorf(s, errAssignRate, valueRate, e.Rate, t.Name)
	case indexRate.Faster(e.Rate):
		c.errorf(t.Index, errAssignRate, indexRate, e.Rate, t.Name+"[...]")
	}

	rate := e.Rate
	if !rate.IsSignal() && rate != RateX {
		rate = valueRate
	}
	c.sem.SetWidthRate(t, 1, rate)
	return rate
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// checkExpr attributes e and returns its rate.
func (c *Checker) checkExpr(e ast.Expr) Rate {
	rate := RateI

	switch e := e.(type) {
	case *ast.NumLit:
		c.sem.SetAux(e, e.Value)

	case *ast.Ident:
		rate = c.checkIdent(e)

	case *ast.IndexExpr:
		indexRate := c.checkExpr(e.Index)
		rate = indexRate
		if v, _, ok := c.scope.Resolve(e.Name); !ok {
			c.errorf(e, errUndeclared, e.Name)
		} else {
			c.sem.SetAux(e, v)
			if !v.Array || !v.Rate.IsSignal() {
				c.errorf(e, errNotArray, e.Name)
			}
			rate = MaxRate(v.Rate, indexRate)
		}

	case *ast.CallExpr:
		rate = c.checkCall(e)

	case *ast.BinaryExpr:
		rate = MaxRate(c.checkExpr(e.Left), c.checkExpr(e.Right))

	case *ast.UnaryExpr:
		rate = MaxRate(c.checkExpr(e.X))

	case *ast.CondExpr:
		rate = MaxRate(c.checkExpr(e.Cond), c.checkExpr(e.Then), c.checkExpr(e.Else))

	default:
		c.errorf(e, "unexpected %s", ast.KindOf(e))
	}

	c.sem.SetWidthRate(e, 1, rate)
	return rate
}

func (c *Checker) checkIdent(id *ast.Ident) Rate {
	if v, _, ok := c.scope.Resolve(id.Name); ok {
		c.sem.SetAux(id, v)
		switch {
		case v.Rate == RateTable || v.Rate == RateOpArray:
			c.errorf(id, errNotValue, v.Rate, id.Name)
		case v.Array:
			c.errorf(id, errArrayNoIndex, id.Name)
		default:
			return MaxRate(v.Rate)
		}
		return RateI
	}
	if r, ok := LookupStandardName(id.Name); ok {
		return r
	}
	c.errorf(id, errUndeclared, id.Name)
	return RateI
}

func (c *Checker) checkCall(call *ast.CallExpr) Rate {
	if b, ok := LookupBuiltin(call.Name); ok {
		n := len(call.Args)
		if n < b.MinArgs || (b.MaxArgs >= 0 && n > b.MaxArgs) {
			c.errorf(call, errArgCount, call.Name, argRange(b), n)
		}
		rates := make([]Rate, 0, n)
		for i, a := range call.Args {
			if i == b.TableArg {
				c.checkTableArg(call, i, a)
				continue
			}
			rates = append(rates, c.checkExpr(a))
		}
		return MaxRate(rates...)
	}

	kind, ok := c.env.opcodes[call.Name]
	rates := make([]Rate, len(call.Args))
	for i, a := range call.Args {
		rates[i] = c.checkExpr(a)
	}
	if !ok {
		c.errorf(call, errUnknownOpcode, call.Name)
		return MaxRate(rates...)
	}
	switch kind {
	case token.AOPCODE:
		return RateA
	case token.KOPCODE:
		return RateK
	case token.IOPCODE:
		return RateI
	}
	return MaxRate(rates...)
}

func (c *Checker) checkTableArg(call *ast.CallExpr, i int, a ast.Expr) {
	id, ok := a.(*ast.Ident)
	if ok {
		if v, _, found := c.scope.Resolve(id.Name); found && v.Rate == RateTable {
			c.sem.SetWidthRate(id, v.Width, RateTable)
			c.sem.SetAux(id, v)
			return
		}
	}
	c.errorf(a, errNotTable, i+1, call.Name)
	c.checkExpr(a)
}

func argRange(b Builtin) string {
	switch {
	case b.MaxArgs < 0:
		return fmt.Sprintf("at least %d", b.MinArgs)
	case b.MinArgs == b.MaxArgs:
		return fmt.Sprintf("%d", b.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", b.MinArgs, b.MaxArgs)
	}
}
