package parser

import (
	"strconv"

	"github.com/kolkov/usaol/internal/ast"
	"github.com/kolkov/usaol/internal/lexer"
	"github.com/kolkov/usaol/internal/token"
)

// Parser is a recursive descent parser for orchestras.
type Parser struct {
	lexer  *lexer.Lexer // Lexer instance
	tok    lexer.Token  // Current token
	prev   lexer.Token  // Previous token (for end positions)
	errors ErrorList    // Accumulated errors
}

// bailout is raised on the first syntax error and recovered in Parse.
type bailout struct{}

// Parse parses an orchestra from source code.
// Parsing stops at the first syntax error.
func Parse(src string) (*ast.Orchestra, error) {
	return ParseBytes([]byte(src))
}

// ParseBytes parses an orchestra from a byte slice.
func ParseBytes(src []byte) (orch *ast.Orchestra, err error) {
	p := &Parser{lexer: lexer.New(src)}
	defer p.recover(&err)
	p.next()

	orch = p.parseOrchestra()
	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return orch, nil
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (expr ast.Expr, err error) {
	p := &Parser{lexer: lexer.New([]byte(src))}
	defer p.recover(&err)
	p.next()

	expr = p.parseExpr()
	if p.tok.Type != token.EOF {
		p.error(expectedError(p.tok.Pos, "end of expression", p.tokenDesc()))
	}
	return expr, nil
}

func (p *Parser) recover(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		*err = p.errors
	}
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

func (p *Parser) next() {
	p.prev = p.tok
	p.tok = p.lexer.Scan()
	if p.tok.Type == token.ILLEGAL {
		p.error(errorf(p.tok.Pos, "%s", p.tok.Value))
	}
}

// expect checks that the current token is tok and advances.
func (p *Parser) expect(tok token.Token) token.Position {
	pos := p.tok.Pos
	if p.tok.Type != tok {
		p.error(expectedError(pos, tokenName(tok), p.tokenDesc()))
	}
	p.next()
	return pos
}

// expectName expects a NAME token and returns its value and position.
func (p *Parser) expectName() (string, token.Position) {
	name, pos := p.tok.Value, p.tok.Pos
	p.expect(token.NAME)
	return name, pos
}

func (p *Parser) expectInt() int {
	pos, raw := p.tok.Pos, p.tok.Value
	p.expect(token.INTEGER)
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.error(errorf(pos, "invalid integer %s", raw))
	}
	return n
}

func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

// endPos returns the position just after the previous token.
func (p *Parser) endPos() token.Position {
	pos := p.prev.Pos
	pos.Column += len(p.prev.Value)
	pos.Offset += len(p.prev.Value)
	return pos
}

func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.NAME, token.INTEGER, token.NUMBER, token.ILLEGAL:
		return p.tok.Value
	default:
		return tokenName(p.tok.Type)
	}
}

func (p *Parser) error(err *ParseError) {
	p.errors = append(p.errors, err)
	panic(bailout{})
}

func (p *Parser) errorf(format string, args ...any) {
	p.error(errorf(p.tok.Pos, format, args...))
}

func tokenName(t token.Token) string {
	switch t {
	case token.EOF:
		return "end of file"
	case token.ILLEGAL:
		return "illegal"
	}
	return t.String()
}

// -----------------------------------------------------------------------------
// Top level
// -----------------------------------------------------------------------------

func (p *Parser) parseOrchestra() *ast.Orchestra {
	orch := &ast.Orchestra{StartPos: p.tok.Pos}

	for p.tok.Type != token.EOF {
		switch {
		case p.tok.Type == token.GLOBAL:
			orch.Items = append(orch.Items, p.parseGlobal())
		case p.tok.Type == token.INSTR:
			orch.Items = append(orch.Items, p.parseInstr())
		case p.tok.Type.IsOpcodeType():
			orch.Items = append(orch.Items, p.parseOpcode())
		case p.tok.Type == token.TEMPLATE:
			orch.Items = append(orch.Items, p.parseTemplate())
		default:
			p.error(expectedError(p.tok.Pos, "global, instr, opcode or template", p.tokenDesc()))
		}
	}

	orch.EndPos = p.tok.Pos
	return orch
}

func (p *Parser) parseGlobal() *ast.GlobalBlock {
	start := p.expect(token.GLOBAL)
	p.expect(token.LBRACE)

	g := &ast.GlobalBlock{}
	for p.tok.Type != token.RBRACE && p.tok.Type != token.EOF {
		switch p.tok.Type {
		case token.SRATE, token.KRATE, token.INCHANNELS, token.OUTCHANNELS, token.INTERP:
			ps := p.tok.Pos
			param := p.tok.Type
			p.next()
			value := p.expectInt()
			p.expect(token.SEMICOLON)
			g.Items = append(g.Items, &ast.RTParam{
				BaseDecl: ast.MakeBaseDecl(ps, p.endPos()),
				Param:    param,
				Value:    value,
			})
		default:
			g.Items = append(g.Items, p.parseDecl())
		}
	}
	p.expect(token.RBRACE)

	g.BaseDecl = ast.MakeBaseDecl(start, p.endPos())
	return g
}

func (p *Parser) parseInstr() *ast.InstrDecl {
	start := p.expect(token.INSTR)
	name, _ := p.expectName()
	params := p.parseIdentList()
	decls, body := p.parseBody()
	return &ast.InstrDecl{
		BaseDecl: ast.MakeBaseDecl(start, p.endPos()),
		Name:     name,
		Params:   params,
		Decls:    decls,
		Body:     body,
	}
}

func (p *Parser) parseTemplate() *ast.TemplateDecl {
	start := p.expect(token.TEMPLATE)
	name, _ := p.expectName()
	params := p.parseIdentList()
	decls, body := p.parseBody()
	return &ast.TemplateDecl{
		BaseDecl: ast.MakeBaseDecl(start, p.endPos()),
		Name:     name,
		Params:   params,
		Decls:    decls,
		Body:     body,
	}
}

func (p *Parser) parseOpcode() *ast.OpcodeDecl {
	start := p.tok.Pos
	kind := p.tok.Type
	p.next()
	name, _ := p.expectName()

	var params []*ast.VarDecl
	p.expect(token.LPAREN)
	for p.tok.Type != token.RPAREN {
		if len(params) > 0 {
			p.expect(token.COMMA)
		}
		ps := p.tok.Pos
		typ := p.parseTypeSpec()
		n := p.parseName()
		params = append(params, &ast.VarDecl{
			BaseDecl: ast.MakeBaseDecl(ps, p.endPos()),
			Type:     typ,
			Names:    &ast.NameList{Span: n.Span, Names: []*ast.Name{n}},
		})
	}
	p.expect(token.RPAREN)

	decls, body := p.parseBody()
	return &ast.OpcodeDecl{
		BaseDecl: ast.MakeBaseDecl(start, p.endPos()),
		Kind:     kind,
		Name:     name,
		Params:   params,
		Decls:    decls,
		Body:     body,
	}
}

// parseIdentList parses "(a, b, c)".
func (p *Parser) parseIdentList() []*ast.Ident {
	var ids []*ast.Ident
	p.expect(token.LPAREN)
	for p.tok.Type != token.RPAREN {
		if len(ids) > 0 {
			p.expect(token.COMMA)
		}
		name, pos := p.expectName()
		ids = append(ids, &ast.Ident{BaseExpr: ast.MakeBaseExpr(pos, p.endPos()), Name: name})
	}
	p.expect(token.RPAREN)
	return ids
}

// parseBody parses "{ declarations statements }".
func (p *Parser) parseBody() ([]ast.Decl, []ast.Stmt) {
	p.expect(token.LBRACE)
	var decls []ast.Decl
	for p.isDeclStart() {
		decls = append(decls, p.parseDecl())
	}
	body := p.parseStmtsUntilBrace()
	p.expect(token.RBRACE)
	return decls, body
}

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

func (p *Parser) isDeclStart() bool {
	return p.tok.Type.IsStorageType() || p.match(token.TABLE, token.IMPORTS, token.EXPORTS)
}

func (p *Parser) parseDecl() ast.Decl {
	start := p.tok.Pos
	tags := p.parseTags()

	if p.tok.Type == token.TABLE {
		p.next()
		name, _ := p.expectName()
		p.expect(token.LPAREN)
		gen, _ := p.expectName()
		var args []ast.Expr
		for p.tok.Type == token.COMMA {
			p.next()
			args = append(args, p.parseExpr())
		}
		p.expect(token.RPAREN)
		p.expect(token.SEMICOLON)
		return &ast.TableDecl{
			BaseDecl: ast.MakeBaseDecl(start, p.endPos()),
			Tags:     tags,
			Name:     name,
			Gen:      gen,
			Args:     args,
		}
	}

	typ := p.parseTypeSpec()
	names := &ast.NameList{}
	names.StartPos = p.tok.Pos
	for {
		names.Names = append(names.Names, p.parseName())
		if p.tok.Type != token.COMMA {
			break
		}
		p.next()
	}
	names.EndPos = p.endPos()
	p.expect(token.SEMICOLON)

	return &ast.VarDecl{
		BaseDecl: ast.MakeBaseDecl(start, p.endPos()),
		Tags:     tags,
		Type:     typ,
		Names:    names,
	}
}

// parseTags parses an optional imports/exports tag list.
func (p *Parser) parseTags() *ast.TagList {
	if !p.match(token.IMPORTS, token.EXPORTS) {
		return nil
	}
	tags := &ast.TagList{}
	tags.StartPos = p.tok.Pos
	for p.match(token.IMPORTS, token.EXPORTS) {
		if p.tok.Type == token.IMPORTS {
			if tags.Imports {
				p.errorf("duplicate imports tag")
			}
			tags.Imports = true
		} else {
			if tags.Exports {
				p.errorf("duplicate exports tag")
			}
			tags.Exports = true
		}
		p.next()
	}
	tags.EndPos = p.endPos()
	return tags
}

func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	if !p.tok.Type.IsStorageType() {
		p.error(expectedError(p.tok.Pos, "variable type", p.tokenDesc()))
	}
	ts := &ast.TypeSpec{Type: p.tok.Type}
	ts.StartPos = p.tok.Pos
	p.next()
	ts.EndPos = p.endPos()
	return ts
}

func (p *Parser) parseName() *ast.Name {
	ident, pos := p.expectName()
	n := &ast.Name{Kind: ast.SimpleName, Ident: ident}
	if p.tok.Type == token.LBRACKET {
		p.next()
		switch p.tok.Type {
		case token.INCHANNELS:
			n.Kind = ast.InChannelsName
			p.next()
		case token.OUTCHANNELS:
			n.Kind = ast.OutChannelsName
			p.next()
		default:
			n.Kind = ast.IndexedName
			n.Size = p.expectInt()
		}
		p.expect(token.RBRACKET)
	}
	n.Span = ast.MakeSpan(pos, p.endPos())
	return n
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

func (p *Parser) parseStmtsUntilBrace() []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok.Type != token.RBRACE && p.tok.Type != token.EOF {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) parseBlock() []ast.Stmt {
	p.expect(token.LBRACE)
	stmts := p.parseStmtsUntilBrace()
	p.expect(token.RBRACE)
	if stmts == nil {
		stmts = []ast.Stmt{}
	}
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.tok.Pos

	switch p.tok.Type {
	case token.IF:
		p.next()
		p.expect(token.LPAREN)
		cond := p.parseExpr()
		p.expect(token.RPAREN)
		s := &ast.IfStmt{Cond: cond, Then: p.parseBlock()}
		if p.tok.Type == token.ELSE {
			p.next()
			s.Else = p.parseBlock()
		}
		s.BaseStmt = ast.MakeBaseStmt(start, p.endPos())
		return s

	case token.WHILE:
		p.next()
		p.expect(token.LPAREN)
		cond := p.parseExpr()
		p.expect(token.RPAREN)
		body := p.parseBlock()
		return &ast.WhileStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), Cond: cond, Body: body}

	case token.OUTPUT:
		p.next()
		args := p.parseArgs()
		p.expect(token.SEMICOLON)
		return &ast.OutputStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), Args: args}

	case token.EXTEND:
		p.next()
		p.expect(token.LPAREN)
		dur := p.parseExpr()
		p.expect(token.RPAREN)
		p.expect(token.SEMICOLON)
		return &ast.ExtendStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), Dur: dur}

	case token.TURNOFF:
		p.next()
		p.expect(token.SEMICOLON)
		return &ast.TurnoffStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos())}

	case token.RETURN:
		p.next()
		values := p.parseArgs()
		p.expect(token.SEMICOLON)
		return &ast.ReturnStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), Values: values}
	}

	if p.isDeclStart() {
		p.errorf("declaration after statements")
	}

	x := p.parseExpr()
	if p.tok.Type == token.ASSIGN {
		target := p.toLValue(x)
		p.next()
		value := p.parseExpr()
		p.expect(token.SEMICOLON)
		return &ast.AssignStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), Target: target, Value: value}
	}
	p.expect(token.SEMICOLON)
	return &ast.ExprStmt{BaseStmt: ast.MakeBaseStmt(start, p.endPos()), X: x}
}

func (p *Parser) toLValue(x ast.Expr) *ast.LValue {
	switch x := x.(type) {
	case *ast.Ident:
		return &ast.LValue{Span: ast.MakeSpan(x.Pos(), x.End()), Name: x.Name}
	case *ast.IndexExpr:
		return &ast.LValue{Span: ast.MakeSpan(x.Pos(), x.End()), Name: x.Name, Index: x.Index}
	}
	p.error(errorf(x.Pos(), "cannot assign to %s", ast.KindOf(x)))
	return nil
}

// parseArgs parses a parenthesized, possibly empty, expression list.
func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	p.expect(token.LPAREN)
	for p.tok.Type != token.RPAREN {
		if len(args) > 0 {
			p.expect(token.COMMA)
		}
		args = append(args, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return args
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// parseExpr parses an expression. Precedence, lowest first:
//
//	?:  ||  &&  == !=  < <= > >=  + -  * /  unary - !
func (p *Parser) parseExpr() ast.Expr {
	cond := p.parseOr()
	if p.tok.Type != token.QUESTION {
		return cond
	}
	p.next()
	then := p.parseExpr()
	p.expect(token.COLON)
	els := p.parseExpr()
	return &ast.CondExpr{
		BaseExpr: ast.MakeBaseExpr(cond.Pos(), els.End()),
		Cond:     cond,
		Then:     then,
		Else:     els,
	}
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseBinaryLeft(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseBinaryLeft(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinaryLeft(p.parseRelational, token.EQUALS, token.NOT_EQUALS)
}

func (p *Parser) parseRelational() ast.Expr {
	return p.parseBinaryLeft(p.parseAdditive, token.LESS, token.LTE, token.GREATER, token.GTE)
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.parseBinaryLeft(p.parseMultiplicative, token.ADD, token.SUB)
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV)
}

// parseBinaryLeft parses left-associative binary operators.
func (p *Parser) parseBinaryLeft(operand func() ast.Expr, ops ...token.Token) ast.Expr {
	left := operand()
	for p.match(ops...) {
		op := p.tok.Type
		p.next()
		right := operand()
		left = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(left.Pos(), right.End()),
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	if p.match(token.SUB, token.NOT) {
		start := p.tok.Pos
		op := p.tok.Type
		p.next()
		x := p.parseUnary()
		return &ast.UnaryExpr{BaseExpr: ast.MakeBaseExpr(start, x.End()), Op: op, X: x}
	}
	return p.parseTerm()
}

func (p *Parser) parseTerm() ast.Expr {
	start := p.tok.Pos

	switch p.tok.Type {
	case token.INTEGER, token.NUMBER:
		raw := p.tok.Value
		isInt := p.tok.Type == token.INTEGER
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			p.errorf("invalid number %s", raw)
		}
		p.next()
		return &ast.NumLit{BaseExpr: ast.MakeBaseExpr(start, p.endPos()), Value: v, Integer: isInt, Raw: raw}

	case token.NAME:
		name := p.tok.Value
		p.next()
		switch p.tok.Type {
		case token.LBRACKET:
			p.next()
			index := p.parseExpr()
			p.expect(token.RBRACKET)
			return &ast.IndexExpr{BaseExpr: ast.MakeBaseExpr(start, p.endPos()), Name: name, Index: index}
		case token.LPAREN:
			args := p.parseArgs()
			return &ast.CallExpr{BaseExpr: ast.MakeBaseExpr(start, p.endPos()), Name: name, Args: args}
		}
		return &ast.Ident{BaseExpr: ast.MakeBaseExpr(start, p.endPos()), Name: name}

	case token.LPAREN:
		p.next()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		return x
	}

	p.error(expectedError(p.tok.Pos, "expression", p.tokenDesc()))
	return nil
}
