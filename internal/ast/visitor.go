package ast

// Walk traverses a syntax tree in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: count all identifiers
//
//	count := 0
//	ast.Walk(orch, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true
//	})
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Orchestra:
		walkDecls(n.Items, fn)

	case *GlobalBlock:
		walkDecls(n.Items, fn)

	case *InstrDecl:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		walkDecls(n.Decls, fn)
		walkStmts(n.Body, fn)

	case *OpcodeDecl:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		walkDecls(n.Decls, fn)
		walkStmts(n.Body, fn)

	case *TemplateDecl:
		for _, p := range n.Params {
			Walk(p, fn)
		}
		walkDecls(n.Decls, fn)
		walkStmts(n.Body, fn)

	case *VarDecl:
		if n.Tags != nil {
			Walk(n.Tags, fn)
		}
		if n.Type != nil {
			Walk(n.Type, fn)
		}
		if n.Names != nil {
			Walk(n.Names, fn)
		}

	case *TableDecl:
		if n.Tags != nil {
			Walk(n.Tags, fn)
		}
		walkExprs(n.Args, fn)

	case *NameList:
		for _, name := range n.Names {
			Walk(name, fn)
		}

	case *RTParam, *TagList, *TypeSpec, *Name:
		// no children

	case *LValue:
		Walk(n.Index, fn)

	case *AssignStmt:
		Walk(n.Target, fn)
		Walk(n.Value, fn)

	case *ExprStmt:
		Walk(n.X, fn)

	case *IfStmt:
		Walk(n.Cond, fn)
		walkStmts(n.Then, fn)
		walkStmts(n.Else, fn)

	case *WhileStmt:
		Walk(n.Cond, fn)
		walkStmts(n.Body, fn)

	case *OutputStmt:
		walkExprs(n.Args, fn)

	case *ExtendStmt:
		Walk(n.Dur, fn)

	case *TurnoffStmt:
		// no children

	case *ReturnStmt:
		walkExprs(n.Values, fn)

	case *NumLit, *Ident:
		// no children

	case *IndexExpr:
		Walk(n.Index, fn)

	case *CallExpr:
		walkExprs(n.Args, fn)

	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *UnaryExpr:
		Walk(n.X, fn)

	case *CondExpr:
		Walk(n.Cond, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	}
}

func walkDecls(decls []Decl, fn func(Node) bool) {
	for _, d := range decls {
		Walk(d, fn)
	}
}

func walkStmts(stmts []Stmt, fn func(Node) bool) {
	for _, s := range stmts {
		Walk(s, fn)
	}
}

func walkExprs(exprs []Expr, fn func(Node) bool) {
	for _, e := range exprs {
		Walk(e, fn)
	}
}
