package ast

// Inspect traverses n depth-first, calling fn for each node. When fn returns
// false the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || isNilNode(n) {
		return
	}
	if !fn(n) {
		return
	}
	switch x := n.(type) {
	case *TypeDecl:
		inspectStmts(x.Body, fn)
	case *MethodDecl:
		if x.Body != nil {
			Inspect(x.Body, fn)
		}
	case *VarDecl:
		inspectExpr(x.Init, fn)
	case *Initializer:
		if x.Body != nil {
			Inspect(x.Body, fn)
		}
	case *EnumConstant:
		inspectExprs(x.Args, fn)
		inspectStmts(x.Body, fn)
	case *Block:
		inspectStmts(x.Stmts, fn)
	case *ExprStmt:
		inspectExpr(x.X, fn)
	case *If:
		inspectExpr(x.Cond, fn)
		inspectStmt(x.Then, fn)
		inspectStmt(x.Else, fn)
	case *While:
		inspectExpr(x.Cond, fn)
		inspectStmt(x.Body, fn)
	case *DoWhile:
		inspectStmt(x.Body, fn)
		inspectExpr(x.Cond, fn)
	case *For:
		inspectStmts(x.Init, fn)
		inspectExpr(x.Cond, fn)
		inspectExprs(x.Update, fn)
		inspectStmt(x.Body, fn)
	case *ForEach:
		if x.Var != nil {
			Inspect(x.Var, fn)
		}
		inspectExpr(x.Iterable, fn)
		inspectStmt(x.Body, fn)
	case *Return:
		inspectExpr(x.Value, fn)
	case *Throw:
		inspectExpr(x.Value, fn)
	case *Yield:
		inspectExpr(x.Value, fn)
	case *Assert:
		inspectExpr(x.Cond, fn)
		inspectExpr(x.Message, fn)
	case *Labeled:
		inspectStmt(x.Body, fn)
	case *Try:
		for _, r := range x.Resources {
			Inspect(r, fn)
		}
		if x.Body != nil {
			Inspect(x.Body, fn)
		}
		for _, c := range x.Catches {
			if c.Param != nil {
				Inspect(c.Param, fn)
			}
			if c.Body != nil {
				Inspect(c.Body, fn)
			}
		}
		if x.Finally != nil {
			Inspect(x.Finally, fn)
		}
	case *Switch:
		inspectExpr(x.Value, fn)
		for _, c := range x.Cases {
			inspectExprs(c.Labels, fn)
			inspectStmts(c.Body, fn)
		}
	case *Synchronized:
		inspectExpr(x.Lock, fn)
		if x.Body != nil {
			Inspect(x.Body, fn)
		}
	case *ArrayAccess:
		inspectExpr(x.Array, fn)
		inspectExpr(x.Index, fn)
	case *ArrayCreation:
		inspectExprs(x.Dims, fn)
		if x.Init != nil {
			Inspect(x.Init, fn)
		}
	case *ArrayInit:
		inspectExprs(x.Elements, fn)
	case *Binary:
		inspectExpr(x.Left, fn)
		inspectExpr(x.Right, fn)
	case *Cast:
		inspectExpr(x.X, fn)
	case *Instantiate:
		inspectExpr(x.Outer, fn)
		inspectExprs(x.Args, fn)
		inspectStmts(x.Body, fn)
	case *Lambda:
		inspectExpr(x.Expr, fn)
		if x.Block != nil {
			Inspect(x.Block, fn)
		}
	case *MethodCall:
		inspectExpr(x.Receiver, fn)
		inspectExprs(x.Args, fn)
	case *Paren:
		inspectExpr(x.X, fn)
	case *Postfix:
		inspectExpr(x.X, fn)
	case *Prefix:
		inspectExpr(x.X, fn)
	case *Ternary:
		inspectExpr(x.Cond, fn)
		inspectExpr(x.Then, fn)
		inspectExpr(x.Else, fn)
	case *Unit:
		inspectExprs(x.Args, fn)
	}
}

// MethodCalls collects every call reachable from n in source order.
func MethodCalls(n Node) []*MethodCall {
	var out []*MethodCall
	Inspect(n, func(n Node) bool {
		if c, ok := n.(*MethodCall); ok {
			out = append(out, c)
		}
		return true
	})
	return out
}

func inspectStmt(s Stmt, fn func(Node) bool) {
	if s != nil {
		Inspect(s, fn)
	}
}

func inspectStmts(list []Stmt, fn func(Node) bool) {
	for _, s := range list {
		inspectStmt(s, fn)
	}
}

func inspectExpr(e Expr, fn func(Node) bool) {
	if e != nil {
		Inspect(e, fn)
	}
}

func inspectExprs(list []Expr, fn func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, fn)
	}
}

// isNilNode catches typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch x := n.(type) {
	case *Block:
		return x == nil
	case *TypeDecl:
		return x == nil
	case *MethodDecl:
		return x == nil
	case *VarDecl:
		return x == nil
	case *ArrayInit:
		return x == nil
	case *MethodCall:
		return x == nil
	}
	return false
}
