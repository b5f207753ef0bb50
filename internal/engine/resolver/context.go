package resolver

import "codequery/internal/engine/ast"

// Context is the lexical position a name or expression is resolved from.
// Enclosing lists the current type first and the top-level type last.
type Context struct {
	File      string
	Package   string
	Imports   []ast.Import
	Root      *ast.TypeDecl
	Current   *ast.TypeDecl
	Enclosing []*ast.TypeDecl
	Method    *ast.MethodDecl
	Static    bool
	Scope     *Scope
}

// Scope is one lexical frame. Frames link outwards through Parent.
type Scope struct {
	Parent *Scope
	Params []ast.Param
	Locals []*ast.VarDecl
	Block  *ast.Block
}

func (c *Context) clone() *Context {
	cp := *c
	return &cp
}

// WithMethod enters m's body: its parameters become the innermost frame.
func (c *Context) WithMethod(m *ast.MethodDecl) *Context {
	cp := c.clone()
	cp.Method = m
	cp.Static = m.Modifiers.Static.Bool()
	cp.Scope = &Scope{Parent: c.Scope, Params: m.Params, Block: m.Body}
	return cp
}

// WithParams pushes a frame holding params, as for lambdas and catch clauses.
func (c *Context) WithParams(params ...ast.Param) *Context {
	cp := c.clone()
	cp.Scope = &Scope{Parent: c.Scope, Params: params}
	return cp
}

// WithLocals pushes a frame holding already-declared local variables.
func (c *Context) WithLocals(vars ...*ast.VarDecl) *Context {
	cp := c.clone()
	cp.Scope = &Scope{Parent: c.Scope, Locals: vars}
	return cp
}

// WithStatic marks the context as a static member body.
func (c *Context) WithStatic(static bool) *Context {
	cp := c.clone()
	cp.Static = static
	return cp
}

func (c *Context) withBlock(b *ast.Block) *Context {
	cp := c.clone()
	cp.Scope = &Scope{Parent: c.Scope, Block: b}
	return cp
}

// declare adds a local to the innermost frame.
func (c *Context) declare(v *ast.VarDecl) {
	if c.Scope == nil {
		c.Scope = &Scope{}
	}
	c.Scope.Locals = append(c.Scope.Locals, v)
}

// topLevel returns a copy positioned at the root declaration.
func (c *Context) topLevel() *Context {
	cp := c.clone()
	cp.Current = c.Root
	cp.Enclosing = []*ast.TypeDecl{c.Root}
	cp.Method = nil
	cp.Scope = nil
	return cp
}

// lookupVariable searches frames innermost first; within a frame
// parameters shadow locals. Locals declared later shadow earlier ones.
func (c *Context) lookupVariable(name string) (typ string, init ast.Expr, ok bool) {
	for sc := c.Scope; sc != nil; sc = sc.Parent {
		for _, p := range sc.Params {
			if p.Name == name {
				return p.EffectiveType(), nil, true
			}
		}
		for i := len(sc.Locals) - 1; i >= 0; i-- {
			if v := sc.Locals[i]; v.Name == name {
				return v.Type, v.Init, true
			}
		}
	}
	return "", nil, false
}

// typeParams lists the type parameters in scope, innermost first.
func (c *Context) typeParams() []ast.TypeParam {
	var out []ast.TypeParam
	if c.Method != nil {
		out = append(out, c.Method.TypeParams...)
	}
	for _, t := range c.Enclosing {
		out = append(out, t.TypeParams...)
	}
	return out
}

// localType finds a local class declared in an enclosing block.
func (c *Context) localType(name string) *ast.TypeDecl {
	for sc := c.Scope; sc != nil; sc = sc.Parent {
		if sc.Block == nil {
			continue
		}
		for _, st := range sc.Block.Stmts {
			if d, ok := st.(*ast.TypeDecl); ok && d.Name == name {
				return d
			}
		}
	}
	return nil
}
