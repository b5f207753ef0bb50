package parser

import (
	"strings"

	"codequery/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// block converts a block or constructor body.
func (c *ExtractionContext) block(node *sitter.Node) *ast.Block {
	if node == nil {
		return nil
	}
	b := &ast.Block{}
	for _, n := range namedChildren(node) {
		b.Stmts = append(b.Stmts, c.stmts(n)...)
	}
	return b
}

// stmt converts a statement in a single-statement position; several
// declarators written there are wrapped in a block.
func (c *ExtractionContext) stmt(node *sitter.Node) ast.Stmt {
	list := c.stmts(node)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return &ast.Block{Stmts: list}
}

func (c *ExtractionContext) stmts(node *sitter.Node) []ast.Stmt {
	if node == nil {
		return nil
	}
	one := func(s ast.Stmt) []ast.Stmt { return []ast.Stmt{s} }

	switch node.Kind() {
	case "block":
		return one(c.block(node))
	case "local_variable_declaration":
		var out []ast.Stmt
		for _, v := range c.varDecls(node, false) {
			out = append(out, v)
		}
		return out
	case "expression_statement":
		if x := c.expr(firstNamed(node)); x != nil {
			return one(&ast.ExprStmt{X: x})
		}
		return nil
	case "explicit_constructor_invocation":
		return one(&ast.ExprStmt{X: c.constructorInvocation(node)})
	case "if_statement":
		return one(&ast.If{
			Cond: c.expr(node.ChildByFieldName("condition")),
			Then: c.stmt(node.ChildByFieldName("consequence")),
			Else: c.stmt(node.ChildByFieldName("alternative")),
		})
	case "while_statement":
		return one(&ast.While{
			Cond: c.expr(node.ChildByFieldName("condition")),
			Body: c.stmt(node.ChildByFieldName("body")),
		})
	case "do_statement":
		return one(&ast.DoWhile{
			Body: c.stmt(node.ChildByFieldName("body")),
			Cond: c.expr(node.ChildByFieldName("condition")),
		})
	case "for_statement":
		return one(c.forStmt(node))
	case "enhanced_for_statement":
		return one(c.forEach(node))
	case "return_statement":
		return one(&ast.Return{Value: c.expr(firstNamed(node))})
	case "throw_statement":
		return one(&ast.Throw{Value: c.expr(firstNamed(node))})
	case "yield_statement":
		return one(&ast.Yield{Value: c.expr(firstNamed(node))})
	case "assert_statement":
		parts := namedChildren(node)
		a := &ast.Assert{}
		if len(parts) > 0 {
			a.Cond = c.expr(parts[0])
		}
		if len(parts) > 1 {
			a.Message = c.expr(parts[1])
		}
		return one(a)
	case "break_statement", "continue_statement":
		j := &ast.Jump{Keyword: strings.TrimSuffix(node.Kind(), "_statement")}
		if label := child(node, "", "identifier"); label != nil {
			j.Label = c.Text(label)
		}
		return one(j)
	case "labeled_statement":
		l := &ast.Labeled{}
		for _, n := range namedChildren(node) {
			if n.Kind() == "identifier" && l.Label == "" {
				l.Label = c.Text(n)
				continue
			}
			l.Body = c.stmt(n)
		}
		return one(l)
	case "synchronized_statement":
		return one(&ast.Synchronized{
			Lock: c.expr(child(node, "", "parenthesized_expression")),
			Body: c.block(node.ChildByFieldName("body")),
		})
	case "try_statement", "try_with_resources_statement":
		return one(c.tryStmt(node))
	case "switch_expression", "switch_statement":
		return one(c.switchStmt(node))
	case "class_declaration", "interface_declaration", "enum_declaration",
		"annotation_type_declaration", "record_declaration":
		if d := c.typeDecl(node); d != nil {
			return one(d)
		}
		return nil
	case "ERROR":
		c.Skipped++
		return nil
	}
	return nil
}

func firstNamed(node *sitter.Node) *sitter.Node {
	if list := namedChildren(node); len(list) > 0 {
		return list[0]
	}
	return nil
}

func (c *ExtractionContext) forStmt(node *sitter.Node) *ast.For {
	f := &ast.For{
		Cond: c.expr(node.ChildByFieldName("condition")),
		Body: c.stmt(node.ChildByFieldName("body")),
	}
	for _, init := range fieldChildren(node, "init") {
		if init.Kind() == "local_variable_declaration" {
			f.Init = append(f.Init, c.stmts(init)...)
			continue
		}
		if x := c.expr(init); x != nil {
			f.Init = append(f.Init, &ast.ExprStmt{X: x})
		}
	}
	for _, u := range fieldChildren(node, "update") {
		if x := c.expr(u); x != nil {
			f.Update = append(f.Update, x)
		}
	}
	return f
}

func (c *ExtractionContext) forEach(node *sitter.Node) *ast.ForEach {
	mods, annots := c.modifiers(node)
	name := node.ChildByFieldName("name")
	v := &ast.VarDecl{
		Modifiers:   mods,
		Annotations: annots,
		Type:        c.typeText(node.ChildByFieldName("type")),
		Name:        c.Text(name),
		Pos:         c.Position(name),
	}
	if dims := node.ChildByFieldName("dimensions"); dims != nil {
		v.Type += strings.Repeat("[]", countDims(c.Text(dims)))
	}
	return &ast.ForEach{
		Var:      v,
		Iterable: c.expr(node.ChildByFieldName("value")),
		Body:     c.stmt(node.ChildByFieldName("body")),
	}
}

func (c *ExtractionContext) tryStmt(node *sitter.Node) *ast.Try {
	t := &ast.Try{Body: c.block(node.ChildByFieldName("body"))}
	if res := node.ChildByFieldName("resources"); res != nil {
		for _, r := range namedChildren(res) {
			if r.Kind() != "resource" {
				continue
			}
			value := r.ChildByFieldName("value")
			if value == nil {
				// try (existing) reuses a variable; keep it as an expression.
				t.Resources = append(t.Resources, &ast.VarDecl{Init: c.expr(firstNamed(r))})
				continue
			}
			mods, _ := c.modifiers(r)
			name := r.ChildByFieldName("name")
			t.Resources = append(t.Resources, &ast.VarDecl{
				Modifiers: mods,
				Type:      c.typeText(r.ChildByFieldName("type")),
				Name:      c.Text(name),
				Init:      c.expr(value),
				Pos:       c.Position(name),
			})
		}
	}
	for _, n := range namedChildren(node) {
		switch n.Kind() {
		case "catch_clause":
			t.Catches = append(t.Catches, c.catchClause(n))
		case "finally_clause":
			t.Finally = c.block(child(n, "", "block"))
		}
	}
	return t
}

func (c *ExtractionContext) catchClause(node *sitter.Node) ast.Catch {
	out := ast.Catch{Body: c.block(node.ChildByFieldName("body"))}
	param := child(node, "", "catch_formal_parameter")
	if param == nil {
		return out
	}
	mods, annots := c.modifiers(param)
	var types []string
	if ct := child(param, "", "catch_type"); ct != nil {
		for _, t := range namedChildren(ct) {
			types = append(types, c.typeText(t))
		}
	}
	name := param.ChildByFieldName("name")
	out.Param = &ast.VarDecl{
		Modifiers:   mods,
		Annotations: annots,
		Name:        c.Text(name),
		Pos:         c.Position(name),
	}
	if len(types) > 0 {
		out.Param.Type = types[0]
	}
	return out
}

func (c *ExtractionContext) switchStmt(node *sitter.Node) *ast.Switch {
	s := &ast.Switch{Value: c.expr(node.ChildByFieldName("condition"))}
	body := node.ChildByFieldName("body")
	for _, group := range namedChildren(body) {
		switch group.Kind() {
		case "switch_block_statement_group", "switch_rule":
			var sc ast.SwitchCase
			for _, n := range namedChildren(group) {
				if n.Kind() == "switch_label" {
					labels := namedChildren(n)
					if len(labels) == 0 {
						sc.Default = true
					}
					for _, l := range labels {
						if x := c.expr(l); x != nil {
							sc.Labels = append(sc.Labels, x)
						}
					}
					continue
				}
				sc.Body = append(sc.Body, c.stmts(n)...)
			}
			s.Cases = append(s.Cases, sc)
		}
	}
	return s
}
