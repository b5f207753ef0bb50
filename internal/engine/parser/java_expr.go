package parser

import (
	"strings"

	"codequery/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var literalKinds = map[string]bool{
	"decimal_integer_literal":        true,
	"hex_integer_literal":            true,
	"octal_integer_literal":          true,
	"binary_integer_literal":         true,
	"decimal_floating_point_literal": true,
	"hex_floating_point_literal":     true,
	"character_literal":              true,
	"string_literal":                 true,
	"text_block":                     true,
	"null_literal":                   true,
	"true":                           true,
	"false":                          true,
}

// expr converts an expression node. Unsupported forms, such as switch
// expressions and string templates, yield nil.
func (c *ExtractionContext) expr(node *sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	kind := node.Kind()
	if literalKinds[kind] {
		return ast.Lit(c.Text(node))
	}

	switch kind {
	case "identifier", "_reserved_identifier":
		return ast.Ident(c.Text(node))
	case "this":
		return ast.This()
	case "super":
		return &ast.Unit{Kind: ast.UnitSuper, Value: "super"}
	case "parenthesized_expression":
		if x := c.expr(firstNamed(node)); x != nil {
			return &ast.Paren{X: x}
		}
	case "assignment_expression", "binary_expression":
		return &ast.Binary{
			Left:  c.expr(node.ChildByFieldName("left")),
			Op:    c.Text(node.ChildByFieldName("operator")),
			Right: c.expr(node.ChildByFieldName("right")),
		}
	case "instanceof_expression":
		return &ast.Binary{
			Left:  c.expr(node.ChildByFieldName("left")),
			Op:    "instanceof",
			Right: &ast.Unit{Kind: ast.UnitType, Value: c.typeText(node.ChildByFieldName("right"))},
		}
	case "ternary_expression":
		return &ast.Ternary{
			Cond: c.expr(node.ChildByFieldName("condition")),
			Then: c.expr(node.ChildByFieldName("consequence")),
			Else: c.expr(node.ChildByFieldName("alternative")),
		}
	case "unary_expression":
		return &ast.Prefix{
			Op: c.Text(node.ChildByFieldName("operator")),
			X:  c.expr(node.ChildByFieldName("operand")),
		}
	case "update_expression":
		return c.update(node)
	case "cast_expression":
		return &ast.Cast{
			Type: c.typeText(node.ChildByFieldName("type")),
			X:    c.expr(node.ChildByFieldName("value")),
		}
	case "lambda_expression":
		return c.lambda(node)
	case "field_access":
		return c.fieldAccess(node)
	case "array_access":
		return &ast.ArrayAccess{
			Array: c.expr(node.ChildByFieldName("array")),
			Index: c.expr(node.ChildByFieldName("index")),
		}
	case "method_invocation":
		return c.methodInvocation(node)
	case "object_creation_expression":
		return c.objectCreation(node)
	case "array_creation_expression":
		return c.arrayCreation(node)
	case "array_initializer":
		return c.arrayInit(node)
	case "class_literal":
		return &ast.Unit{Kind: ast.UnitClassReference, Value: c.typeText(firstNamed(node)), Pos: c.Position(node)}
	case "method_reference":
		return c.methodReference(node)
	case "explicit_constructor_invocation":
		return c.constructorInvocation(node)
	case "ERROR":
		c.Skipped++
	}
	return nil
}

func (c *ExtractionContext) update(node *sitter.Node) ast.Expr {
	var op string
	var operand *sitter.Node
	prefix := false
	for i := uint(0); i < node.ChildCount(); i++ {
		n := node.Child(i)
		if n.IsNamed() {
			operand = n
			continue
		}
		if t := c.Text(n); t == "++" || t == "--" {
			op = t
			prefix = operand == nil
		}
	}
	if prefix {
		return &ast.Prefix{Op: op, X: c.expr(operand)}
	}
	return &ast.Postfix{X: c.expr(operand), Op: op}
}

func (c *ExtractionContext) lambda(node *sitter.Node) ast.Expr {
	l := &ast.Lambda{}
	switch params := node.ChildByFieldName("parameters"); {
	case params == nil:
	case params.Kind() == "identifier":
		l.Params = []ast.Param{{Name: c.Text(params), Pos: c.Position(params)}}
	case params.Kind() == "inferred_parameters":
		for _, n := range namedChildren(params) {
			l.Params = append(l.Params, ast.Param{Name: c.Text(n), Pos: c.Position(n)})
		}
	default:
		l.Params = c.formalParams(params)
	}
	body := node.ChildByFieldName("body")
	if body != nil && body.Kind() == "block" {
		l.Block = c.block(body)
	} else {
		l.Expr = c.expr(body)
	}
	return l
}

// fieldAccess maps a.b to a "." binary. Outer.this becomes a qualified this
// unit.
func (c *ExtractionContext) fieldAccess(node *sitter.Node) ast.Expr {
	object := node.ChildByFieldName("object")
	field := node.ChildByFieldName("field")
	if field != nil && field.Kind() == "this" {
		return &ast.Unit{Kind: ast.UnitThis, Value: "this", Qualifier: normalizeRefName(c.Text(object)), Pos: c.Position(node)}
	}
	left := c.expr(object)
	// Outer.super.field
	if child(node, "", "super") != nil && object != nil && object.Kind() != "super" {
		left = &ast.Unit{Kind: ast.UnitSuper, Value: "super", Qualifier: normalizeRefName(c.Text(object))}
	}
	return ast.Dot(left, ast.Ident(c.Text(field)))
}

// methodInvocation maps obj.name(args) to a "." binary whose right side is
// the call, so the receiver flows from the left operand.
func (c *ExtractionContext) methodInvocation(node *sitter.Node) ast.Expr {
	name := node.ChildByFieldName("name")
	args := node.ChildByFieldName("arguments")
	call := &ast.MethodCall{
		Name: c.Text(name),
		Args: c.arguments(args),
		Pos:  c.withParens(c.Position(name), args),
	}
	if ta := node.ChildByFieldName("type_arguments"); ta != nil {
		for _, t := range namedChildren(ta) {
			call.TypeArgs = append(call.TypeArgs, c.typeText(t))
		}
	}
	object := node.ChildByFieldName("object")
	if object == nil {
		return call
	}
	left := c.expr(object)
	if left == nil {
		return call
	}
	return ast.Dot(left, call)
}

func (c *ExtractionContext) arguments(node *sitter.Node) []ast.Expr {
	var out []ast.Expr
	for _, n := range namedChildren(node) {
		if x := c.expr(n); x != nil {
			out = append(out, x)
		} else {
			// Keep arity intact for unsupported argument forms.
			out = append(out, &ast.Unit{Kind: ast.UnitNew, Value: c.Text(n)})
		}
	}
	return out
}

func (c *ExtractionContext) objectCreation(node *sitter.Node) ast.Expr {
	args := node.ChildByFieldName("arguments")
	inst := &ast.Instantiate{
		Type: c.typeText(node.ChildByFieldName("type")),
		Args: c.arguments(args),
		Pos:  c.withParens(c.Position(node), args),
	}
	// outer.new Inner()
	if first := node.Child(0); first != nil && first.IsNamed() {
		inst.Outer = c.expr(first)
	}
	if body := child(node, "", "class_body"); body != nil {
		inst.Body = c.classBody(body, nil)
		if inst.Body == nil {
			inst.Body = []ast.Stmt{}
		}
	}
	return inst
}

func (c *ExtractionContext) arrayCreation(node *sitter.Node) ast.Expr {
	ac := &ast.ArrayCreation{Type: c.typeText(node.ChildByFieldName("type"))}
	for _, d := range fieldChildren(node, "dimensions") {
		switch d.Kind() {
		case "dimensions_expr":
			ac.Dims = append(ac.Dims, c.expr(firstNamed(d)))
		case "dimensions":
			ac.ExtraDims += countDims(c.Text(d))
		}
	}
	if value := node.ChildByFieldName("value"); value != nil {
		if init, ok := c.arrayInit(value).(*ast.ArrayInit); ok {
			ac.Init = init
		}
	}
	return ac
}

func (c *ExtractionContext) arrayInit(node *sitter.Node) ast.Expr {
	init := &ast.ArrayInit{}
	for _, n := range namedChildren(node) {
		if x := c.expr(n); x != nil {
			init.Elements = append(init.Elements, x)
		}
	}
	return init
}

func (c *ExtractionContext) methodReference(node *sitter.Node) ast.Expr {
	u := &ast.Unit{Kind: ast.UnitMethodReference, Pos: c.Position(node)}
	text := c.Text(node)
	if i := strings.Index(text, "::"); i >= 0 {
		u.Qualifier = normalizeRefName(text[:i])
		u.Value = normalizeRefName(text[i+2:])
	}
	return u
}

// constructorInvocation maps this(...) and super(...) calls.
func (c *ExtractionContext) constructorInvocation(node *sitter.Node) ast.Expr {
	ctor := node.ChildByFieldName("constructor")
	args := node.ChildByFieldName("arguments")
	u := &ast.Unit{Kind: ast.UnitThisCall, Value: "this", Args: c.arguments(args), Pos: c.withParens(c.Position(ctor), args)}
	if ctor != nil && ctor.Kind() == "super" {
		u.Kind, u.Value = ast.UnitSuperCall, "super"
	}
	return u
}
