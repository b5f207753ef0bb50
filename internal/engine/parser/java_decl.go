package parser

import (
	"strings"

	"codequery/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var typeKinds = map[string]ast.Kind{
	"class_declaration":           ast.KindClass,
	"record_declaration":          ast.KindClass,
	"interface_declaration":       ast.KindInterface,
	"enum_declaration":            ast.KindEnum,
	"annotation_type_declaration": ast.KindAnnotation,
}

// typeDecl builds a type declaration with its members. Records become
// classes extending Record whose components are private final fields.
func (c *ExtractionContext) typeDecl(node *sitter.Node) *ast.TypeDecl {
	kind, ok := typeKinds[node.Kind()]
	if !ok {
		return nil
	}
	mods, annots := c.modifiers(node)
	name := node.ChildByFieldName("name")
	d := &ast.TypeDecl{
		Kind:        kind,
		Name:        c.Text(name),
		Modifiers:   mods,
		Annotations: annots,
		TypeParams:  c.typeParams(child(node, "type_parameters", "type_parameters")),
		Pos:         c.Position(name),
	}

	if sc := child(node, "superclass", "superclass"); sc != nil {
		d.Extends = c.typeList(sc)
	}
	if ext := child(node, "", "extends_interfaces"); ext != nil {
		d.Extends = append(d.Extends, c.typeList(ext)...)
	}
	if ifs := child(node, "interfaces", "super_interfaces"); ifs != nil {
		d.Implements = c.typeList(ifs)
	}

	if node.Kind() == "record_declaration" {
		d.Extends = []string{"Record"}
		d.Modifiers.Final = ast.True
		for _, p := range c.formalParams(child(node, "parameters", "formal_parameters")) {
			mods := ast.ParseModifiers([]string{"private", "final"})
			d.Body = append(d.Body, &ast.VarDecl{Modifiers: mods, Annotations: p.Annotations, Type: p.Type, Name: p.Name, Field: true, Pos: p.Pos})
		}
	}

	d.Body = append(d.Body, c.classBody(node.ChildByFieldName("body"), d)...)
	return d
}

// typeList collects the types under a superclass, super_interfaces,
// extends_interfaces, throws or type_list node.
func (c *ExtractionContext) typeList(node *sitter.Node) []string {
	var out []string
	for _, n := range namedChildren(node) {
		if n.Kind() == "type_list" {
			out = append(out, c.typeList(n)...)
			continue
		}
		if t := c.typeText(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (c *ExtractionContext) typeParams(node *sitter.Node) []ast.TypeParam {
	var out []ast.TypeParam
	for _, n := range namedChildren(node) {
		if n.Kind() != "type_parameter" {
			continue
		}
		var tp ast.TypeParam
		for _, part := range namedChildren(n) {
			switch part.Kind() {
			case "type_identifier", "identifier":
				tp.Name = c.Text(part)
			case "type_bound":
				tp.Bounds = c.typeList(part)
			}
		}
		if tp.Name != "" {
			out = append(out, tp)
		}
	}
	return out
}

// modifiers reads the modifiers child of a declaration. Declarations
// without one get the fully specified package-private default.
func (c *ExtractionContext) modifiers(node *sitter.Node) (ast.Modifiers, []ast.Annotation) {
	mods := child(node, "", "modifiers")
	if mods == nil {
		return ast.ParseModifiers(nil), nil
	}
	var keywords []string
	var annots []ast.Annotation
	for i := uint(0); i < mods.ChildCount(); i++ {
		n := mods.Child(i)
		switch n.Kind() {
		case "marker_annotation", "annotation":
			annots = append(annots, ast.Annotation{
				Name: normalizeRefName(c.Text(n.ChildByFieldName("name"))),
				Args: c.Text(n.ChildByFieldName("arguments")),
			})
		default:
			keywords = append(keywords, c.Text(n))
		}
	}
	return ast.ParseModifiers(keywords), annots
}

func (c *ExtractionContext) classBody(body *sitter.Node, owner *ast.TypeDecl) []ast.Stmt {
	var out []ast.Stmt
	for _, n := range namedChildren(body) {
		switch n.Kind() {
		case "field_declaration", "constant_declaration":
			for _, v := range c.varDecls(n, true) {
				out = append(out, v)
			}
		case "method_declaration", "annotation_type_element_declaration":
			out = append(out, c.methodDecl(n))
		case "constructor_declaration", "compact_constructor_declaration":
			out = append(out, c.constructorDecl(n))
		case "class_declaration", "interface_declaration", "enum_declaration",
			"annotation_type_declaration", "record_declaration":
			if d := c.typeDecl(n); d != nil {
				out = append(out, d)
			}
		case "block":
			out = append(out, &ast.Initializer{Body: c.block(n)})
		case "static_initializer":
			out = append(out, &ast.Initializer{Static: true, Body: c.block(child(n, "", "block"))})
		case "enum_constant":
			out = append(out, c.enumConstant(n))
		case "enum_body_declarations":
			out = append(out, c.classBody(n, owner)...)
		case "ERROR":
			c.Skipped++
		}
	}
	if owner != nil && (owner.Kind == ast.KindInterface || owner.Kind == ast.KindAnnotation) {
		implicitInterfaceModifiers(out)
	}
	return out
}

// implicitInterfaceModifiers applies the modifiers interface members carry
// without writing them: public members, constant fields, abstract methods.
func implicitInterfaceModifiers(members []ast.Stmt) {
	for _, m := range members {
		switch x := m.(type) {
		case *ast.MethodDecl:
			if x.Modifiers.Visibility == ast.PackagePrivate {
				x.Modifiers.Visibility = ast.Public
			}
			if x.Body == nil && !x.Modifiers.Static.Bool() && !x.Modifiers.Default.Bool() {
				x.Modifiers.Abstract = ast.True
			}
		case *ast.VarDecl:
			if x.Modifiers.Visibility == ast.PackagePrivate {
				x.Modifiers.Visibility = ast.Public
			}
			x.Modifiers.Static = ast.True
			x.Modifiers.Final = ast.True
		case *ast.TypeDecl:
			if x.Modifiers.Visibility == ast.PackagePrivate {
				x.Modifiers.Visibility = ast.Public
			}
			x.Modifiers.Static = ast.True
		}
	}
}

func (c *ExtractionContext) enumConstant(node *sitter.Node) *ast.EnumConstant {
	name := node.ChildByFieldName("name")
	ec := &ast.EnumConstant{Name: c.Text(name), Pos: c.Position(name)}
	if args := node.ChildByFieldName("arguments"); args != nil {
		ec.Args = c.arguments(args)
		ec.Pos = c.withParens(ec.Pos, args)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		ec.Body = c.classBody(body, nil)
	}
	return ec
}

func (c *ExtractionContext) methodDecl(node *sitter.Node) *ast.MethodDecl {
	mods, annots := c.modifiers(node)
	name := node.ChildByFieldName("name")
	params := child(node, "parameters", "formal_parameters")
	ret := c.typeText(node.ChildByFieldName("type"))
	if dims := node.ChildByFieldName("dimensions"); dims != nil {
		ret += strings.Repeat("[]", countDims(c.Text(dims)))
	}
	m := &ast.MethodDecl{
		Name:        c.Text(name),
		Modifiers:   mods,
		Annotations: annots,
		TypeParams:  c.typeParams(child(node, "type_parameters", "type_parameters")),
		ReturnType:  ret,
		Params:      c.formalParams(params),
		Throws:      c.typeList(child(node, "", "throws")),
		Pos:         c.withParens(c.Position(name), params),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = c.block(body)
	}
	return m
}

func (c *ExtractionContext) constructorDecl(node *sitter.Node) *ast.MethodDecl {
	mods, annots := c.modifiers(node)
	name := node.ChildByFieldName("name")
	params := child(node, "parameters", "formal_parameters")
	m := &ast.MethodDecl{
		Name:        c.Text(name),
		Modifiers:   mods,
		Annotations: annots,
		TypeParams:  c.typeParams(child(node, "type_parameters", "type_parameters")),
		Params:      c.formalParams(params),
		Throws:      c.typeList(child(node, "", "throws")),
		Constructor: true,
		Pos:         c.withParens(c.Position(name), params),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = c.block(body)
	}
	return m
}

func (c *ExtractionContext) formalParams(node *sitter.Node) []ast.Param {
	var out []ast.Param
	for _, n := range namedChildren(node) {
		switch n.Kind() {
		case "formal_parameter":
			mods, annots := c.modifiers(n)
			typ := c.typeText(n.ChildByFieldName("type"))
			if dims := n.ChildByFieldName("dimensions"); dims != nil {
				typ += strings.Repeat("[]", countDims(c.Text(dims)))
			}
			out = append(out, ast.Param{
				Type:        typ,
				Name:        c.Text(n.ChildByFieldName("name")),
				Final:       mods.Final.Bool(),
				Annotations: annots,
				Pos:         c.Position(n),
			})
		case "spread_parameter":
			mods, annots := c.modifiers(n)
			p := ast.Param{Varargs: true, Final: mods.Final.Bool(), Annotations: annots, Pos: c.Position(n)}
			for _, part := range namedChildren(n) {
				switch part.Kind() {
				case "modifiers":
				case "variable_declarator":
					p.Name = c.Text(part.ChildByFieldName("name"))
				default:
					if p.Type == "" {
						p.Type = c.typeText(part)
					}
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// varDecls expands a field or local declaration into one VarDecl per
// declarator; dimensions written on the name are folded into the type.
func (c *ExtractionContext) varDecls(node *sitter.Node, field bool) []*ast.VarDecl {
	mods, annots := c.modifiers(node)
	typ := c.typeText(node.ChildByFieldName("type"))
	var out []*ast.VarDecl
	for _, decl := range fieldChildren(node, "declarator") {
		name := decl.ChildByFieldName("name")
		v := &ast.VarDecl{
			Modifiers:   mods,
			Annotations: annots,
			Type:        typ,
			Name:        c.Text(name),
			Field:       field,
			Pos:         c.Position(name),
		}
		if dims := decl.ChildByFieldName("dimensions"); dims != nil {
			v.Type += strings.Repeat("[]", countDims(c.Text(dims)))
		}
		if value := decl.ChildByFieldName("value"); value != nil {
			v.Init = c.expr(value)
		}
		out = append(out, v)
	}
	return out
}

// typeText renders a type node as written, minus type annotations, with
// whitespace collapsed.
func (c *ExtractionContext) typeText(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "annotated_type":
		var parts []string
		for _, n := range namedChildren(node) {
			if n.Kind() != "marker_annotation" && n.Kind() != "annotation" {
				parts = append(parts, c.typeText(n))
			}
		}
		return strings.Join(parts, "")
	case "modifiers", "marker_annotation", "annotation":
		return ""
	}
	return compactType(c.Text(node))
}

func countDims(text string) int {
	return strings.Count(text, "[")
}
