// # internal/engine/resolver/expression.go
package resolver

import (
	"strings"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"
)

// resolution carries the state of one top-level resolution request. It is
// never shared between goroutines.
type resolution struct {
	s            *Session
	depth        int
	binaryDepth  int
	receiverMode bool
	aborted      bool
	inFlight     map[*ast.MethodCall]bool
}

func (s *Session) newResolution(receiverMode bool) *resolution {
	return &resolution{s: s, receiverMode: receiverMode, inFlight: make(map[*ast.MethodCall]bool)}
}

// ResolveExpressionType computes the static type of e. Absence is reported
// through ok and is not an error.
func (s *Session) ResolveExpressionType(ctx *Context, e ast.Expr) (ast.QualifiedType, bool) {
	qt, ok := s.newResolution(false).expr(ctx, e)
	countOutcome("expression", qt, ok)
	return qt, ok
}

// ResolveReceiverType resolves e for method lookup: the outermost member
// access yields the type of its left operand instead of the member.
func (s *Session) ResolveReceiverType(ctx *Context, e ast.Expr) (ast.QualifiedType, bool) {
	qt, ok := s.newResolution(true).expr(ctx, e)
	countOutcome("receiver", qt, ok)
	return qt, ok
}

func countOutcome(component string, qt ast.QualifiedType, ok bool) {
	if !ok {
		observability.ResolutionsTotal.WithLabelValues(component, "absent").Inc()
		return
	}
	observability.ResolutionsTotal.WithLabelValues(component, outcome(qt)).Inc()
}

func absent() (ast.QualifiedType, bool) { return ast.QualifiedType{}, false }

func (r *resolution) expr(ctx *Context, e ast.Expr) (ast.QualifiedType, bool) {
	if e == nil || r.aborted {
		return absent()
	}
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.s.opts.MaxDepth {
		r.aborted = true
		err := errors.New(errors.CodeStructuralLimit, "expression nesting exceeds resolver depth")
		r.s.recordFailure("expression", ctx.File, "", errors.AddContext(err, errors.CtxDepth, r.depth))
		return absent()
	}

	switch x := e.(type) {
	case *ast.ArrayAccess:
		arr, ok := r.expr(ctx, x.Array)
		if !ok || arr.Dims == 0 {
			return absent()
		}
		return arr.WithDims(arr.Dims - 1), true

	case *ast.ArrayCreation:
		elem, err := r.typeFromText(ctx, x.Type)
		if err != nil {
			r.s.recordFailure("expression", ctx.File, x.Type, err)
			return absent()
		}
		return elem.WithDims(elem.Dims + len(x.Dims) + x.ExtraDims), true

	case *ast.ArrayInit:
		if len(x.Elements) == 0 {
			return absent()
		}
		first, ok := r.expr(ctx, x.Elements[0])
		if !ok {
			return absent()
		}
		return first.WithDims(first.Dims + 1), true

	case *ast.Binary:
		return r.binary(ctx, x)

	case *ast.Cast:
		qt, err := r.typeFromText(ctx, x.Type)
		if err != nil {
			r.s.recordFailure("expression", ctx.File, x.Type, err)
			return absent()
		}
		return qt, true

	case *ast.Instantiate:
		return r.instantiate(ctx, x)

	case *ast.Lambda:
		return ast.External(LambdaType), true

	case *ast.MethodCall:
		return r.callType(ctx, x)

	case *ast.Paren:
		return r.expr(ctx, x.X)

	case *ast.Postfix:
		return r.expr(ctx, x.X)

	case *ast.Prefix:
		return r.expr(ctx, x.X)

	case *ast.Ternary:
		thenNull, elseNull := ast.IsNullLiteral(x.Then), ast.IsNullLiteral(x.Else)
		switch {
		case thenNull && elseNull:
			return ast.External(ast.ObjectType), true
		case thenNull:
			return r.expr(ctx, x.Else)
		}
		// The true branch decides, even when the branches differ.
		return r.expr(ctx, x.Then)

	case *ast.Unit:
		return r.unit(ctx, x)
	}
	return absent()
}

var booleanOps = map[string]bool{
	"&&": true, "||": true, "==": true, "!=": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"instanceof": true,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true, ">>>=": true,
}

func (r *resolution) binary(ctx *Context, x *ast.Binary) (ast.QualifiedType, bool) {
	r.binaryDepth++
	defer func() { r.binaryDepth-- }()

	switch {
	case x.Op == ".":
		return r.member(ctx, x)
	case booleanOps[x.Op]:
		return ast.External("boolean"), true
	case assignOps[x.Op]:
		return r.expr(ctx, x.Left)
	}

	left, ok := r.expr(ctx, x.Left)
	if !ok {
		return absent()
	}
	right, ok := r.expr(ctx, x.Right)
	if !ok {
		return absent()
	}
	return arithmetic(left, right), true
}

// arithmetic types a numeric or string binary operation. Promotion only
// decides which operand wins; the result is always one of the operands.
func arithmetic(left, right ast.QualifiedType) ast.QualifiedType {
	if left.Dims == 0 && left.Name == ast.StringType {
		return left
	}
	if right.Dims == 0 && right.Name == ast.StringType {
		return right
	}
	if promote(left.Name) == promote(right.Name) {
		return left
	}
	if left.Dims == 0 && right.Dims == 0 {
		switch {
		case left.Name == "long" && right.Name == "int":
			return left
		case left.Name == "int" && right.Name == "long":
			return right
		}
	}
	// Other mixed pairs: the wider known side wins.
	if numericRank[promote(right.Name)] > numericRank[promote(left.Name)] {
		return right
	}
	return left
}

// member resolves left.right. The outermost dot in receiver mode stops at
// the left operand.
func (r *resolution) member(ctx *Context, x *ast.Binary) (ast.QualifiedType, bool) {
	outermost := r.binaryDepth == 1

	left, ok := r.expr(ctx, x.Left)
	if !ok {
		// a.b.C written as a chain of names can only be a qualified type.
		if dotted, isName := dottedName(x); isName {
			qt, err := r.s.ResolveQualifiedName(ctx, dotted)
			if err == nil && (qt.Decl != nil || startsUpper(ast.SimpleName(dotted))) {
				return qt, true
			}
		}
		return absent()
	}
	if outermost && r.receiverMode {
		return left, true
	}

	switch rt := x.Right.(type) {
	case *ast.MethodCall:
		if rt.Source == nil {
			rt.Source = left.Ptr()
		}
		return r.callType(ctx, rt)
	case *ast.Unit:
		switch rt.Kind {
		case ast.UnitIdentifier:
			return r.fieldOf(left, rt.Value)
		case ast.UnitThis:
			return left, true
		}
	case *ast.Instantiate:
		if left.Decl != nil {
			if d := descend(left.Decl, strings.Split(ast.StripGenerics(rt.Type), ".")); d != nil {
				return r.s.typeOf(d), true
			}
		}
	}
	return absent()
}

// fieldOf types the field (or member type) name of owner.
func (r *resolution) fieldOf(owner ast.QualifiedType, name string) (ast.QualifiedType, bool) {
	if owner.Dims > 0 {
		if name == "length" {
			return ast.External("int"), true
		}
		return absent()
	}
	if owner.Decl == nil {
		return absent()
	}
	if qt, ok := r.fieldType(owner.Decl, name); ok {
		return qt, true
	}
	for t := range r.s.walkSupertypes(owner.Decl) {
		for _, n := range t.NestedTypes() {
			if n.Name == name {
				return r.s.typeOf(n), true
			}
		}
	}
	return absent()
}

// fieldType looks name up among the fields and enum constants of decl and
// then of its supertypes.
func (r *resolution) fieldType(decl *ast.TypeDecl, name string) (ast.QualifiedType, bool) {
	for t := range r.s.walkSupertypes(decl) {
		for _, member := range t.Body {
			switch m := member.(type) {
			case *ast.VarDecl:
				if m.Name != name {
					continue
				}
				qt, err := r.typeFromText(r.s.ContextFor(t), m.Type)
				if err != nil {
					return absent()
				}
				return qt, true
			case *ast.EnumConstant:
				if m.Name == name {
					return r.s.typeOf(t), true
				}
			}
		}
	}
	return absent()
}

func (r *resolution) instantiate(ctx *Context, x *ast.Instantiate) (ast.QualifiedType, bool) {
	if x.Outer != nil {
		outer, ok := r.expr(ctx, x.Outer)
		if !ok || outer.Decl == nil {
			return absent()
		}
		if d := descend(outer.Decl, strings.Split(ast.StripGenerics(x.Type), ".")); d != nil {
			return r.s.typeOf(d), true
		}
		return absent()
	}
	qt, err := r.typeFromText(ctx, x.Type)
	if err != nil {
		r.s.recordFailure("expression", ctx.File, x.Type, err)
		return absent()
	}
	if qt.Generics == "<>" {
		qt.Generics = ""
	}
	return qt.WithDims(0), true
}

func (r *resolution) unit(ctx *Context, u *ast.Unit) (ast.QualifiedType, bool) {
	switch u.Kind {
	case ast.UnitLiteral:
		return ast.External(literalType(u.Value)), true

	case ast.UnitIdentifier:
		return r.identifier(ctx, u.Value)

	case ast.UnitThis, ast.UnitThisCall:
		if u.Qualifier != "" {
			qt, err := r.s.ResolveQualifiedName(ctx, u.Qualifier)
			if err != nil {
				return absent()
			}
			return qt, true
		}
		if ctx.Current == nil {
			return absent()
		}
		return r.s.typeOf(ctx.Current), true

	case ast.UnitSuper, ast.UnitSuperCall:
		if ctx.Current == nil {
			return absent()
		}
		super := ctx.Current.Superclass()
		if super == "" {
			return absent()
		}
		qt, err := r.s.ResolveQualifiedName(r.s.ContextFor(ctx.Current), super)
		if err != nil {
			return absent()
		}
		return qt, true

	case ast.UnitType:
		qt, err := r.s.ResolveQualifiedName(ctx.topLevel(), u.Value)
		if err != nil {
			return absent()
		}
		return qt, true
	}
	// Class and method references, bare new and call units stay unresolved.
	return absent()
}

// identifier looks a simple name up as a variable, then as a field of the
// current type, its supertypes and the enclosing types, then as a type.
func (r *resolution) identifier(ctx *Context, name string) (ast.QualifiedType, bool) {
	if typ, init, ok := ctx.lookupVariable(name); ok {
		if typ == "var" {
			return r.expr(ctx, init)
		}
		qt, err := r.typeFromText(ctx, typ)
		if err != nil {
			return absent()
		}
		return qt, true
	}
	for _, t := range ctx.Enclosing {
		if qt, ok := r.fieldType(t, name); ok {
			return qt, true
		}
	}
	qt, err := r.s.ResolveQualifiedName(ctx, name)
	if err != nil {
		return absent()
	}
	return qt, true
}

// typeFromText resolves a written type: type parameters are erased,
// primitives stay as they are and everything else goes through the
// qualified-name resolver. Array dimensions and generics are carried over.
func (r *resolution) typeFromText(ctx *Context, typ string) (ast.QualifiedType, error) {
	typ = SubstituteTypeParams(typ, ctx.typeParams())
	base, generics, dims := ast.SplitType(typ)
	if ast.IsPrimitive(base) || base == "void" {
		return ast.QualifiedType{Name: base, Dims: dims}, nil
	}
	if base == "Object" {
		// Erased type parameters land here; avoid a lookup per use.
		return ast.QualifiedType{Name: ast.ObjectType, Dims: dims, Generics: generics}, nil
	}
	qt, err := r.s.ResolveQualifiedName(ctx, typ)
	if err != nil {
		return ast.QualifiedType{}, err
	}
	return qt, nil
}

// dottedName renders a member-access chain of plain identifiers.
func dottedName(e ast.Expr) (string, bool) {
	switch x := e.(type) {
	case *ast.Unit:
		if x.Kind == ast.UnitIdentifier || x.Kind == ast.UnitType {
			return x.Value, true
		}
	case *ast.Binary:
		if x.Op != "." {
			return "", false
		}
		left, ok := dottedName(x.Left)
		if !ok {
			return "", false
		}
		right, ok := dottedName(x.Right)
		if !ok {
			return "", false
		}
		return left + "." + right, true
	}
	return "", false
}
