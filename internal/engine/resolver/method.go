// # internal/engine/resolver/method.go
package resolver

import (
	"iter"
	"strings"

	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"
)

// ResolveMethodCall finds the declaration call binds to. The call's
// receiver type, argument types and target are recorded on the node so
// later passes do not resolve them again. Unresolvable calls report false.
func (s *Session) ResolveMethodCall(ctx *Context, call *ast.MethodCall) (*ast.MethodDecl, bool) {
	m, _, ok := s.newResolution(false).resolveCall(ctx, call)
	if ok {
		observability.ResolutionsTotal.WithLabelValues("method", "resolved").Inc()
	} else {
		observability.ResolutionsTotal.WithLabelValues("method", "unresolved").Inc()
	}
	return m, ok
}

// callType is the erased return type of the method call binds to.
func (r *resolution) callType(ctx *Context, call *ast.MethodCall) (ast.QualifiedType, bool) {
	m, owner, ok := r.resolveCall(ctx, call)
	if !ok {
		return absent()
	}
	octx := r.s.ContextFor(owner)
	octx.Method = m
	qt, err := r.typeFromText(octx, m.ReturnType)
	if err != nil {
		return absent()
	}
	return qt, true
}

func (r *resolution) resolveCall(ctx *Context, call *ast.MethodCall) (*ast.MethodDecl, *ast.TypeDecl, bool) {
	if r.inFlight[call] || r.aborted {
		return nil, nil, false
	}
	r.inFlight[call] = true
	defer delete(r.inFlight, call)

	if call.Receiver != nil && call.Source == nil {
		mode, depth := r.receiverMode, r.binaryDepth
		r.receiverMode, r.binaryDepth = false, 0
		recv, ok := r.expr(ctx, call.Receiver)
		r.receiverMode, r.binaryDepth = mode, depth
		if !ok {
			return nil, nil, false
		}
		call.Source = recv.Ptr()
	}

	if call.ArgTypes == nil {
		mode, depth := r.receiverMode, r.binaryDepth
		r.receiverMode, r.binaryDepth = false, 0
		types := make([]*ast.QualifiedType, len(call.Args))
		for i, a := range call.Args {
			if qt, ok := r.expr(ctx, a); ok {
				types[i] = qt.Ptr()
			}
		}
		r.receiverMode, r.binaryDepth = mode, depth
		call.ArgTypes = types
	}

	var m *ast.MethodDecl
	var owner *ast.TypeDecl
	if call.Source != nil {
		m, owner = r.searchExplicit(call, *call.Source)
	} else {
		m, owner = r.searchImplicit(ctx, call)
	}
	if m == nil {
		return nil, nil, false
	}
	if call.Target == nil {
		call.Target = m
	}
	return m, owner, true
}

// searchExplicit looks in the receiver's type and its supertypes. Static
// accessibility does not apply to an explicit receiver.
func (r *resolution) searchExplicit(call *ast.MethodCall, src ast.QualifiedType) (*ast.MethodDecl, *ast.TypeDecl) {
	if src.Decl == nil || src.Dims > 0 {
		return nil, nil
	}
	return r.searchType(call, src.Decl, false)
}

// searchImplicit looks in the enclosing blocks, then in each enclosing type
// from the innermost outwards (with its supertypes), then in static imports.
func (r *resolution) searchImplicit(ctx *Context, call *ast.MethodCall) (*ast.MethodDecl, *ast.TypeDecl) {
	for sc := ctx.Scope; sc != nil; sc = sc.Parent {
		if sc.Block == nil {
			continue
		}
		for _, st := range sc.Block.Stmts {
			if m, ok := st.(*ast.MethodDecl); ok && r.applicable(call, m, ctx.Current, false, false) {
				return m, ctx.Current
			}
		}
	}

	// Once a static context or a static nested type separates the call from
	// an outer type, only that type's static methods are reachable. The
	// innermost type is exempt.
	barrier := ctx.Static
	for i, t := range ctx.Enclosing {
		if m, owner := r.searchType(call, t, i > 0 && barrier); m != nil {
			return m, owner
		}
		if t.ImplicitlyStatic() {
			barrier = true
		}
	}

	for _, imp := range ctx.Imports {
		if !imp.Static {
			continue
		}
		path := imp.Path
		if !imp.Wildcard {
			if ast.SimpleName(path) != call.Name {
				continue
			}
			path = path[:strings.LastIndex(path, ".")]
		}
		owner := r.s.lookupQualified(strings.Split(path, "."))
		if owner == nil {
			continue
		}
		if m, o := r.searchType(call, owner, true); m != nil {
			return m, o
		}
	}
	return nil, nil
}

// searchType checks decl and then its supertypes transitively.
func (r *resolution) searchType(call *ast.MethodCall, decl *ast.TypeDecl, staticOnly bool) (*ast.MethodDecl, *ast.TypeDecl) {
	for t := range r.s.walkSupertypes(decl) {
		inherited := t != decl
		for _, m := range t.Methods() {
			if r.applicable(call, m, t, inherited, staticOnly) {
				return m, t
			}
		}
	}
	return nil, nil
}

func (r *resolution) applicable(call *ast.MethodCall, m *ast.MethodDecl, owner *ast.TypeDecl, inherited, staticOnly bool) bool {
	if m.Name != call.Name || m.Constructor {
		return false
	}
	if inherited && m.Modifiers.Visibility == ast.Private {
		return false
	}
	if staticOnly && !m.Modifiers.Static.Bool() {
		return false
	}
	if len(m.Params) != len(call.Args) {
		return false
	}
	return r.paramsCompatible(call, m, owner)
}

// paramsCompatible checks each argument against the declared parameter.
// Unresolved arguments never match; literal null matches any reference.
func (r *resolution) paramsCompatible(call *ast.MethodCall, m *ast.MethodDecl, owner *ast.TypeDecl) bool {
	var octx *Context
	var tparams []ast.TypeParam
	if owner != nil {
		octx = r.s.ContextFor(owner)
		octx.Method = m
		tparams = octx.typeParams()
	} else {
		tparams = m.TypeParams
	}

	for i, p := range m.Params {
		declared := p.EffectiveType()
		_, declaredGenerics, _ := ast.SplitType(declared)
		pbase, pgen, pdims := ast.SplitType(SubstituteTypeParams(declared, tparams))

		if ast.IsNullLiteral(call.Args[i]) {
			if pdims == 0 && ast.IsPrimitive(pbase) {
				return false
			}
			continue
		}
		if i >= len(call.ArgTypes) || call.ArgTypes[i] == nil {
			return false
		}
		arg := *call.ArgTypes[i]

		if ast.IsPrimitive(pbase) {
			if arg.Dims != pdims {
				return false
			}
			if pdims == 0 && widens(arg.Name, pbase) {
				continue
			}
			if arg.Name != pbase {
				return false
			}
			continue
		}
		if arg.Dims != pdims {
			return false
		}
		if pgen != "" && arg.Generics != "" && pgen != arg.Generics && !mentionsTypeParam(declaredGenerics, tparams) {
			return false
		}
		if arg.IsPrimitive() {
			// Boxing: int into Integer, Object or Number.
			boxed := boxes[arg.Name]
			if pbase == "Object" || pbase == ast.SimpleName(boxed) || pbase == boxed || pbase == "Number" || pbase == "java.lang.Number" {
				continue
			}
			return false
		}
		if !r.referenceCompatible(octx, arg, pbase) {
			return false
		}
	}
	return true
}

func (r *resolution) referenceCompatible(octx *Context, arg ast.QualifiedType, pbase string) bool {
	if pbase == "Object" || pbase == ast.ObjectType {
		return true
	}
	if octx == nil {
		return arg.Name == pbase || ast.SimpleName(arg.Name) == pbase
	}
	param, err := r.s.ResolveQualifiedName(octx, pbase)
	if err != nil {
		// Unknown parameter type: fall back to comparing the written text.
		return arg.Name == pbase || ast.SimpleName(arg.Name) == ast.SimpleName(pbase)
	}
	if param.Decl != nil {
		return r.s.IsSubtype(arg.Name, param.Name)
	}
	return arg.Name == param.Name || r.s.IsSubtype(arg.Name, param.Name)
}

// walkSupertypes yields decl and then its locally declared supertypes,
// depth first in declaration order, each at most once.
func (s *Session) walkSupertypes(decl *ast.TypeDecl) iter.Seq[*ast.TypeDecl] {
	return func(yield func(*ast.TypeDecl) bool) {
		visited := make(map[*ast.TypeDecl]bool)
		var visit func(d *ast.TypeDecl, depth int) bool
		visit = func(d *ast.TypeDecl, depth int) bool {
			if visited[d] || depth > s.opts.MaxDepth {
				return true
			}
			visited[d] = true
			if !yield(d) {
				return false
			}
			for _, super := range s.supertypeDecls(d) {
				if !visit(super, depth+1) {
					return false
				}
			}
			return true
		}
		visit(decl, 0)
	}
}
