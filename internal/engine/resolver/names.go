// # internal/engine/resolver/names.go
package resolver

import (
	"path/filepath"
	"strings"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"
)

// ResolveQualifiedName maps a written type name to its qualified type from
// the given context. The first matching rule wins:
//
//  1. types nested (at any depth) in the current type
//  2. types nested in the file's top-level type
//  3. top-level types of the same package
//  4. imports, single-type and on-demand; an import naming the type but
//     matching nothing local resolves as external
//  5. package-less files in the same directory
//  6. implicit java.lang types, primitives and void
//  7. dotted names as written (external); bare names fail
//
// Generic arguments are stripped before lookup and returned in Generics.
// Results are memoized per session.
func (s *Session) ResolveQualifiedName(ctx *Context, name string) (ast.QualifiedType, error) {
	base, generics, dims := ast.SplitType(name)
	if base == "" {
		return ast.QualifiedType{}, errors.New(errors.CodeValidationError, "empty type name")
	}

	// Local classes depend on the block, not just the file and type, so they
	// are looked up before the memoized rules.
	if !strings.Contains(base, ".") {
		if d := ctx.localType(base); d != nil {
			qt := s.typeOf(d)
			qt.Dims, qt.Generics = dims, generics
			return qt, nil
		}
	}

	key := nameKey{file: ctx.File, current: ctx.Current, name: base}
	res, cached := s.names.GetOrLoad(key, func() nameResult {
		qt, err := s.resolveName(ctx, base)
		return nameResult{qt: qt, err: err}
	})
	if cached {
		observability.NameCacheHits.Inc()
	}
	if res.err != nil {
		observability.ResolutionsTotal.WithLabelValues("name", "unresolved").Inc()
		return ast.QualifiedType{}, res.err
	}
	observability.ResolutionsTotal.WithLabelValues("name", outcome(res.qt)).Inc()

	qt := res.qt
	qt.Dims, qt.Generics = dims, generics
	return qt, nil
}

func outcome(qt ast.QualifiedType) string {
	if qt.IsExternal() {
		return "external"
	}
	return "local"
}

func (s *Session) resolveName(ctx *Context, name string) (ast.QualifiedType, error) {
	segs := strings.Split(name, ".")

	if len(segs) == 1 && (ast.IsPrimitive(name) || name == "void") {
		return ast.External(name), nil
	}

	if ctx.Current != nil {
		if d := findNested(ctx.Current, segs); d != nil {
			return s.typeOf(d), nil
		}
	}
	if ctx.Root != nil && ctx.Root != ctx.Current {
		if d := findNested(ctx.Root, segs); d != nil {
			return s.typeOf(d), nil
		}
	}

	if ctx.Package != "" {
		for _, root := range s.cb.InPackage(ctx.Package) {
			if d := matchPath(root, segs); d != nil {
				return s.typeOf(d), nil
			}
		}
	}

	for _, imp := range ctx.Imports {
		if qt, ok := s.resolveImport(imp, segs); ok {
			return qt, nil
		}
	}

	if ctx.Package == "" && ctx.File != "" {
		for _, root := range s.cb.DefaultPackageIn(filepath.Dir(ctx.File)) {
			if d := matchPath(root, segs); d != nil {
				return s.typeOf(d), nil
			}
		}
	}

	if len(segs) == 1 && s.opts.ImplicitJavaLang && javaLang[name] {
		return ast.External("java.lang." + name), nil
	}

	if len(segs) > 1 {
		if d := s.lookupQualified(segs); d != nil {
			return s.typeOf(d), nil
		}
		return ast.External(name), nil
	}

	err := errors.Newf(errors.CodeUnresolvedName, "cannot resolve type %q", name)
	err = errors.AddContext(err, errors.CtxPath, ctx.File)
	return ast.QualifiedType{}, err
}

func (s *Session) resolveImport(imp ast.Import, segs []string) (ast.QualifiedType, bool) {
	if imp.Wildcard {
		for _, root := range s.cb.InPackage(imp.Path) {
			if d := matchPath(root, segs); d != nil {
				return s.typeOf(d), true
			}
		}
		// import pkg.Outer.*; brings Outer's member types into scope.
		if owner := s.lookupQualified(strings.Split(imp.Path, ".")); owner != nil {
			if d := descend(owner, segs); d != nil {
				return s.typeOf(d), true
			}
		}
		return ast.QualifiedType{}, false
	}

	if ast.SimpleName(imp.Path) != segs[0] {
		return ast.QualifiedType{}, false
	}
	if imp.Static && !startsUpper(segs[0]) {
		return ast.QualifiedType{}, false
	}

	if owner := s.lookupQualified(strings.Split(imp.Path, ".")); owner != nil {
		if d := descend(owner, segs[1:]); d != nil {
			return s.typeOf(d), true
		}
	}
	external := imp.Path
	if len(segs) > 1 {
		external += "$" + strings.Join(segs[1:], "$")
	}
	return ast.External(external), true
}

// lookupQualified finds a declaration from a dotted fully qualified path,
// trying every split between package and nested type names.
func (s *Session) lookupQualified(segs []string) *ast.TypeDecl {
	for k := len(segs) - 1; k >= 0; k-- {
		name := strings.Join(segs[k:], "$")
		if k > 0 {
			name = strings.Join(segs[:k], ".") + "." + name
		}
		if d, ok := s.byName[name]; ok {
			return d
		}
	}
	return nil
}

// findNested searches the member types of decl, shallowest first, for a
// type named segs[0] and then descends the remaining segments directly.
func findNested(decl *ast.TypeDecl, segs []string) *ast.TypeDecl {
	queue := decl.NestedTypes()
	for len(queue) > 0 {
		level := queue
		queue = nil
		for _, d := range level {
			if d.Name == segs[0] {
				if found := descend(d, segs[1:]); found != nil {
					return found
				}
			}
			queue = append(queue, d.NestedTypes()...)
		}
	}
	return nil
}

// matchPath matches segs against a top-level declaration and its members.
func matchPath(root *ast.TypeDecl, segs []string) *ast.TypeDecl {
	if root.Name != segs[0] {
		return nil
	}
	return descend(root, segs[1:])
}

func descend(decl *ast.TypeDecl, segs []string) *ast.TypeDecl {
	for _, seg := range segs {
		var next *ast.TypeDecl
		for _, n := range decl.NestedTypes() {
			if n.Name == seg {
				next = n
				break
			}
		}
		if next == nil {
			return nil
		}
		decl = next
	}
	return decl
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
