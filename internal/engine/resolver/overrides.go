// # internal/engine/resolver/overrides.go
package resolver

import (
	"context"
	"sort"
	"strings"
	"time"

	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
)

// MethodSignature renders owner#name(types): generic arguments are
// stripped and varargs are written as arrays.
func (s *Session) MethodSignature(owner *ast.TypeDecl, m *ast.MethodDecl) string {
	var b strings.Builder
	b.WriteString(s.QualifiedName(owner))
	b.WriteByte('#')
	b.WriteString(m.Name)
	b.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(ast.StripGenerics(p.EffectiveType()))
	}
	b.WriteByte(')')
	return b.String()
}

// MarkOverrides sweeps every method of every indexed type once and records
// the signatures of overriding methods. It returns the number marked.
func (s *Session) MarkOverrides(ctx context.Context) int {
	ctx, span := observability.Tracer.Start(ctx, "session.MarkOverrides")
	defer span.End()
	started := time.Now()
	s.BuildHierarchy(ctx)

	marked := 0
	for _, decl := range s.Types() {
		if ctx.Err() != nil {
			break
		}
		for _, m := range decl.Methods() {
			if !s.overridesSupertype(decl, m) {
				continue
			}
			sig := s.MethodSignature(decl, m)
			s.mu.Lock()
			if !s.overrides[sig] {
				s.overrides[sig] = true
				marked++
			}
			s.mu.Unlock()
		}
	}

	if ctx.Err() == nil {
		s.marked.Store(true)
	}
	observability.OverriddenMethods.Set(float64(len(s.OverriddenSignatures())))
	observability.AnalysisDuration.WithLabelValues("overrides").Observe(time.Since(started).Seconds())
	span.SetAttributes(attribute.Int("marked", marked))
	s.logger.Debug("override sweep finished", "marked", marked, "duration", time.Since(started))
	return marked
}

// IsOverridden reports whether the method with the given signature
// overrides a supertype method. Unknown signatures report false.
func (s *Session) IsOverridden(signature string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overrides[signature]
}

// OverriddenSignatures lists every marked signature in sorted order.
func (s *Session) OverriddenSignatures() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.overrides))
	for sig := range s.overrides {
		out = append(out, sig)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

func (s *Session) overridesSupertype(owner *ast.TypeDecl, m *ast.MethodDecl) bool {
	if m.Constructor || m.Modifiers.Static.Bool() || m.Modifiers.Visibility == ast.Private {
		return false
	}
	if m.HasAnnotation("Override") {
		return true
	}

	want := s.erasedParams(owner, m)
	for t := range s.walkSupertypes(owner) {
		if t == owner {
			continue
		}
		for _, candidate := range t.Methods() {
			if candidate.Name != m.Name || candidate.Constructor || len(candidate.Params) != len(m.Params) {
				continue
			}
			if !s.inheritable(owner, t, candidate) {
				continue
			}
			if sameErasure(want, s.erasedParams(t, candidate)) {
				return true
			}
		}
	}
	return false
}

// inheritable reports whether candidate, declared in super, is visible as
// an instance method from owner.
func (s *Session) inheritable(owner, super *ast.TypeDecl, candidate *ast.MethodDecl) bool {
	if candidate.Modifiers.Static.Bool() {
		return false
	}
	switch candidate.Modifiers.Visibility {
	case ast.Private:
		return false
	case ast.PackagePrivate, ast.VisibilityUnspecified:
		// Interface members are implicitly public.
		if super.Kind == ast.KindInterface {
			return true
		}
		return s.packageOf(owner) == s.packageOf(super)
	}
	return true
}

func (s *Session) packageOf(decl *ast.TypeDecl) string {
	if info, ok := s.types[decl]; ok {
		return info.root.Package
	}
	return decl.Package
}

// erasedParams renders each parameter as its erased type plus array
// suffix. Types declared in the codebase are rendered fully qualified,
// resolved in the owner's context, so a.List and b.List differ. External
// and unresolved types fall back to the simple name, so List<String> and
// java.util.List<String> compare equal. A bare type parameter of the owner
// is rendered as "*": the subtype may bind it to anything.
func (s *Session) erasedParams(owner *ast.TypeDecl, m *ast.MethodDecl) []string {
	ctx := s.ContextFor(owner)
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		base, _, dims := ast.SplitType(p.EffectiveType())
		suffix := strings.Repeat("[]", dims)
		switch {
		case isTypeParam(base, owner.TypeParams):
			out[i] = "*" + suffix
		case isTypeParam(base, m.TypeParams):
			erased, _, _ := ast.SplitType(SubstituteTypeParams(base, m.TypeParams))
			out[i] = s.erasedName(ctx, erased) + suffix
		default:
			out[i] = s.erasedName(ctx, base) + suffix
		}
	}
	return out
}

func (s *Session) erasedName(ctx *Context, base string) string {
	if qt, err := s.ResolveQualifiedName(ctx, base); err == nil && qt.Decl != nil {
		return qt.Name
	}
	return ast.SimpleName(base)
}

func isTypeParam(name string, params []ast.TypeParam) bool {
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

// sameErasure compares a subtype parameter list against a supertype one,
// where "*" in the supertype matches any type with the same dims.
func sameErasure(sub, super []string) bool {
	if len(sub) != len(super) {
		return false
	}
	for i := range sub {
		if strings.HasPrefix(super[i], "*") {
			if strings.Count(sub[i], "[]") != strings.Count(super[i], "[]") {
				return false
			}
			continue
		}
		if sub[i] != super[i] {
			return false
		}
	}
	return true
}

// MethodRef pairs a method with the type that declares it.
type MethodRef struct {
	Owner  *ast.TypeDecl
	Method *ast.MethodDecl
}

// FindMethod looks a method up by signature. A signature without a
// parameter list, such as pkg.A#run, matches when the name is unambiguous.
func (s *Session) FindMethod(signature string) (MethodRef, bool) {
	owner, rest, ok := strings.Cut(signature, "#")
	if !ok {
		return MethodRef{}, false
	}
	decl, ok := s.TypeByName(owner)
	if !ok {
		return MethodRef{}, false
	}
	var byName []MethodRef
	for _, m := range decl.Methods() {
		if s.MethodSignature(decl, m) == signature {
			return MethodRef{Owner: decl, Method: m}, true
		}
		if m.Name == rest {
			byName = append(byName, MethodRef{Owner: decl, Method: m})
		}
	}
	if len(byName) == 1 {
		return byName[0], true
	}
	return MethodRef{}, false
}

// Overriders returns the methods of local subtypes that override target,
// ordered by owner name.
func (s *Session) Overriders(target MethodRef) []MethodRef {
	m := target.Method
	if m.Constructor || m.Modifiers.Static.Bool() || m.Modifiers.Visibility == ast.Private {
		return nil
	}
	want := s.erasedParams(target.Owner, m)
	var out []MethodRef
	for _, decl := range s.Types() {
		if decl == target.Owner || !s.inherits(decl, target.Owner) {
			continue
		}
		if !s.inheritable(decl, target.Owner, m) {
			continue
		}
		for _, candidate := range decl.Methods() {
			if candidate.Name != m.Name || candidate.Constructor || candidate.Modifiers.Static.Bool() {
				continue
			}
			if sameErasure(s.erasedParams(decl, candidate), want) {
				out = append(out, MethodRef{Owner: decl, Method: candidate})
			}
		}
	}
	return out
}

func (s *Session) inherits(sub, super *ast.TypeDecl) bool {
	for t := range s.walkSupertypes(sub) {
		if t == super {
			return true
		}
	}
	return false
}
