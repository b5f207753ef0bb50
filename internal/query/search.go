package query

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/engine/resolver"
	"codequery/internal/shared/observability"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine answers queries against one analysis session.
type Engine struct {
	session *resolver.Session
	workers int
	logger  *slog.Logger
}

func NewEngine(s *resolver.Session, workers int) *Engine {
	if workers <= 0 {
		workers = s.Options().Workers
	}
	return &Engine{session: s, workers: workers, logger: s.Logger()}
}

// Execute parses raw and runs it.
func (e *Engine) Execute(ctx context.Context, raw string) (Result, error) {
	q, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	return e.Run(ctx, q)
}

func (e *Engine) Run(ctx context.Context, q Query) (Result, error) {
	res := Result{Query: q}
	var err error
	switch q.Action {
	case ActionSearch:
		res.Matches, err = e.Search(ctx, q)
	case ActionRename, ActionParameters:
		res.Changes, err = e.Refactor(ctx, q)
	default:
		err = errors.Newf(errors.CodeNotSupported, "unsupported action %q", q.Action)
	}
	return res, err
}

// Search returns every declaration matching q, ordered by file and line.
func (e *Engine) Search(ctx context.Context, q Query) ([]Match, error) {
	ctx, span := observability.Tracer.Start(ctx, "query.Search",
		trace.WithAttributes(attribute.String("subject", q.Subject.String())))
	defer span.End()
	observability.QueriesTotal.WithLabelValues(string(ActionSearch)).Inc()

	from, err := compileGlobs(q.From)
	if err != nil {
		return nil, err
	}
	if q.Overrides.Specified() && !e.session.OverridesMarked() {
		e.session.MarkOverrides(ctx)
	}
	if len(q.Contains) > 0 && !e.session.CallsAnnotated() {
		if _, err := e.session.AnnotateCalls(ctx); err != nil {
			return nil, err
		}
	}

	subtypes := e.subtypeTargets(q.Subtype)
	var out []Match
	for _, decl := range e.session.Types() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := e.session.ContextFor(decl).File
		if decl.Name == "" || !matchesAny(from, file) {
			continue
		}
		switch q.Subject {
		case SubjectType:
			if e.matchType(q, decl, subtypes) {
				out = append(out, e.typeMatch(decl, file))
			}
		case SubjectMethod:
			for _, m := range decl.Methods() {
				if e.matchMethod(q, decl, m) {
					out = append(out, e.methodMatch(decl, m, file))
				}
			}
		case SubjectField:
			for _, v := range decl.Fields() {
				if q.Variable.Matches(v.Descriptor()) && e.containsCalls(v.Init, q.Contains) {
					out = append(out, Match{
						Subject: SubjectField,
						Kind:    "field",
						Name:    e.session.QualifiedName(decl) + "." + v.Name,
						File:    file,
						Line:    v.Pos.Line,
						Column:  v.Pos.Column,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Name < out[j].Name
	})
	span.SetAttributes(attribute.Int("matches", len(out)))
	e.logger.Debug("search finished", "query", q.Raw, "matches", len(out))
	return out, nil
}

func (e *Engine) matchType(q Query, decl *ast.TypeDecl, subtypes []string) bool {
	if !q.Type.Matches(decl.Descriptor()) {
		return false
	}
	if q.Subtype != "" {
		name := e.session.QualifiedName(decl)
		found := false
		for _, super := range subtypes {
			if name != super && e.session.IsSubtype(name, super) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(q.Contains) == 0 || e.containsCalls(decl, q.Contains)
}

// subtypeTargets expands a written supertype into the hierarchy names it
// may stand for: itself and every local type with that simple name.
func (e *Engine) subtypeTargets(name string) []string {
	if name == "" {
		return nil
	}
	out := []string{name}
	if _, ok := e.session.TypeByName(name); ok {
		return out
	}
	for _, decl := range e.session.Types() {
		qn := e.session.QualifiedName(decl)
		if decl.Name == name || strings.HasSuffix(qn, "."+name) {
			out = append(out, qn)
		}
	}
	if !strings.Contains(name, ".") {
		out = append(out, "java.lang."+name)
	}
	return out
}

func (e *Engine) matchMethod(q Query, owner *ast.TypeDecl, m *ast.MethodDecl) bool {
	want := q.Method
	params := want.Parameters
	want.Parameters = nil
	if !want.Matches(m.Descriptor()) {
		return false
	}
	if params != nil && !sameErasedTypes(params, m.ParamTypes()) {
		return false
	}
	if q.Overrides.Specified() {
		if e.session.IsOverridden(e.session.MethodSignature(owner, m)) != q.Overrides.Bool() {
			return false
		}
	}
	if len(q.Contains) > 0 && (m.Body == nil || !e.containsCalls(m.Body, q.Contains)) {
		return false
	}
	return true
}

// sameErasedTypes compares parameter lists ignoring generic arguments and
// package qualifiers.
func sameErasedTypes(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if eraseType(want[i]) != eraseType(got[i]) {
			return false
		}
	}
	return true
}

func eraseType(t string) string {
	base, _, dims := ast.SplitType(t)
	return ast.SimpleName(base) + strings.Repeat("[]", dims)
}

// containsCalls reports whether n calls every entry of wanted, each given
// as a bare method name or as a target signature.
func (e *Engine) containsCalls(n ast.Node, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	if n == nil {
		return false
	}
	calls := ast.MethodCalls(n)
	for _, w := range wanted {
		found := false
		for _, c := range calls {
			if e.callMatches(c, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (e *Engine) callMatches(c *ast.MethodCall, want string) bool {
	if !strings.Contains(want, "#") {
		return c.Name == want
	}
	if c.Target == nil {
		return false
	}
	owner, ok := e.session.Owner(c.Target)
	if !ok {
		return false
	}
	sig := e.session.MethodSignature(owner, c.Target)
	if sig == want {
		return true
	}
	head, _, _ := strings.Cut(sig, "(")
	return !strings.Contains(want, "(") && head == want
}

func (e *Engine) typeMatch(decl *ast.TypeDecl, file string) Match {
	return Match{
		Subject: SubjectType,
		Kind:    decl.Kind.String(),
		Name:    e.session.QualifiedName(decl),
		File:    file,
		Line:    decl.Pos.Line,
		Column:  decl.Pos.Column,
	}
}

func (e *Engine) methodMatch(owner *ast.TypeDecl, m *ast.MethodDecl, file string) Match {
	kind := "method"
	if m.Constructor {
		kind = "constructor"
	}
	sig := e.session.MethodSignature(owner, m)
	return Match{
		Subject:   SubjectMethod,
		Kind:      kind,
		Name:      e.session.QualifiedName(owner) + "." + m.Name,
		Signature: sig,
		File:      file,
		Line:      m.Pos.Line,
		Column:    m.Pos.Column,
	}
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid FROM pattern "+p)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, file string) bool {
	if len(globs) == 0 {
		return true
	}
	file = strings.ReplaceAll(file, "\\", "/")
	for _, g := range globs {
		if g.Match(file) {
			return true
		}
	}
	return false
}
