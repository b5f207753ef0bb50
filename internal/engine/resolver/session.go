// # internal/engine/resolver/session.go
package resolver

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/engine/graph"
	"codequery/internal/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	MaxDepth         int
	NameCacheSize    int
	ImplicitJavaLang bool
	Workers          int
	Logger           *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:         64,
		NameCacheSize:    4096,
		ImplicitJavaLang: true,
		Workers:          4,
	}
}

// Failure is a per-item resolution problem recorded by a pass.
type Failure struct {
	Code      errors.ErrorCode
	Component string
	File      string
	Subject   string
	Err       error
}

type typeInfo struct {
	decl      *ast.TypeDecl
	root      *ast.TypeDecl
	parent    *ast.TypeDecl
	qualified string
	file      string
}

type nameKey struct {
	file    string
	current *ast.TypeDecl
	name    string
}

type nameResult struct {
	qt  ast.QualifiedType
	err error
}

// Session owns everything derived from one code base during one analysis
// run: the name cache, the type hierarchy, the override table and the
// failure log. Sessions never share state, so results cannot leak between
// runs. All methods are safe for concurrent use.
type Session struct {
	ID string

	cb     *ast.CodeBase
	opts   Options
	logger *slog.Logger

	types     map[*ast.TypeDecl]*typeInfo
	byName    map[string]*ast.TypeDecl
	owners    map[*ast.MethodDecl]*ast.TypeDecl
	anonymous map[ast.Node]*ast.TypeDecl

	names *graph.LRUCache[nameKey, nameResult]

	forestOnce sync.Once
	forest     *graph.Forest

	supersMu sync.Mutex
	supers   map[*ast.TypeDecl][]*ast.TypeDecl

	mu        sync.Mutex
	overrides map[string]bool
	failures  []Failure

	marked    atomic.Bool
	annotated atomic.Bool
}

// NewSession indexes every type declared in cb, including local and
// anonymous classes, and prepares empty caches.
func NewSession(cb *ast.CodeBase, opts Options) *Session {
	def := DefaultOptions()
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.NameCacheSize <= 0 {
		opts.NameCacheSize = def.NameCacheSize
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		ID:        uuid.NewString(),
		cb:        cb,
		opts:      opts,
		types:     make(map[*ast.TypeDecl]*typeInfo),
		byName:    make(map[string]*ast.TypeDecl),
		owners:    make(map[*ast.MethodDecl]*ast.TypeDecl),
		anonymous: make(map[ast.Node]*ast.TypeDecl),
		names:     graph.NewLRUCache[nameKey, nameResult](opts.NameCacheSize),
		supers:    make(map[*ast.TypeDecl][]*ast.TypeDecl),
		overrides: make(map[string]bool),
	}
	s.logger = logger.With("session", s.ID)

	for _, root := range cb.Roots() {
		qualified := root.Name
		if root.Package != "" {
			qualified = root.Package + "." + root.Name
		}
		s.indexType(root, root, nil, qualified)
	}
	return s
}

func (s *Session) CodeBase() *ast.CodeBase { return s.cb }

// OverridesMarked reports whether MarkOverrides has completed.
func (s *Session) OverridesMarked() bool { return s.marked.Load() }

// CallsAnnotated reports whether AnnotateCalls has completed without
// cancellation.
func (s *Session) CallsAnnotated() bool { return s.annotated.Load() }

func (s *Session) Options() Options { return s.opts }

func (s *Session) Logger() *slog.Logger { return s.logger }

func (s *Session) indexType(decl, root, parent *ast.TypeDecl, qualified string) {
	info := &typeInfo{decl: decl, root: root, parent: parent, qualified: qualified, file: root.File}
	s.types[decl] = info
	if _, taken := s.byName[qualified]; !taken {
		s.byName[qualified] = decl
	}

	local := 0
	nextLocal := func(name string) string {
		local++
		return qualified + "$" + strconv.Itoa(local) + name
	}

	var scan func(n ast.Node)
	scan = func(n ast.Node) {
		ast.Inspect(n, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.TypeDecl:
				s.indexType(x, root, decl, nextLocal(x.Name))
				return false
			case *ast.Instantiate:
				if x.Body == nil {
					return true
				}
				if x.Outer != nil {
					scan(x.Outer)
				}
				for _, a := range x.Args {
					scan(a)
				}
				synth := &ast.TypeDecl{Kind: ast.KindClass, Extends: []string{x.Type}, Body: x.Body, Pos: x.Pos}
				s.anonymous[x] = synth
				s.indexType(synth, root, decl, nextLocal(""))
				return false
			}
			return true
		})
	}

	for _, member := range decl.Body {
		switch m := member.(type) {
		case *ast.TypeDecl:
			s.indexType(m, root, decl, qualified+"$"+m.Name)
		case *ast.MethodDecl:
			s.owners[m] = decl
			if m.Body != nil {
				scan(m.Body)
			}
		case *ast.VarDecl:
			if m.Init != nil {
				scan(m.Init)
			}
		case *ast.Initializer:
			if m.Body != nil {
				scan(m.Body)
			}
		case *ast.EnumConstant:
			for _, a := range m.Args {
				scan(a)
			}
			if len(m.Body) > 0 {
				synth := &ast.TypeDecl{Kind: ast.KindClass, Extends: []string{decl.Name}, Body: m.Body, Pos: m.Pos}
				s.anonymous[m] = synth
				s.indexType(synth, root, decl, nextLocal(""))
			}
		}
	}
}

// QualifiedName returns the $-joined qualified name of an indexed type.
func (s *Session) QualifiedName(decl *ast.TypeDecl) string {
	if info, ok := s.types[decl]; ok {
		return info.qualified
	}
	if decl.Package != "" {
		return decl.Package + "." + decl.Name
	}
	return decl.Name
}

// TypeByName finds a declaration by its qualified name.
func (s *Session) TypeByName(qualified string) (*ast.TypeDecl, bool) {
	d, ok := s.byName[qualified]
	return d, ok
}

// Owner returns the type that declares m.
func (s *Session) Owner(m *ast.MethodDecl) (*ast.TypeDecl, bool) {
	d, ok := s.owners[m]
	return d, ok
}

// Enclosing returns the type that lexically contains decl.
func (s *Session) Enclosing(decl *ast.TypeDecl) *ast.TypeDecl {
	if info, ok := s.types[decl]; ok {
		return info.parent
	}
	return nil
}

// AnonymousType returns the synthetic declaration standing in for an
// anonymous class body or enum constant body.
func (s *Session) AnonymousType(n ast.Node) (*ast.TypeDecl, bool) {
	d, ok := s.anonymous[n]
	return d, ok
}

// Types returns every indexed declaration ordered by qualified name.
func (s *Session) Types() []*ast.TypeDecl {
	out := make([]*ast.TypeDecl, 0, len(s.types))
	for d := range s.types {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.types[out[i]].qualified < s.types[out[j]].qualified
	})
	return out
}

func (s *Session) typeOf(decl *ast.TypeDecl) ast.QualifiedType {
	if info, ok := s.types[decl]; ok {
		return ast.QualifiedType{Name: info.qualified, Decl: decl, Root: info.root, File: info.file}
	}
	return ast.QualifiedType{Name: s.QualifiedName(decl), Decl: decl, Root: decl, File: decl.File}
}

// ContextFor builds the resolution context of a declaration's body.
func (s *Session) ContextFor(decl *ast.TypeDecl) *Context {
	info, ok := s.types[decl]
	if !ok {
		return &Context{
			File:      decl.File,
			Package:   decl.Package,
			Imports:   decl.Imports,
			Root:      decl,
			Current:   decl,
			Enclosing: []*ast.TypeDecl{decl},
		}
	}
	var chain []*ast.TypeDecl
	for d := decl; d != nil; {
		chain = append(chain, d)
		if next, ok := s.types[d]; ok {
			d = next.parent
		} else {
			d = nil
		}
	}
	return &Context{
		File:      info.file,
		Package:   info.root.Package,
		Imports:   info.root.Imports,
		Root:      info.root,
		Current:   decl,
		Enclosing: chain,
	}
}

// ResolveSupertype resolves a supertype written on decl; it lets the
// session drive graph.Build.
func (s *Session) ResolveSupertype(decl *ast.TypeDecl, name string) (string, error) {
	qt, err := s.ResolveQualifiedName(s.ContextFor(decl), name)
	if err != nil {
		return "", err
	}
	return qt.Name, nil
}

// BuildHierarchy builds the type forest once; later calls are no-ops.
func (s *Session) BuildHierarchy(ctx context.Context) *graph.Forest {
	s.forestOnce.Do(func() {
		_, span := observability.Tracer.Start(ctx, "session.BuildHierarchy",
			trace.WithAttributes(attribute.Int("files", s.cb.Len())))
		defer span.End()
		started := time.Now()

		forest, failures := graph.Build(s.cb, s, s.opts.MaxDepth)
		for _, err := range failures {
			s.recordFailure("hierarchy", "", "", err)
		}
		s.forest = forest

		stats := forest.Stats()
		observability.HierarchyNodes.Set(float64(stats.Nodes))
		observability.HierarchyPlaceholders.Set(float64(stats.Placeholders))
		observability.AnalysisDuration.WithLabelValues("hierarchy").Observe(time.Since(started).Seconds())
		if cycles := forest.DetectCycles(); len(cycles) > 0 {
			s.logger.Warn("inheritance cycles detected", "count", len(cycles), "first", strings.Join(cycles[0], " -> "))
		}
		span.SetAttributes(attribute.Int("nodes", stats.Nodes), attribute.Int("failures", len(failures)))
	})
	return s.forest
}

// Forest returns the type hierarchy, building it on first use.
func (s *Session) Forest() *graph.Forest {
	return s.BuildHierarchy(context.Background())
}

// IsSubtype answers against this session's forest.
func (s *Session) IsSubtype(sub, super string) bool {
	return s.Forest().IsSubtype(sub, super)
}

// supertypeDecls returns the locally declared direct supertypes of decl.
// External supertypes are skipped.
func (s *Session) supertypeDecls(decl *ast.TypeDecl) []*ast.TypeDecl {
	s.supersMu.Lock()
	if cached, ok := s.supers[decl]; ok {
		s.supersMu.Unlock()
		return cached
	}
	s.supersMu.Unlock()

	ctx := s.ContextFor(decl)
	var out []*ast.TypeDecl
	for _, written := range decl.Supertypes() {
		qt, err := s.ResolveQualifiedName(ctx, written)
		if err != nil || qt.Decl == nil || qt.Decl == decl {
			continue
		}
		out = append(out, qt.Decl)
	}

	s.supersMu.Lock()
	s.supers[decl] = out
	s.supersMu.Unlock()
	return out
}

func (s *Session) recordFailure(component, file, subject string, err error) {
	code := errors.CodeOf(err)
	observability.ResolutionFailuresTotal.WithLabelValues(string(code)).Inc()
	s.mu.Lock()
	s.failures = append(s.failures, Failure{Code: code, Component: component, File: file, Subject: subject, Err: err})
	s.mu.Unlock()
	s.logger.Debug("resolution failure", "component", component, "file", file, "subject", subject, "error", err)
}

// Failures returns a copy of the recorded per-item failures.
func (s *Session) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Failure(nil), s.failures...)
}
