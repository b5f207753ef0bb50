// # internal/engine/resolver/walker.go
package resolver

import (
	"context"
	"sync"
	"time"

	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// AnnotationStats counts the calls visited by AnnotateCalls.
type AnnotationStats struct {
	Calls      int
	Resolved   int
	Unresolved int
}

func (a *AnnotationStats) add(o AnnotationStats) {
	a.Calls += o.Calls
	a.Resolved += o.Resolved
	a.Unresolved += o.Unresolved
}

// AnnotateCalls resolves every method call in the code base and records
// argument types, receiver type and target on each call node. Files are
// processed in parallel; every call node belongs to exactly one file, so
// no node is written by two goroutines. The only error returned is the
// context's.
func (s *Session) AnnotateCalls(ctx context.Context) (AnnotationStats, error) {
	ctx, span := observability.Tracer.Start(ctx, "session.AnnotateCalls")
	defer span.End()
	started := time.Now()
	s.BuildHierarchy(ctx)

	var (
		mu    sync.Mutex
		total AnnotationStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for _, file := range s.cb.Files() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w := &callWalker{s: s}
			for _, root := range s.cb.RootsInFile(file) {
				w.walkType(s.ContextFor(root), root)
			}
			mu.Lock()
			total.add(w.stats)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		s.annotated.Store(true)
	}

	observability.AnalysisDuration.WithLabelValues("annotate").Observe(time.Since(started).Seconds())
	span.SetAttributes(
		attribute.Int("calls", total.Calls),
		attribute.Int("resolved", total.Resolved),
	)
	s.logger.Debug("call annotation finished",
		"calls", total.Calls, "resolved", total.Resolved, "unresolved", total.Unresolved,
		"duration", time.Since(started))
	return total, err
}

// callWalker visits one file's declarations, keeping a lexical context in
// step with the tree so every call is resolved where it is written.
type callWalker struct {
	s     *Session
	stats AnnotationStats
}

// enter positions a context inside decl, keeping the outer lexical frames
// so local and anonymous classes still see captured variables.
func enter(outer *Context, decl *ast.TypeDecl) *Context {
	cp := outer.clone()
	cp.Current = decl
	cp.Enclosing = append([]*ast.TypeDecl{decl}, outer.Enclosing...)
	cp.Method = nil
	cp.Static = false
	return cp
}

func (w *callWalker) walkType(ctx *Context, decl *ast.TypeDecl) {
	for _, member := range decl.Body {
		switch m := member.(type) {
		case *ast.TypeDecl:
			w.walkType(enter(ctx, m), m)
		case *ast.MethodDecl:
			if m.Body != nil {
				w.walkStmts(ctx.WithMethod(m), m.Body.Stmts)
			}
		case *ast.VarDecl:
			w.walkExpr(ctx.WithStatic(m.Modifiers.Static.Bool()), m.Init)
		case *ast.Initializer:
			if m.Body != nil {
				w.walkBlock(ctx.WithStatic(m.Static), m.Body)
			}
		case *ast.EnumConstant:
			for _, a := range m.Args {
				w.walkExpr(ctx.WithStatic(true), a)
			}
			if synth, ok := w.s.AnonymousType(m); ok {
				w.walkType(enter(ctx, synth), synth)
			}
		}
	}
}

func (w *callWalker) walkBlock(ctx *Context, b *ast.Block) {
	if b == nil {
		return
	}
	w.walkStmts(ctx.withBlock(b), b.Stmts)
}

// walkStmts visits stmts in order; each local declaration becomes visible
// to the statements after it.
func (w *callWalker) walkStmts(ctx *Context, stmts []ast.Stmt) {
	for _, st := range stmts {
		w.walkStmt(ctx, st)
	}
}

// nested gives a single-statement body its own frame.
func (w *callWalker) nested(ctx *Context, st ast.Stmt) {
	if st != nil {
		w.walkStmt(ctx.WithLocals(), st)
	}
}

func (w *callWalker) walkStmt(ctx *Context, st ast.Stmt) {
	switch x := st.(type) {
	case *ast.Block:
		w.walkBlock(ctx, x)
	case *ast.ExprStmt:
		w.walkExpr(ctx, x.X)
	case *ast.VarDecl:
		w.walkExpr(ctx, x.Init)
		ctx.declare(x)
	case *ast.If:
		w.walkExpr(ctx, x.Cond)
		w.nested(ctx, x.Then)
		w.nested(ctx, x.Else)
	case *ast.While:
		w.walkExpr(ctx, x.Cond)
		w.nested(ctx, x.Body)
	case *ast.DoWhile:
		w.nested(ctx, x.Body)
		w.walkExpr(ctx, x.Cond)
	case *ast.For:
		fctx := ctx.WithLocals()
		for _, init := range x.Init {
			w.walkStmt(fctx, init)
		}
		w.walkExpr(fctx, x.Cond)
		for _, u := range x.Update {
			w.walkExpr(fctx, u)
		}
		w.nested(fctx, x.Body)
	case *ast.ForEach:
		w.walkExpr(ctx, x.Iterable)
		w.nested(ctx.WithLocals(x.Var), x.Body)
	case *ast.Return:
		w.walkExpr(ctx, x.Value)
	case *ast.Throw:
		w.walkExpr(ctx, x.Value)
	case *ast.Yield:
		w.walkExpr(ctx, x.Value)
	case *ast.Assert:
		w.walkExpr(ctx, x.Cond)
		w.walkExpr(ctx, x.Message)
	case *ast.Labeled:
		w.walkStmt(ctx, x.Body)
	case *ast.Try:
		tctx := ctx.WithLocals()
		for _, r := range x.Resources {
			w.walkExpr(tctx, r.Init)
			tctx.declare(r)
		}
		w.walkBlock(tctx, x.Body)
		for _, c := range x.Catches {
			cctx := ctx
			if c.Param != nil {
				cctx = ctx.WithLocals(c.Param)
			}
			w.walkBlock(cctx, c.Body)
		}
		w.walkBlock(ctx, x.Finally)
	case *ast.Switch:
		w.walkExpr(ctx, x.Value)
		for _, c := range x.Cases {
			for _, l := range c.Labels {
				w.walkExpr(ctx, l)
			}
			w.walkStmts(ctx.WithLocals(), c.Body)
		}
	case *ast.Synchronized:
		w.walkExpr(ctx, x.Lock)
		w.walkBlock(ctx, x.Body)
	case *ast.TypeDecl:
		w.walkType(enter(ctx, x), x)
	case *ast.MethodDecl:
		if x.Body != nil {
			w.walkStmts(ctx.WithMethod(x), x.Body.Stmts)
		}
	}
}

func (w *callWalker) walkExpr(ctx *Context, e ast.Expr) {
	switch x := e.(type) {
	case nil:
	case *ast.MethodCall:
		w.walkExpr(ctx, x.Receiver)
		for _, a := range x.Args {
			w.walkExpr(ctx, a)
		}
		_, ok := w.s.ResolveMethodCall(ctx, x)
		w.count(ok)
	case *ast.Binary:
		w.walkExpr(ctx, x.Left)
		if x.Op != "." {
			w.walkExpr(ctx, x.Right)
			return
		}
		switch rt := x.Right.(type) {
		case *ast.MethodCall:
			// The receiver comes from the left operand, so the call is
			// resolved through the enclosing member access.
			for _, a := range rt.Args {
				w.walkExpr(ctx, a)
			}
			w.s.ResolveExpressionType(ctx, x)
			w.count(rt.Target != nil)
		case *ast.Instantiate:
			w.walkInstantiate(ctx, rt)
		}
	case *ast.Instantiate:
		w.walkExpr(ctx, x.Outer)
		w.walkInstantiate(ctx, x)
	case *ast.Lambda:
		lctx := ctx.WithParams(x.Params...)
		w.walkExpr(lctx, x.Expr)
		w.walkBlock(lctx, x.Block)
	case *ast.ArrayAccess:
		w.walkExpr(ctx, x.Array)
		w.walkExpr(ctx, x.Index)
	case *ast.ArrayCreation:
		for _, d := range x.Dims {
			w.walkExpr(ctx, d)
		}
		if x.Init != nil {
			w.walkExpr(ctx, x.Init)
		}
	case *ast.ArrayInit:
		for _, el := range x.Elements {
			w.walkExpr(ctx, el)
		}
	case *ast.Cast:
		w.walkExpr(ctx, x.X)
	case *ast.Paren:
		w.walkExpr(ctx, x.X)
	case *ast.Postfix:
		w.walkExpr(ctx, x.X)
	case *ast.Prefix:
		w.walkExpr(ctx, x.X)
	case *ast.Ternary:
		w.walkExpr(ctx, x.Cond)
		w.walkExpr(ctx, x.Then)
		w.walkExpr(ctx, x.Else)
	case *ast.Unit:
		for _, a := range x.Args {
			w.walkExpr(ctx, a)
		}
	}
}

func (w *callWalker) walkInstantiate(ctx *Context, x *ast.Instantiate) {
	for _, a := range x.Args {
		w.walkExpr(ctx, a)
	}
	if synth, ok := w.s.AnonymousType(x); ok {
		w.walkType(enter(ctx, synth), synth)
	}
}

func (w *callWalker) count(resolved bool) {
	w.stats.Calls++
	if resolved {
		w.stats.Resolved++
	} else {
		w.stats.Unresolved++
	}
}
