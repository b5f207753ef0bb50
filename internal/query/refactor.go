package query

import (
	"context"
	"sort"
	"strings"
	"sync"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
	"codequery/internal/engine/resolver"
	"codequery/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Refactor computes the edits a rename or parameter change needs: the
// declaration, every overriding declaration and every resolved call site.
// No text is modified; files are scanned in parallel.
func (e *Engine) Refactor(ctx context.Context, q Query) ([]FileChanges, error) {
	if q.Refactor == nil || (q.Action != ActionRename && q.Action != ActionParameters) {
		return nil, errors.New(errors.CodeValidationError, "query is not a refactoring")
	}
	ctx, span := observability.Tracer.Start(ctx, "query.Refactor",
		trace.WithAttributes(attribute.String("action", string(q.Action)), attribute.String("signature", q.Refactor.Signature)))
	defer span.End()
	observability.QueriesTotal.WithLabelValues(string(q.Action)).Inc()

	target, ok := e.session.FindMethod(q.Refactor.Signature)
	if !ok {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "method not found"), "signature", q.Refactor.Signature)
	}
	if target.Method.Constructor {
		return nil, errors.New(errors.CodeNotSupported, "constructors cannot be refactored")
	}

	var perm []int
	if q.Action == ActionParameters {
		var err error
		if perm, err = permutation(target.Method.Params, q.Refactor.NewParams); err != nil {
			return nil, err
		}
	}
	if !e.session.CallsAnnotated() {
		if _, err := e.session.AnnotateCalls(ctx); err != nil {
			return nil, err
		}
	}

	methods := append([]resolver.MethodRef{target}, e.session.Overriders(target)...)
	affected := make(map[*ast.MethodDecl]bool, len(methods))
	for _, m := range methods {
		affected[m.Method] = true
	}

	var (
		mu      sync.Mutex
		changes = make(map[string][]Change)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, file := range e.session.CodeBase().Files() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var local []Change
			for _, m := range methods {
				if e.session.ContextFor(m.Owner).File == file {
					local = append(local, declarationChange(q, m.Method, file, perm))
				}
			}
			for _, root := range e.session.CodeBase().RootsInFile(file) {
				for _, call := range ast.MethodCalls(root) {
					if call.Target != nil && affected[call.Target] {
						local = append(local, callChange(q, call, file, perm))
					}
				}
			}
			if len(local) == 0 {
				return nil
			}
			mu.Lock()
			changes[file] = append(changes[file], local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FileChanges, 0, len(changes))
	total := 0
	for file, list := range changes {
		sort.Slice(list, func(i, j int) bool { return list[i].Offset < list[j].Offset })
		out = append(out, FileChanges{File: file, Changes: list})
		total += len(list)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	span.SetAttributes(attribute.Int("changes", total), attribute.Int("overriders", len(methods)-1))
	e.logger.Info("refactoring computed", "action", q.Action, "signature", q.Refactor.Signature,
		"files", len(out), "changes", total)
	return out, nil
}

// permutation maps each new parameter to the index of the old parameter
// with the same name. Parameters can be reordered, retyped or dropped, not
// added.
func permutation(old, next []ast.Param) ([]int, error) {
	index := make(map[string]int, len(old))
	for i, p := range old {
		index[p.Name] = i
	}
	perm := make([]int, len(next))
	seen := make(map[int]bool, len(next))
	for i, p := range next {
		j, ok := index[p.Name]
		if !ok {
			return nil, errors.Newf(errors.CodeNotSupported, "cannot add parameter %q", p.Name)
		}
		if seen[j] {
			return nil, errors.Newf(errors.CodeValidationError, "parameter %q listed twice", p.Name)
		}
		seen[j] = true
		perm[i] = j
	}
	return perm, nil
}

func declarationChange(q Query, m *ast.MethodDecl, file string, perm []int) Change {
	if q.Action == ActionRename {
		return Change{
			File:   file,
			Line:   m.Pos.Line,
			Offset: m.Pos.Offset,
			End:    m.Pos.End,
			Kind:   ChangeRenameDeclaration,
			Old:    m.Name,
			New:    q.Refactor.NewName,
		}
	}
	next := make([]ast.Param, len(perm))
	for i, j := range perm {
		next[i] = m.Params[j]
		next[i].Type = q.Refactor.NewParams[i].Type
		if next[i].Varargs && !strings.HasSuffix(next[i].Type, "...") {
			next[i].Varargs = false
		}
	}
	return Change{
		File:        file,
		Line:        m.Pos.Line,
		Offset:      m.Pos.LeftParen,
		End:         m.Pos.RightParen + 1,
		Kind:        ChangeParamsDeclaration,
		Old:         renderParams(m.Params),
		New:         renderParams(next),
		Permutation: perm,
		Commas:      m.Pos.Commas,
	}
}

func callChange(q Query, call *ast.MethodCall, file string, perm []int) Change {
	if q.Action == ActionRename {
		return Change{
			File:   file,
			Line:   call.Pos.Line,
			Offset: call.Pos.Offset,
			End:    call.Pos.End,
			Kind:   ChangeRenameCall,
			Old:    call.Name,
			New:    q.Refactor.NewName,
		}
	}
	return Change{
		File:        file,
		Line:        call.Pos.Line,
		Offset:      call.Pos.LeftParen,
		End:         call.Pos.RightParen + 1,
		Kind:        ChangeArgumentsCall,
		Permutation: perm,
		Commas:      call.Pos.Commas,
	}
}

func renderParams(params []ast.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		typ := p.Type
		if p.Varargs && !strings.HasSuffix(typ, "...") {
			typ += "..."
		}
		parts[i] = typ + " " + p.Name
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
