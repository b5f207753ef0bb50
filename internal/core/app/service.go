package app

import (
	"context"
	stderrors "errors"

	"codequery/internal/core/errors"
	"codequery/internal/core/ports"
	"codequery/internal/data/index"
	"codequery/internal/engine/graph"
	"codequery/internal/engine/resolver"
	"codequery/internal/query"
)

var _ ports.QueryService = (*App)(nil)

// Execute parses raw and runs it against the latest analysis, analyzing
// first when nothing has been analyzed yet.
func (a *App) Execute(ctx context.Context, raw string) (query.Result, error) {
	q, err := query.Parse(raw)
	if err != nil {
		return query.Result{}, err
	}

	engine := a.currentEngine()
	if engine == nil {
		if _, err := a.Analyze(ctx); err != nil {
			return query.Result{Query: q}, err
		}
		engine = a.currentEngine()
	}

	res, err := engine.Run(ctx, q)
	if err != nil {
		a.logger.Debug("query failed", "query", raw, "code", errors.CodeOf(err), "error", err)
		return res, err
	}
	return res, nil
}

func (a *App) currentEngine() *query.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine
}

// History lists the newest stored runs of the configured project.
func (a *App) History(ctx context.Context, limit int) ([]index.Run, error) {
	if a.store == nil {
		return nil, errors.New(errors.CodeNotSupported, "index is disabled")
	}
	return a.store.ListRuns(ctx, a.Config.ProjectKey, limit)
}

// Impact reports the subtypes and declaring files reached by a change to
// the named type, analyzing first when needed.
func (a *App) Impact(ctx context.Context, name string) (graph.ImpactReport, error) {
	session := a.Session()
	if session == nil {
		if _, err := a.Analyze(ctx); err != nil {
			return graph.ImpactReport{}, err
		}
		session = a.Session()
	}
	report, err := session.Forest().AnalyzeImpact(name)
	if err != nil {
		var target *graph.ImpactTargetError
		if stderrors.As(err, &target) {
			return report, errors.Wrap(err, errors.CodeNotFound, "impact")
		}
		return report, err
	}
	return report, nil
}

// UnusedImports lists single-type imports never referenced in their file.
func (a *App) UnusedImports(ctx context.Context) ([]resolver.UnusedImport, error) {
	session := a.Session()
	if session == nil {
		if _, err := a.Analyze(ctx); err != nil {
			return nil, err
		}
		session = a.Session()
	}
	return session.FindUnusedImports(), nil
}

// Callers lists the call sites bound to target in the newest stored run.
// It reads the index only, so it answers without re-analyzing.
func (a *App) Callers(ctx context.Context, target string) (index.Run, []index.CallBinding, error) {
	if a.store == nil {
		return index.Run{}, nil, errors.New(errors.CodeNotSupported, "index is disabled")
	}
	run, err := a.store.LatestRun(ctx, a.Config.ProjectKey)
	if err != nil {
		return index.Run{}, nil, err
	}
	calls, err := a.store.Callers(ctx, run.ID, target)
	return run, calls, err
}
