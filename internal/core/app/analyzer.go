package app

import (
	"context"
	"time"

	"codequery/internal/core/errors"
	"codequery/internal/core/ports"
	"codequery/internal/data/index"
	"codequery/internal/engine/ast"
	"codequery/internal/engine/resolver"
	"codequery/internal/query"
	"codequery/internal/shared/observability"
	"codequery/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
)

const widestTypes = 3

// Analyze scans the source paths, loads a fresh code base and runs the
// hierarchy build, the override sweep and, when enabled, call annotation
// in a new session. The result replaces the previous analysis only when
// every pass completed.
func (a *App) Analyze(ctx context.Context) (ports.AnalysisResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze")
	defer span.End()
	started := time.Now()

	files, err := a.ScanDirectories(a.Paths.SourcePaths)
	if err != nil {
		return ports.AnalysisResult{}, errors.Wrap(err, errors.CodeInternal, "scan source paths")
	}
	cb, loadStats, err := a.LoadCodeBase(ctx, files)
	if err != nil {
		return ports.AnalysisResult{}, err
	}

	session := resolver.NewSession(cb, a.sessionOptions())
	result := ports.AnalysisResult{
		RunID:       session.ID,
		Files:       loadStats.Files,
		ParseErrors: loadStats.ParseErrors,
		Types:       len(session.Types()),
		Warnings:    loadStats.Warnings,
	}

	forest := session.BuildHierarchy(ctx)
	result.Hierarchy = forest.Stats()
	result.Widest = forest.TopFanOut(widestTypes)
	result.Overridden = session.MarkOverrides(ctx)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if a.Config.Analysis.ShouldAnnotateCalls() {
		if result.Calls, err = session.AnnotateCalls(ctx); err != nil {
			return result, err
		}
	}
	result.Failures = len(session.Failures())
	result.Unused = len(session.FindUnusedImports())
	result.Duration = time.Since(started)

	if a.store != nil {
		if err := a.persist(ctx, session, started); err != nil {
			a.logger.Warn("failed to persist analysis", "run", session.ID, "error", err)
			result.Warnings = append(result.Warnings, "index: "+err.Error())
		} else {
			result.Persisted = true
		}
	}

	a.mu.Lock()
	a.session = session
	a.engine = query.NewEngine(session, a.Config.Analysis.Workers)
	a.last = result
	a.mu.Unlock()

	observability.AnalysisDuration.WithLabelValues("analyze").Observe(result.Duration.Seconds())
	span.SetAttributes(
		attribute.String("run", result.RunID),
		attribute.Int("files", result.Files),
		attribute.Int("types", result.Types),
		attribute.Int("failures", result.Failures),
	)
	attrs := []any{
		"run", result.RunID,
		"files", result.Files,
		"types", result.Types,
		"overridden", result.Overridden,
		"calls", result.Calls.Calls,
		"resolved", result.Calls.Resolved,
		"failures", result.Failures,
		"duration", result.Duration,
	}
	a.logger.Info("analysis finished", append(attrs, util.ReadMemStats().LogAttrs()...)...)
	return result, nil
}

func (a *App) persist(ctx context.Context, s *resolver.Session, started time.Time) error {
	snap := buildSnapshot(s)
	snap.ProjectKey = a.Config.ProjectKey
	snap.StartedAt = started
	snap.FinishedAt = time.Now()

	runID, err := a.store.SaveRun(ctx, snap)
	if err != nil {
		return err
	}
	if keep := a.Config.Index.KeepRuns; keep > 0 {
		pruned, err := a.store.PruneRuns(ctx, a.Config.ProjectKey, keep)
		if err != nil {
			return err
		}
		if pruned > 0 {
			a.logger.Debug("pruned old runs", "count", pruned)
		}
	}
	a.logger.Debug("analysis persisted", "run", runID, "edges", len(snap.Edges), "calls", len(snap.Calls))
	return nil
}

// buildSnapshot flattens a finished session into index rows.
func buildSnapshot(s *resolver.Session) index.Snapshot {
	cb := s.CodeBase()
	snap := index.Snapshot{
		RunID:     s.ID,
		Files:     len(cb.Files()),
		Types:     len(s.Types()),
		Overrides: s.OverriddenSignatures(),
	}
	for _, e := range s.Forest().Edges() {
		snap.Edges = append(snap.Edges, index.Edge{Parent: e.Parent, Child: e.Child})
	}
	if s.CallsAnnotated() {
		for _, file := range cb.Files() {
			for _, root := range cb.RootsInFile(file) {
				for _, call := range ast.MethodCalls(root) {
					snap.Calls = append(snap.Calls, index.CallBinding{
						File:   file,
						Line:   call.Pos.Line,
						Name:   call.Name,
						Target: callTarget(s, call),
					})
				}
			}
		}
	}
	for _, f := range s.Failures() {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		snap.Failures = append(snap.Failures, index.Failure{
			Code:      string(f.Code),
			Component: f.Component,
			File:      f.File,
			Subject:   f.Subject,
			Message:   msg,
		})
	}
	return snap
}

func callTarget(s *resolver.Session, call *ast.MethodCall) string {
	if call.Target == nil {
		return ""
	}
	owner, ok := s.Owner(call.Target)
	if !ok {
		return ""
	}
	return s.MethodSignature(owner, call.Target)
}
