package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"codequery/internal/engine/ast"
	"codequery/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// LoadStats reports how a code base load went.
type LoadStats struct {
	Files       int
	ParseErrors int
	Warnings    []string
}

// LoadCodeBase reads and parses files in parallel and assembles the code
// base. Files are keyed by their slash path relative to the project root so
// FROM globs are written the way the tree looks. A file that cannot be read
// or parsed is skipped with a warning; only cancellation fails the load.
func (a *App) LoadCodeBase(ctx context.Context, files []string) (*ast.CodeBase, LoadStats, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.LoadCodeBase")
	defer span.End()
	started := time.Now()

	var (
		mu     sync.Mutex
		parsed = make(map[string][]*ast.TypeDecl, len(files))
		stats  = LoadStats{Files: len(files)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := a.relativeKey(path)
			decls, err := a.parseFile(path, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				a.logger.Warn("failed to parse file", "path", path, "error", err)
				stats.ParseErrors++
				stats.Warnings = append(stats.Warnings, fmt.Sprintf("%s: %v", key, err))
				return nil
			}
			parsed[key] = decls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	cb := ast.FromFiles(parsed)
	observability.AnalysisDuration.WithLabelValues("load").Observe(time.Since(started).Seconds())
	span.SetAttributes(attribute.Int("files", stats.Files), attribute.Int("parse_errors", stats.ParseErrors))
	a.logger.Debug("code base loaded", "files", stats.Files, "types", cb.Len(),
		"parse_errors", stats.ParseErrors, "duration", time.Since(started))
	return cb, stats, nil
}

// parseFile reads path and parses it under key, so declarations and
// positions carry the project-relative name.
func (a *App) parseFile(path, key string) ([]*ast.TypeDecl, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.codeParser.ParseFile(key, content)
}

func (a *App) workers() int {
	if a.Config.Analysis.Workers > 0 {
		return a.Config.Analysis.Workers
	}
	return 1
}
