package ports

import (
	"context"
	"time"

	"codequery/internal/data/index"
	"codequery/internal/engine/ast"
	"codequery/internal/engine/graph"
	"codequery/internal/engine/resolver"
	"codequery/internal/query"
)

// CodeParser abstracts source parsing and source-file support checks.
type CodeParser interface {
	ParseFile(path string, content []byte) ([]*ast.TypeDecl, error)
	IsSupportedPath(path string) bool
	IsTestFile(path string) bool
	SupportedExtensions() []string
}

// IndexStore abstracts persistence of analysis snapshots.
type IndexStore interface {
	SaveRun(ctx context.Context, snap index.Snapshot) (string, error)
	LatestRun(ctx context.Context, projectKey string) (index.Run, error)
	ListRuns(ctx context.Context, projectKey string, limit int) ([]index.Run, error)
	Callers(ctx context.Context, runID, target string) ([]index.CallBinding, error)
	PruneRuns(ctx context.Context, projectKey string, keep int) (int64, error)
	Close() error
}

// AnalysisResult summarizes one analysis run.
type AnalysisResult struct {
	RunID       string
	Files       int
	ParseErrors int
	Types       int
	Hierarchy   graph.Stats
	Widest      []graph.FanOut
	Overridden  int
	Calls       resolver.AnnotationStats
	Failures    int
	Unused      int
	Persisted   bool
	Duration    time.Duration
	Warnings    []string
}

// QueryService runs searches and refactorings against the latest analysis.
type QueryService interface {
	Analyze(ctx context.Context) (AnalysisResult, error)
	Execute(ctx context.Context, raw string) (query.Result, error)
}

// WatchUpdate is emitted after every watch-mode rebuild.
type WatchUpdate struct {
	Changed []string
	Result  AnalysisResult
	Err     error
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Subscribe(handler func(WatchUpdate))
	Stop() error
}
