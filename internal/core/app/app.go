package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"codequery/internal/core/config"
	"codequery/internal/core/ports"
	"codequery/internal/core/watcher"
	"codequery/internal/data/index"
	"codequery/internal/engine/parser"
	"codequery/internal/engine/resolver"
	"codequery/internal/query"

	"github.com/gobwas/glob"
)

// App wires configuration, the Java front-end, the resolution session and
// the optional index store. Every Analyze builds a fresh session; queries
// run against the latest one.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	codeParser ports.CodeParser
	store      ports.IndexStore
	logger     *slog.Logger

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	mu      sync.RWMutex
	session *resolver.Session
	engine  *query.Engine
	last    ports.AnalysisResult

	updateMu sync.RWMutex
	onUpdate func(ports.WatchUpdate)

	activeWatcher *watcher.Watcher
}

// Dependencies are optional collaborators; nil fields get defaults where
// one exists.
type Dependencies struct {
	CodeParser ports.CodeParser
	Store      ports.IndexStore
	Logger     *slog.Logger
}

// New builds an App with the tree-sitter parser and, when enabled, the
// SQLite index.
func New(cfg *config.Config) (*App, error) {
	logger := slog.Default()
	deps := Dependencies{CodeParser: parser.NewParser(logger), Logger: logger}
	a, err := NewWithDependencies(cfg, deps)
	if err != nil {
		return nil, err
	}
	if cfg.Index.Enabled {
		store, err := index.Open(a.Paths.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		a.store = store
	}
	return a, nil
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.CodeParser == nil {
		return nil, fmt.Errorf("code parser dependency is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, err
	}
	excludeDirs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		Paths:        paths,
		codeParser:   deps.CodeParser,
		store:        deps.Store,
		logger:       logger,
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Close stops the watcher and releases the index.
func (a *App) Close(ctx context.Context) error {
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			a.logger.Warn("failed to close watcher", "error", err)
		}
		a.activeWatcher = nil
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Session returns the session of the latest analysis, or nil before the
// first one.
func (a *App) Session() *resolver.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) LastResult() ports.AnalysisResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

func (a *App) SetUpdateHandler(handler func(ports.WatchUpdate)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) emitUpdate(update ports.WatchUpdate) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

func (a *App) sessionOptions() resolver.Options {
	return resolver.Options{
		MaxDepth:         a.Config.Resolver.MaxDepth,
		NameCacheSize:    a.Config.Resolver.NameCacheSize,
		ImplicitJavaLang: a.Config.Resolver.JavaLangImplicit(),
		Workers:          a.Config.Analysis.Workers,
		Logger:           a.logger,
	}
}
