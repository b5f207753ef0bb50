package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"codequery/internal/core/ports"
	"codequery/internal/core/watcher"
	"codequery/internal/shared/observability"
	"codequery/internal/shared/util"
)

var _ ports.WatchService = (*WatchService)(nil)

// WatchService re-runs the full analysis whenever watched sources change.
// Rebuilds are bounded by a token bucket; batches arriving while the
// bucket is empty wait for a token.
type WatchService struct {
	app     *App
	limiter *util.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWatchService(app *App) *WatchService {
	return &WatchService{
		app:     app,
		limiter: util.NewLimiter(app.Config.Watch.MaxRebuildsPerSecond, 1),
	}
}

func (s *WatchService) Subscribe(handler func(ports.WatchUpdate)) {
	s.app.SetUpdateHandler(handler)
}

// Start begins watching the source paths. The first analysis is the
// caller's job.
func (s *WatchService) Start(ctx context.Context) error {
	if s.app.activeWatcher != nil {
		return fmt.Errorf("watcher already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	w, err := watcher.NewWatcher(
		s.app.Config.Watch.Debounce,
		s.app.Config.Exclude.Dirs,
		s.app.Config.Exclude.Files,
		s.handleChanges,
	)
	if err != nil {
		return err
	}
	w.SetFileFilter(func(path string) bool {
		if !s.app.codeParser.IsSupportedPath(path) {
			return false
		}
		return s.app.Config.Analysis.ShouldIncludeTests() || !s.app.codeParser.IsTestFile(path)
	})
	if err := w.Watch(s.app.Paths.SourcePaths); err != nil {
		_ = w.Close()
		return err
	}
	s.app.activeWatcher = w
	s.app.logger.Info("watching sources", "paths", s.app.Paths.SourcePaths, "debounce", s.app.Config.Watch.Debounce)
	return nil
}

// SetDebounce changes the quiet period, including for a running watcher.
func (s *WatchService) SetDebounce(d time.Duration) {
	s.app.Config.Watch.Debounce = d
	if w := s.app.activeWatcher; w != nil {
		w.SetDebounce(d)
	}
}

func (s *WatchService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	w := s.app.activeWatcher
	s.app.activeWatcher = nil
	if w == nil {
		return nil
	}
	return w.Close()
}

func (s *WatchService) handleChanges(paths []string) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.limiter.Wait(ctx, 1); err != nil {
		observability.WatchRebuildsTotal.WithLabelValues("skipped").Inc()
		return
	}

	changed := make([]string, 0, len(paths))
	for _, p := range paths {
		changed = append(changed, s.app.relativeKey(p))
	}
	sort.Strings(changed)

	s.app.logger.Info("sources changed, re-analyzing", "files", len(changed))
	result, err := s.app.Analyze(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.app.logger.Warn("watch rebuild failed", "error", err)
	}
	observability.WatchRebuildsTotal.WithLabelValues(outcome).Inc()
	s.app.emitUpdate(ports.WatchUpdate{Changed: changed, Result: result, Err: err})
}
