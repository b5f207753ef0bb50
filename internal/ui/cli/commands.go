package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	coreapp "codequery/internal/core/app"
	"codequery/internal/core/config"
	"codequery/internal/core/ports"
	"codequery/internal/query"
	"codequery/internal/ui/report"

	"github.com/spf13/cobra"
)

// withRuntime builds the runtime for one command invocation and tears it
// down afterwards.
func withRuntime(cmd *cobra.Command, opts *globalOptions, factory appFactory, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), factory)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func newAnalyzeCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Parse the sources, build the type hierarchy and resolve overrides and calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.Analyze(ctx)
				if err != nil {
					return err
				}
				return rt.renderer.Analysis(res)
			})
		},
	}
}

func newSearchCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Run a structural search, e.g. search \"method WHERE name = 'run' AND overrides = true\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := withKeyword("SEARCH", args)
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.Execute(ctx, raw)
				if err != nil {
					return err
				}
				if res.Query.Action != query.ActionSearch {
					return fmt.Errorf("not a search: %s", raw)
				}
				return rt.renderer.Result(res)
			})
		},
	}
}

func newRefactorCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	var preview int
	cmd := &cobra.Command{
		Use:   "refactor <query>",
		Short: "Compute the edits of a refactoring, e.g. refactor \"RENAME 'pkg.A#run()' TO 'execute'\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := withKeyword("REFACTOR", args)
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.Execute(ctx, raw)
				if err != nil {
					return err
				}
				if res.Query.Action == query.ActionSearch {
					return fmt.Errorf("not a refactoring: %s", raw)
				}
				if preview > 0 && rt.renderer.Format() == report.FormatText {
					return renderPreview(rt, res.Changes, preview)
				}
				return rt.renderer.Result(res)
			})
		},
	}
	cmd.Flags().IntVar(&preview, "preview", 0, "Show each edit applied in place with this many lines of context (text output)")
	return cmd
}

func renderPreview(rt *runtime, changes []query.FileChanges, radius int) error {
	if len(changes) == 0 {
		return rt.renderer.Changes(nil)
	}
	for _, fc := range changes {
		path := filepath.Join(rt.app.Paths.ProjectRoot, filepath.FromSlash(fc.File))
		content, err := os.ReadFile(path)
		if err != nil {
			rt.logger.Warn("cannot preview file", "path", path, "error", err)
			continue
		}
		if err := rt.renderer.Preview(fc.File, report.PreviewChanges(content, fc, radius)); err != nil {
			return err
		}
	}
	return nil
}

func newImpactCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "impact <type>",
		Short: "List the subtypes and files a change to a type reaches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				rep, err := rt.app.Impact(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.renderer.Impact(rep)
			})
		},
	}
}

func newImportsCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "imports",
		Short: "List single-type imports that are never used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				list, err := rt.app.UnusedImports(ctx)
				if err != nil {
					return err
				}
				return rt.renderer.UnusedImports(list)
			})
		},
	}
}

func newWatchCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Analyze, then re-analyze whenever sources change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runWatch(ctx, rt, opts.configPath)
			})
		},
	}
}

func runWatch(ctx context.Context, rt *runtime, configPath string) error {
	res, err := rt.app.Analyze(ctx)
	if err != nil {
		return err
	}
	if err := rt.renderer.Analysis(res); err != nil {
		return err
	}

	svc := coreapp.NewWatchService(rt.app)
	svc.Subscribe(func(u ports.WatchUpdate) {
		if u.Err != nil {
			rt.logger.Error("rebuild failed", "changed", len(u.Changed), "error", u.Err)
			return
		}
		if err := rt.renderer.Analysis(u.Result); err != nil {
			rt.logger.Warn("failed to render update", "error", err)
		}
	})
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if path := watchedConfigPath(configPath); path != "" {
		cw := config.NewWatcher(path, func(cfg *config.Config) {
			if cfg.Watch.Debounce != rt.cfg.Watch.Debounce {
				rt.logger.Info("applying new watch debounce", "debounce", cfg.Watch.Debounce)
				svc.SetDebounce(cfg.Watch.Debounce)
			}
		})
		if err := cw.Start(ctx); err != nil {
			rt.logger.Warn("failed to watch config file", "path", path, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	<-ctx.Done()
	rt.logger.Info("watch stopped")
	return nil
}

func watchedConfigPath(explicit string) string {
	path := explicit
	if path == "" {
		path = config.DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	return abs
}

func newHistoryCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analysis runs (requires [index] enabled)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				runs, err := rt.app.History(ctx, limit)
				if err != nil {
					return err
				}
				return rt.renderer.Runs(runs)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newCallersCmd(opts *globalOptions, factory appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "callers <signature>",
		Short: "List stored call sites bound to a method, e.g. callers 'pkg.A#run()' (requires [index] enabled)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts, factory, func(ctx context.Context, rt *runtime) error {
				run, calls, err := rt.app.Callers(ctx, args[0])
				if err != nil {
					return err
				}
				return rt.renderer.Callers(run, args[0], calls)
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codequery v%s\n", versionString)
		},
	}
}

// withKeyword joins args into one query, adding the leading keyword when
// the user left it out.
func withKeyword(keyword string, args []string) string {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if len(raw) >= len(keyword) && strings.EqualFold(raw[:len(keyword)], keyword) {
		return raw
	}
	return keyword + " " + raw
}
