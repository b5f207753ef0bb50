package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	coreapp "codequery/internal/core/app"
	"codequery/internal/core/config"
	"codequery/internal/shared/observability"
	"codequery/internal/ui/report"
)

// runtime is everything a command needs once flags and config are settled.
type runtime struct {
	cfg      *config.Config
	app      *coreapp.App
	renderer *report.Renderer
	logger   *slog.Logger

	server          *observability.Server
	shutdownTracing func(context.Context) error
}

func newRuntime(ctx context.Context, opts *globalOptions, stdout, stderr io.Writer, factory appFactory) (*runtime, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.metricsAddr != "" {
		cfg.Observability.Enabled = true
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	logger := configureLogging(cfg.Logging, opts.verbose, stderr)

	shutdown, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Observability.EnableTracing,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
		Insecure:    !strings.HasPrefix(cfg.Observability.OTLPEndpoint, "https://"),
	})
	if err != nil {
		logger.Warn("failed to set up tracing", "error", err)
	}

	app, err := initializeApp(cfg, factory)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("initialize app: %w", err)
	}

	rt := &runtime{
		cfg:             cfg,
		app:             app,
		renderer:        report.NewRenderer(stdout, format),
		logger:          logger,
		shutdownTracing: shutdown,
	}
	if cfg.Observability.Enabled {
		rt.server = observability.NewServer(cfg.Observability.MetricsAddr, coreapp.NewHealthService(app).Check)
		if err := rt.server.Start(ctx); err != nil {
			logger.Warn("failed to start observability server", "error", err)
			rt.server = nil
		}
	}
	return rt, nil
}

func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rt.server != nil {
		if err := rt.server.Stop(ctx); err != nil {
			rt.logger.Warn("failed to stop observability server", "error", err)
		}
	}
	if err := rt.app.Close(ctx); err != nil {
		rt.logger.Warn("failed to close app", "error", err)
	}
	if err := rt.shutdownTracing(ctx); err != nil {
		rt.logger.Warn("failed to flush traces", "error", err)
	}
}

// configureLogging installs the process logger on w, which keeps stdout
// free for results.
func configureLogging(cfg config.Logging, verbose bool, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func configFileName() string {
	return config.DefaultFile
}
