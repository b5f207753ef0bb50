package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"codequery/internal/core/config/helpers"

	"github.com/gobwas/glob"
)

// Validate checks a defaulted configuration section by section and returns
// the first problem found.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateSourcePaths,
		validateExclude,
		validateResolver,
		validateAnalysis,
		validateIndex,
		validateWatch,
		validateObservability,
		validateOutput,
		validateLogging,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateSourcePaths(cfg *Config) error {
	if len(cfg.SourcePaths) == 0 {
		return fmt.Errorf("source_paths must not be empty")
	}
	cleaned := make([]string, 0, len(cfg.SourcePaths))
	for i, p := range cfg.SourcePaths {
		p = strings.TrimSpace(p)
		if p == "" {
			return fmt.Errorf("source_paths[%d] must not be empty", i)
		}
		if helpers.HasWildcard(p) {
			return fmt.Errorf("source_paths[%d] %q must be a directory, not a pattern", i, p)
		}
		p = filepath.Clean(p)
		for _, prev := range cleaned {
			if helpers.IsPathOverlap(prev, p) {
				return fmt.Errorf("source_paths %q and %q overlap", prev, p)
			}
		}
		cleaned = append(cleaned, p)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for section, patterns := range map[string][]string{"exclude.dirs": cfg.Exclude.Dirs, "exclude.files": cfg.Exclude.Files} {
		for i, p := range patterns {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%s[%d] must not be empty", section, i)
			}
			if _, err := glob.Compile(p, '/'); err != nil {
				return fmt.Errorf("%s[%d] %q is not a valid glob: %w", section, i, p, err)
			}
		}
	}
	return nil
}

func validateResolver(cfg *Config) error {
	if cfg.Resolver.MaxDepth < 1 || cfg.Resolver.MaxDepth > 1024 {
		return fmt.Errorf("resolver.max_depth must be between 1 and 1024, got %d", cfg.Resolver.MaxDepth)
	}
	if cfg.Resolver.NameCacheSize < 0 {
		return fmt.Errorf("resolver.name_cache_size must be >= 0, got %d", cfg.Resolver.NameCacheSize)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 || cfg.Analysis.Workers > 256 {
		return fmt.Errorf("analysis.workers must be between 1 and 256, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validateIndex(cfg *Config) error {
	if cfg.Index.Enabled && strings.TrimSpace(cfg.Index.Path) == "" {
		return fmt.Errorf("index.path must not be empty when the index is enabled")
	}
	if cfg.Index.KeepRuns < 0 {
		return fmt.Errorf("index.keep_runs must be >= 0, got %d", cfg.Index.KeepRuns)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRebuildsPerSecond <= 0 {
		return fmt.Errorf("watch.max_rebuilds_per_second must be > 0")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	obs := cfg.Observability
	if obs.Enabled && strings.TrimSpace(obs.MetricsAddr) == "" {
		return fmt.Errorf("observability.metrics_addr must be set when observability is enabled")
	}
	if obs.EnableTracing && strings.TrimSpace(obs.ServiceName) == "" {
		return fmt.Errorf("observability.service_name must be set when tracing is enabled")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Output.Format)) {
	case "text", "tsv", "json":
		return nil
	}
	return fmt.Errorf("output.format must be one of: text, tsv, json; got %q", cfg.Output.Format)
}

func validateLogging(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error; got %q", cfg.Logging.Level)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	return nil
}
