package config

import (
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"codequery/internal/core/errors"

	"github.com/BurntSushi/toml"
)

// Load decodes a TOML file, fills defaults, applies CODEQUERY_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read config"), errors.CtxPath, path)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}
	for _, key := range meta.Undecoded() {
		slog.Warn("unknown config key ignored", "path", path, "key", key.String())
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid config"), errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path when given. Without a path it loads
// codequery.toml from the working directory if present, else returns
// Default with environment overrides applied.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	}
	cfg := Default()
	ApplyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid config")
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectKey) == "" {
		cfg.ProjectKey = "default"
	}
	if len(cfg.SourcePaths) == 0 {
		cfg.SourcePaths = []string{"."}
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = []string{".git", "target", "build", "out", "node_modules"}
	}

	if cfg.Resolver.MaxDepth <= 0 {
		cfg.Resolver.MaxDepth = 64
	}
	if cfg.Resolver.NameCacheSize == 0 {
		cfg.Resolver.NameCacheSize = 4096
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}

	if strings.TrimSpace(cfg.Index.Path) == "" {
		cfg.Index.Path = ".codequery/index.db"
	}
	if cfg.Index.KeepRuns == 0 {
		cfg.Index.KeepRuns = 20
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond == 0 {
		cfg.Watch.MaxRebuildsPerSecond = 1
	}

	if strings.TrimSpace(cfg.Observability.MetricsAddr) == "" {
		cfg.Observability.MetricsAddr = "127.0.0.1:9464"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "codequery"
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = "text"
	}
}
