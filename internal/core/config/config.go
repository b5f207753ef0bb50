package config

import (
	"log/slog"
	"strings"
	"time"
)

const DefaultFile = "codequery.toml"

type Config struct {
	Version       int           `toml:"version"`
	ProjectKey    string        `toml:"project_key"`
	ProjectRoot   string        `toml:"project_root"`
	SourcePaths   []string      `toml:"source_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Resolver      Resolver      `toml:"resolver"`
	Analysis      Analysis      `toml:"analysis"`
	Index         Index         `toml:"index"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
	Logging       Logging       `toml:"logging"`
}

// Exclude holds gobwas/glob patterns. Dirs match directory base names and
// relative paths; Files match file base names and relative paths.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Resolver struct {
	MaxDepth         int   `toml:"max_depth"`
	NameCacheSize    int   `toml:"name_cache_size"`
	ImplicitJavaLang *bool `toml:"implicit_java_lang"`
}

type Analysis struct {
	Workers       int   `toml:"workers"`
	AnnotateCalls *bool `toml:"annotate_calls"`
	IncludeTests  *bool `toml:"include_tests"`
}

type Index struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	KeepRuns int    `toml:"keep_runs"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	MetricsAddr   string `toml:"metrics_addr"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	ServiceName   string `toml:"service_name"`
}

type Output struct {
	Format string `toml:"format"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a valid configuration that scans the working directory.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (r Resolver) JavaLangImplicit() bool {
	return r.ImplicitJavaLang == nil || *r.ImplicitJavaLang
}

func (a Analysis) ShouldAnnotateCalls() bool {
	return a.AnnotateCalls == nil || *a.AnnotateCalls
}

func (a Analysis) ShouldIncludeTests() bool {
	return a.IncludeTests == nil || *a.IncludeTests
}

// SlogLevel maps the configured level name; unknown names mean info.
func (l Logging) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
