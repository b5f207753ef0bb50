package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codequery/internal/core/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Resolver.MaxDepth != 64 || cfg.Resolver.NameCacheSize != 4096 {
		t.Fatalf("unexpected resolver defaults: %+v", cfg.Resolver)
	}
	if !cfg.Resolver.JavaLangImplicit() || !cfg.Analysis.ShouldAnnotateCalls() {
		t.Fatal("implicit java.lang and call annotation default to on")
	}
	if cfg.Index.Enabled {
		t.Fatal("index is opt-in")
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Fatalf("unexpected debounce %v", cfg.Watch.Debounce)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
project_key = "shop"
source_paths = ["src/main/java", "src/test/java"]

[exclude]
dirs = ["generated"]
files = ["**/*Test.java"]

[resolver]
max_depth = 32
implicit_java_lang = false

[analysis]
workers = 2
annotate_calls = false

[index]
enabled = true
path = "out/index.db"

[watch]
debounce = "250ms"

[output]
format = "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProjectKey != "shop" || len(cfg.SourcePaths) != 2 {
		t.Fatalf("unexpected top-level values: %+v", cfg)
	}
	if cfg.Resolver.MaxDepth != 32 || cfg.Resolver.JavaLangImplicit() {
		t.Fatalf("unexpected resolver section: %+v", cfg.Resolver)
	}
	if cfg.Resolver.NameCacheSize != 4096 {
		t.Fatalf("missing keys keep defaults, got %d", cfg.Resolver.NameCacheSize)
	}
	if cfg.Analysis.Workers != 2 || cfg.Analysis.ShouldAnnotateCalls() {
		t.Fatalf("unexpected analysis section: %+v", cfg.Analysis)
	}
	if !cfg.Index.Enabled || cfg.Index.Path != "out/index.db" {
		t.Fatalf("unexpected index section: %+v", cfg.Index)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Fatalf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Output.Format != "json" {
		t.Fatalf("unexpected format %q", cfg.Output.Format)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "version = ", "decode config"},
		{"version", "version = 3", "unsupported config version"},
		{"overlap", `source_paths = ["src", "src/main"]`, "overlap"},
		{"pattern source", `source_paths = ["src/*"]`, "not a pattern"},
		{"glob", "[exclude]\nfiles = [\"[abc\"]", "not a valid glob"},
		{"depth", "[resolver]\nmax_depth = 5000", "resolver.max_depth"},
		{"format", "[output]\nformat = \"xml\"", "output.format"},
		{"logging", "[logging]\nlevel = \"loud\"", "logging.level"},
		{"rate", "[watch]\nmax_rebuilds_per_second = -1", "max_rebuilds_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CODEQUERY_ANALYSIS_WORKERS", "7")
	t.Setenv("CODEQUERY_INDEX_ENABLED", "true")
	t.Setenv("CODEQUERY_SOURCE_PATHS", "a, b,,c")
	t.Setenv("CODEQUERY_RESOLVER_IMPLICIT_JAVA_LANG", "false")
	t.Setenv("CODEQUERY_WATCH_DEBOUNCE", "2s")
	t.Setenv("CODEQUERY_RESOLVER_MAX_DEPTH", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Analysis.Workers != 7 || !cfg.Index.Enabled {
		t.Fatalf("overrides not applied: %+v %+v", cfg.Analysis, cfg.Index)
	}
	if strings.Join(cfg.SourcePaths, "|") != "a|b|c" {
		t.Fatalf("unexpected source paths %v", cfg.SourcePaths)
	}
	if cfg.Resolver.JavaLangImplicit() {
		t.Fatal("implicit java.lang should be off")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Fatalf("unexpected debounce %v", cfg.Watch.Debounce)
	}
	if cfg.Resolver.MaxDepth != 64 {
		t.Fatalf("unparseable override must be ignored, got %d", cfg.Resolver.MaxDepth)
	}
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "src", "main", "java")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.SourcePaths = []string{"src/main/java"}
	got, err := ResolvePaths(cfg, sub)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if len(got.SourcePaths) != 1 || got.SourcePaths[0] != sub {
		t.Fatalf("unexpected source paths %v", got.SourcePaths)
	}
	if got.IndexPath != filepath.Join(root, ".codequery", "index.db") {
		t.Fatalf("unexpected index path %q", got.IndexPath)
	}

	cfg.ProjectRoot = root
	cfg.Index.Path = filepath.Join(root, "abs.db")
	got, err = ResolvePaths(cfg, "/elsewhere")
	if err != nil {
		t.Fatal(err)
	}
	if got.IndexPath != filepath.Join(root, "abs.db") {
		t.Fatalf("absolute index path must be kept, got %q", got.IndexPath)
	}
}

func TestLoggingLevel(t *testing.T) {
	for level, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO"} {
		if got := (Logging{Level: level}).SlogLevel().String(); got != want {
			t.Errorf("level %q: got %s, want %s", level, got, want)
		}
	}
}
