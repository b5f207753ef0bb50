package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CODEQUERY_[SECTION]_[KEY] (e.g., CODEQUERY_ANALYSIS_WORKERS).
// Values that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectKey, "CODEQUERY_PROJECT_KEY")
	setEnvString(&cfg.ProjectRoot, "CODEQUERY_PROJECT_ROOT")
	setEnvList(&cfg.SourcePaths, "CODEQUERY_SOURCE_PATHS")

	// Exclude
	setEnvList(&cfg.Exclude.Dirs, "CODEQUERY_EXCLUDE_DIRS")
	setEnvList(&cfg.Exclude.Files, "CODEQUERY_EXCLUDE_FILES")

	// Resolver
	setEnvInt(&cfg.Resolver.MaxDepth, "CODEQUERY_RESOLVER_MAX_DEPTH")
	setEnvInt(&cfg.Resolver.NameCacheSize, "CODEQUERY_RESOLVER_NAME_CACHE_SIZE")
	setEnvBoolPtr(&cfg.Resolver.ImplicitJavaLang, "CODEQUERY_RESOLVER_IMPLICIT_JAVA_LANG")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "CODEQUERY_ANALYSIS_WORKERS")
	setEnvBoolPtr(&cfg.Analysis.AnnotateCalls, "CODEQUERY_ANALYSIS_ANNOTATE_CALLS")
	setEnvBoolPtr(&cfg.Analysis.IncludeTests, "CODEQUERY_ANALYSIS_INCLUDE_TESTS")

	// Index
	setEnvBool(&cfg.Index.Enabled, "CODEQUERY_INDEX_ENABLED")
	setEnvString(&cfg.Index.Path, "CODEQUERY_INDEX_PATH")
	setEnvInt(&cfg.Index.KeepRuns, "CODEQUERY_INDEX_KEEP_RUNS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CODEQUERY_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "CODEQUERY_WATCH_MAX_REBUILDS_PER_SECOND")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "CODEQUERY_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.MetricsAddr, "CODEQUERY_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CODEQUERY_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "CODEQUERY_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.ServiceName, "CODEQUERY_OBSERVABILITY_SERVICE_NAME")

	setEnvString(&cfg.Output.Format, "CODEQUERY_OUTPUT_FORMAT")
	setEnvString(&cfg.Logging.Level, "CODEQUERY_LOGGING_LEVEL")
	setEnvString(&cfg.Logging.Format, "CODEQUERY_LOGGING_FORMAT")
}

func applied(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		applied(key, val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		applied(key, val)
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			applied(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			applied(key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			applied(key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			applied(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			applied(key, val)
			*target = d
		}
	}
}
