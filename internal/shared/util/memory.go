package util

import "runtime"

// MemStats is the subset of runtime memory figures logged after an analysis.
type MemStats struct {
	HeapAllocMB uint64
	NumGC       uint32
	Goroutines  int
}

func ReadMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{
		HeapAllocMB: m.HeapAlloc / 1024 / 1024,
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
}

// LogAttrs flattens the figures into slog key/value pairs.
func (m MemStats) LogAttrs() []any {
	return []any{"heap_mb", m.HeapAllocMB, "gc_cycles", m.NumGC, "goroutines", m.Goroutines}
}
