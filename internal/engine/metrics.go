package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ExtractionRequests atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	SynthesisCalls     atomic.Int64
	RefineRequests     atomic.Int64
	Commits            atomic.Int64
	CommitConflicts    atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"extraction_requests": metrics.ExtractionRequests.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"synthesis_calls":     metrics.SynthesisCalls.Load(),
		"refine_requests":     metrics.RefineRequests.Load(),
		"commits":             metrics.Commits.Load(),
		"commit_conflicts":    metrics.CommitConflicts.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"extraction_requests", "llm_calls", "llm_errors",
		"synthesis_calls", "refine_requests",
		"commits", "commit_conflicts",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the profile sub-package.
func IncrExtractionRequests() { metrics.ExtractionRequests.Add(1) }
func IncrSynthesisCalls()     { metrics.SynthesisCalls.Add(1) }
func IncrRefineRequests()     { metrics.RefineRequests.Add(1) }
func IncrCommits()            { metrics.Commits.Add(1) }
func IncrCommitConflicts()    { metrics.CommitConflicts.Add(1) }

func IncrLLMCalls()  { metrics.LLMCalls.Add(1) }
func IncrLLMErrors() { metrics.LLMErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
