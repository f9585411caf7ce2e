// go_canvas — profile synthesis & scoring MCP server.
//
// Turns raw discovery input (call transcripts, notes, uploaded documents)
// into structured, scored client profiles through an extract → review →
// commit workflow. Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/centralcmd/go_canvas/internal/canvasserver"
	"github.com/centralcmd/go_canvas/internal/engine"
	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	store := initEngine()
	defer store.Close()

	slog.Info("starting go_canvas",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_canvas",
		Version: version,
	}, nil)

	canvasserver.RegisterTools(server, store, profile.NewSynthesizer(profile.LLMGenerator{}))
	slog.Info("tools registered", slog.Int("count", 13))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_canvas",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() profile.Store {
	c := engine.Config{
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.1),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 16384),
		LLMRate:              env.Float("LLM_RATE", 2),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		CanvasDBPath:         env.Str("CANVAS_DB_PATH", profile.DefaultDBPath()),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		ReviewThreshold:      env.Float("REVIEW_THRESHOLD", profile.DefaultLowConfidenceThreshold),
	}

	c.LLMClient = llm.NewClient(c.LLMAPIBase, c.LLMAPIKey, c.LLMModel,
		llm.WithFallbackKeys(c.LLMAPIKeyFallbacks),
		llm.WithMaxTokens(c.LLMMaxTokens),
		llm.WithTemperature(c.LLMTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	)

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", engine.CacheTTL)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)

	// Profile store: PostgreSQL when DATABASE_URL is set, local SQLite otherwise.
	if c.DatabaseURL != "" {
		pg, err := profile.ConnectPGStore(context.Background(), c.DatabaseURL)
		if err != nil {
			slog.Error("postgres store init failed", slog.Any("error", err))
		} else {
			slog.Info("postgres store initialized")
			return pg
		}
	}
	st, err := profile.OpenSQLiteStore(c.CanvasDBPath)
	if err != nil {
		slog.Error("sqlite store init failed", slog.Any("error", err), slog.String("path", c.CanvasDBPath))
		os.Exit(1)
	}
	slog.Info("sqlite store initialized", slog.String("path", c.CanvasDBPath))
	return st
}
