package engine

import (
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMRate            float64 // calls per second to the LLM collaborator; 0 = unlimited
	LLMClient          *llm.Client

	DatabaseURL  string // non-empty selects the Postgres profile store
	CanvasDBPath string // SQLite profile store location

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	// ReviewThreshold overrides the bulk-approve low-confidence gate.
	// 0 keeps the package default.
	ReviewThreshold float64
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
	initLimiter(c.LLMRate)
}
