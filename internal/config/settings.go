package config

import (
	"fmt"

	"github.com/albeorla/reddit-pain-radar/internal/analyst"
	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	pkgconfig "github.com/albeorla/reddit-pain-radar/internal/pkg/config"
)

// Settings is the process-wide configuration for both the worker and CLI
// binaries, loaded from PAIN_RADAR_-prefixed environment variables. Only
// the single-tenant subset in scope for this system is loaded here — the
// original's multi-tenant SaaS fields (billing, session/magic-link
// expiry, Redis) are not represented, not even as inert fields.
type Settings struct {
	// Reddit fetching defaults, overridable per Source Set.
	Listing           entity.Listing
	PostsPerSubreddit int
	TopComments       int
	MaxConcurrency    int
	UserAgent         string

	// Storage. DatabaseDSN has no safe default and is fail-closed.
	DatabaseDSN string

	// LLM Analyst provider selection. APIKey has no safe default and is
	// fail-closed; the model is backend-specific and loaded by
	// analyst.LoadClaudeConfig/LoadOpenAIConfig directly, not here.
	LLMProvider string // "claude" or "openai"
	LLMAPIKey   string

	// Logging.
	LogLevel  string
	LogFormat string // "json" or "text"

	// Observability.
	HealthPort  int
	MetricsPort int
}

// Load reads Settings from the environment, falling back to defaults for
// every tunable and returning a configuration error for anything with no
// safe default.
func Load() (Settings, error) {
	s := Settings{}

	s.Listing = entity.Listing(loadStringFallback("PAIN_RADAR_LISTING", "new", validateListing))
	s.PostsPerSubreddit = loadIntFallback("PAIN_RADAR_POSTS_PER_SUBREDDIT", 25, 1, 100)
	s.TopComments = loadIntFallback("PAIN_RADAR_TOP_COMMENTS", 15, 0, 100)
	s.MaxConcurrency = loadIntFallback("PAIN_RADAR_MAX_CONCURRENCY", 8, 1, 50)
	s.UserAgent = pkgconfig.LoadEnvString("PAIN_RADAR_USER_AGENT",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	s.LogLevel = pkgconfig.LoadEnvString("PAIN_RADAR_LOG_LEVEL", "INFO")
	s.LogFormat = pkgconfig.LoadEnvString("PAIN_RADAR_LOG_FORMAT", "json")

	s.HealthPort = loadIntFallback("PAIN_RADAR_HEALTH_PORT", 8080, 1, 65535)
	s.MetricsPort = loadIntFallback("PAIN_RADAR_METRICS_PORT", 9090, 1, 65535)

	s.LLMProvider = pkgconfig.LoadEnvString("PAIN_RADAR_LLM_PROVIDER", "claude")

	dsn := pkgconfig.LoadEnvString("PAIN_RADAR_DATABASE_DSN", "")
	if dsn == "" {
		return Settings{}, fmt.Errorf("%w: PAIN_RADAR_DATABASE_DSN is required", entity.ErrConfiguration)
	}
	s.DatabaseDSN = dsn

	apiKey := pkgconfig.LoadEnvString(apiKeyEnvVar(s.LLMProvider), "")
	if apiKey == "" {
		return Settings{}, fmt.Errorf("%w: no API key set for LLM provider %q (expected %s)",
			entity.ErrConfiguration, s.LLMProvider, apiKeyEnvVar(s.LLMProvider))
	}
	s.LLMAPIKey = apiKey

	return s, nil
}

func apiKeyEnvVar(provider string) string {
	switch provider {
	case "openai":
		return "PAIN_RADAR_OPENAI_API_KEY"
	default:
		return "PAIN_RADAR_CLAUDE_API_KEY"
	}
}

func validateListing(v string) error {
	switch entity.Listing(v) {
	case entity.ListingNew, entity.ListingHot, entity.ListingTop, entity.ListingRising:
		return nil
	default:
		return fmt.Errorf("must be one of new, hot, top, rising")
	}
}

func loadStringFallback(envKey, defaultValue string, validator func(string) error) string {
	result := pkgconfig.LoadEnvWithFallback(envKey, defaultValue, validator)
	return result.Value.(string)
}

func loadIntFallback(envKey string, defaultValue, min, max int) int {
	result := pkgconfig.LoadEnvInt(envKey, defaultValue, func(v int) error {
		return pkgconfig.ValidateIntRange(v, min, max)
	})
	return result.Value.(int)
}

// NewAnalyzer builds the configured LLM Analyst backend. Provider
// selection is the only thing Settings decides for the analyst; each
// backend loads its own model/timeout configuration via
// analyst.LoadClaudeConfig/LoadOpenAIConfig, since those are concerns of
// the backend, not of process-wide settings.
func NewAnalyzer(s Settings) (analyst.Analyzer, error) {
	switch s.LLMProvider {
	case "openai":
		return analyst.NewOpenAI(s.LLMAPIKey), nil
	case "claude", "":
		return analyst.NewClaude(s.LLMAPIKey), nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", entity.ErrConfiguration, s.LLMProvider)
	}
}
