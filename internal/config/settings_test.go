package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

func clearSettingsEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PAIN_RADAR_LISTING", "PAIN_RADAR_POSTS_PER_SUBREDDIT", "PAIN_RADAR_TOP_COMMENTS",
		"PAIN_RADAR_MAX_CONCURRENCY", "PAIN_RADAR_USER_AGENT", "PAIN_RADAR_LOG_LEVEL",
		"PAIN_RADAR_LOG_FORMAT", "PAIN_RADAR_HEALTH_PORT", "PAIN_RADAR_METRICS_PORT",
		"PAIN_RADAR_LLM_PROVIDER", "PAIN_RADAR_DATABASE_DSN", "PAIN_RADAR_CLAUDE_API_KEY",
		"PAIN_RADAR_OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingDatabaseDSNIsAConfigurationError(t *testing.T) {
	clearSettingsEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConfiguration))
}

func TestLoad_MissingAPIKeyIsAConfigurationError(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("PAIN_RADAR_DATABASE_DSN", "postgres://localhost/test")
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConfiguration))
}

func TestLoad_AppliesDefaultsWhenTunablesUnset(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("PAIN_RADAR_DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("PAIN_RADAR_CLAUDE_API_KEY", "sk-test")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, entity.ListingNew, s.Listing)
	assert.Equal(t, 25, s.PostsPerSubreddit)
	assert.Equal(t, 15, s.TopComments)
	assert.Equal(t, 8, s.MaxConcurrency)
	assert.Equal(t, "claude", s.LLMProvider)
	assert.Equal(t, "sk-test", s.LLMAPIKey)
}

func TestLoad_InvalidPostsPerSubredditFallsBackInsteadOfErroring(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("PAIN_RADAR_DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("PAIN_RADAR_CLAUDE_API_KEY", "sk-test")
	t.Setenv("PAIN_RADAR_POSTS_PER_SUBREDDIT", "9999")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, s.PostsPerSubreddit)
}

func TestLoad_InvalidListingFallsBackToNew(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("PAIN_RADAR_DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("PAIN_RADAR_CLAUDE_API_KEY", "sk-test")
	t.Setenv("PAIN_RADAR_LISTING", "not-a-listing")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, entity.ListingNew, s.Listing)
}

func TestLoad_OpenAIProviderReadsItsOwnAPIKeyVar(t *testing.T) {
	clearSettingsEnv(t)
	t.Setenv("PAIN_RADAR_DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("PAIN_RADAR_LLM_PROVIDER", "openai")
	t.Setenv("PAIN_RADAR_OPENAI_API_KEY", "sk-openai-test")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", s.LLMProvider)
	assert.Equal(t, "sk-openai-test", s.LLMAPIKey)
}

func TestNewAnalyzer_UnknownProviderIsAConfigurationError(t *testing.T) {
	_, err := NewAnalyzer(Settings{LLMProvider: "not-a-provider", LLMAPIKey: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConfiguration))
}
