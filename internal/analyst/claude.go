package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/circuitbreaker"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/retry"
)

// ClaudeConfig configures the Claude analyst backend.
type ClaudeConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LoadClaudeConfig loads the Claude analyst configuration, falling back to
// defaults tuned for a single structured-output call per post.
func LoadClaudeConfig() ClaudeConfig {
	model := os.Getenv("PAIN_RADAR_CLAUDE_MODEL")
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return ClaudeConfig{
		Model:     model,
		MaxTokens: 2048,
		Timeout:   60 * time.Second,
	}
}

// Claude implements Analyzer against Anthropic's Messages API, forcing a
// single tool call whose input schema is the analysis payload.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          ClaudeConfig
	metricsRecorder MetricsRecorder
}

// NewClaude builds a Claude analyst backend from an API key.
func NewClaude(apiKey string) *Claude {
	config := LoadClaudeConfig()
	slog.Info("initialized claude analyst", slog.String("model", config.Model))
	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusMetrics(),
	}
}

// Analyze runs the extract+score call for one post, retrying transient
// failures and tripping the circuit breaker on sustained ones.
func (c *Claude) Analyze(ctx context.Context, post entity.Post) (entity.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result entity.Analysis

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doAnalyze(ctx, post)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("service", "claude-api"),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude analyst unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(entity.Analysis)
		return nil
	})

	if retryErr != nil {
		return entity.Analysis{}, &entity.AnalysisError{PostID: post.ID, Message: "claude analysis failed after retries", Cause: retryErr}
	}
	return result, nil
}

func (c *Claude) doAnalyze(ctx context.Context, post entity.Post) (entity.Analysis, error) {
	requestID := uuid.New().String()
	userPrompt := truncate(buildUserPrompt(post))

	slog.InfoContext(ctx, "starting analysis",
		slog.String("request_id", requestID),
		slog.String("provider", "claude"),
		slog.String("post_id", post.ID))

	schema := responseSchema()
	tool := anthropic.ToolParam{
		Name:        schemaName,
		Description: anthropic.String("Record the extraction and score for the analyzed Reddit post."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:       "object",
			Properties: schema["properties"],
		},
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		Tools:      []anthropic.ToolUnionParam{anthropic.ToolUnionParamOfTool(tool)},
		ToolChoice: anthropic.ToolChoiceParamOfTool(schemaName),
	})
	duration := time.Since(start)
	c.metricsRecorder.RecordDuration("claude", duration)

	if err != nil {
		slog.ErrorContext(ctx, "analysis failed",
			slog.String("request_id", requestID), slog.Duration("duration", duration), slog.String("error", err.Error()))
		return entity.Analysis{}, fmt.Errorf("claude api error: %w", err)
	}

	var raw json.RawMessage
	for _, block := range message.Content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok && toolUse.Name == schemaName {
			raw = toolUse.Input
			break
		}
	}
	if raw == nil {
		slog.ErrorContext(ctx, "claude returned no tool call", slog.String("request_id", requestID))
		return entity.Analysis{}, fmt.Errorf("%w: no tool_use block in response", entity.ErrSchemaValidation)
	}

	payload, err := decodeAndValidate(raw)
	if err != nil {
		slog.ErrorContext(ctx, "analysis response failed validation",
			slog.String("request_id", requestID), slog.String("error", err.Error()))
		return entity.Analysis{}, err
	}

	analysis := payload.toAnalysis()
	c.metricsRecorder.RecordExtractionState("claude", string(analysis.Extraction.ExtractionState))
	if analysis.Score != nil {
		c.metricsRecorder.RecordScoreTotal("claude", analysis.Score.Total())
	}

	slog.InfoContext(ctx, "analysis completed",
		slog.String("request_id", requestID),
		slog.String("post_id", post.ID),
		slog.String("extraction_state", string(analysis.Extraction.ExtractionState)),
		slog.Duration("duration", duration))

	return analysis, nil
}
