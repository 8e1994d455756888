package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/circuitbreaker"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/retry"
)

// OpenAIConfig configures the OpenAI analyst backend.
type OpenAIConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LoadOpenAIConfig loads the OpenAI analyst configuration.
func LoadOpenAIConfig() OpenAIConfig {
	model := os.Getenv("PAIN_RADAR_OPENAI_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}
	return OpenAIConfig{
		Model:     model,
		MaxTokens: 2048,
		Timeout:   60 * time.Second,
	}
}

// OpenAI implements Analyzer against OpenAI's chat completions API with a
// JSON-schema-constrained response format.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          OpenAIConfig
	metricsRecorder MetricsRecorder
}

// NewOpenAI builds an OpenAI analyst backend from an API key.
func NewOpenAI(apiKey string) *OpenAI {
	config := LoadOpenAIConfig()
	slog.Info("initialized openai analyst", slog.String("model", config.Model))
	return &OpenAI{
		client:          openai.NewClient(apiKey),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		retryConfig:     retry.AIAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusMetrics(),
	}
}

// Analyze runs the extract+score call for one post.
func (o *OpenAI) Analyze(ctx context.Context, post entity.Post) (entity.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result entity.Analysis

	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doAnalyze(ctx, post)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("service", "openai-api"),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai analyst unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(entity.Analysis)
		return nil
	})

	if retryErr != nil {
		return entity.Analysis{}, &entity.AnalysisError{PostID: post.ID, Message: "openai analysis failed after retries", Cause: retryErr}
	}
	return result, nil
}

func (o *OpenAI) doAnalyze(ctx context.Context, post entity.Post) (entity.Analysis, error) {
	userPrompt := truncate(buildUserPrompt(post))

	slog.InfoContext(ctx, "starting analysis",
		slog.String("provider", "openai"),
		slog.String("post_id", post.ID))

	schemaBytes, err := json.Marshal(responseSchema())
	if err != nil {
		return entity.Analysis{}, fmt.Errorf("marshal response schema: %w", err)
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(schemaBytes),
				Strict: false,
			},
		},
	})
	duration := time.Since(start)
	o.metricsRecorder.RecordDuration("openai", duration)

	if err != nil {
		slog.ErrorContext(ctx, "analysis failed", slog.Duration("duration", duration), slog.String("error", err.Error()))
		return entity.Analysis{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.ErrorContext(ctx, "openai returned empty response", slog.Duration("duration", duration))
		return entity.Analysis{}, fmt.Errorf("%w: empty choices", entity.ErrSchemaValidation)
	}

	payload, err := decodeAndValidate([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		slog.ErrorContext(ctx, "analysis response failed validation", slog.String("error", err.Error()))
		return entity.Analysis{}, err
	}

	analysis := payload.toAnalysis()
	o.metricsRecorder.RecordExtractionState("openai", string(analysis.Extraction.ExtractionState))
	if analysis.Score != nil {
		o.metricsRecorder.RecordScoreTotal("openai", analysis.Score.Total())
	}

	slog.InfoContext(ctx, "analysis completed",
		slog.String("post_id", post.ID),
		slog.String("extraction_state", string(analysis.Extraction.ExtractionState)),
		slog.Duration("duration", duration))

	return analysis, nil
}
