package cluster

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// Clusterer groups a batch of ClusterItems into named Pain Clusters via a
// single OpenAI structured-output call. Unlike the Analyst, a clustering
// failure is never fatal: any error or empty response yields an empty
// slice and the caller proceeds without a digest for that week.
type Clusterer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// New builds a Clusterer from an API key, defaulting to the model used for
// the original weekly digest pass.
func New(apiKey string) *Clusterer {
	model := os.Getenv("PAIN_RADAR_CLUSTER_MODEL")
	if model == "" {
		model = openai.GPT4o
	}
	return &Clusterer{client: openai.NewClient(apiKey), model: model, timeout: 90 * time.Second}
}

// ClusterItems groups items into Cluster records. An empty input returns
// an empty slice without calling the model.
func (c *Clusterer) ClusterItems(ctx context.Context, items []entity.ClusterItem) []entity.Cluster {
	if len(items) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt, err := buildUserPrompt(items)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build cluster prompt", slog.String("error", err.Error()))
		return nil
	}

	schemaBytes, err := json.Marshal(responseSchema())
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal cluster schema", slog.String("error", err.Error()))
		return nil
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
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

	if err != nil {
		slog.ErrorContext(ctx, "clustering call failed", slog.Duration("duration", duration), slog.String("error", err.Error()))
		return nil
	}
	if len(resp.Choices) == 0 {
		slog.WarnContext(ctx, "clustering returned no choices", slog.Duration("duration", duration))
		return nil
	}

	clusters := parseClusters([]byte(resp.Choices[0].Message.Content))
	slog.InfoContext(ctx, "clustering completed",
		slog.Int("input_items", len(items)),
		slog.Int("clusters", len(clusters)),
		slog.Duration("duration", duration))
	return clusters
}
